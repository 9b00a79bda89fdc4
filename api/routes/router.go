package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/glowmart/glowmart-backend/api/controllers"
	"github.com/glowmart/glowmart-backend/api/middleware"
	checkoutsvc "github.com/glowmart/glowmart-backend/internal/checkout"
	"github.com/glowmart/glowmart-backend/internal/locations"
	"github.com/glowmart/glowmart-backend/pkg/config"
	"github.com/glowmart/glowmart-backend/pkg/logger"
	"github.com/glowmart/glowmart-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisStore redis.Store,
	registry *prometheus.Registry,
	directory locations.Directory,
	checkoutService checkoutsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, redisStore, logg))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/locations", func(r chi.Router) {
		r.Get("/provinces", controllers.ListProvinces(directory, logg))
		r.Get("/districts", controllers.ListDistricts(directory, logg))
		r.Get("/wards", controllers.ListWards(directory, logg))
	})

	r.Route("/api/v1/checkout", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisStore, logg))

		r.Get("/ping", controllers.PrivatePing())
		r.Post("/sessions", controllers.StartCheckoutSession(checkoutService, logg))

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", controllers.GetCheckoutSession(checkoutService, logg))
			r.Put("/address", controllers.UpdateCheckoutAddress(checkoutService, logg))
			r.Post("/address/confirm", controllers.ConfirmCheckoutAddress(checkoutService, logg))
			r.Post("/coupon", controllers.AttachCheckoutCoupon(checkoutService, logg))
			r.Put("/payment-method", controllers.SelectCheckoutPaymentMethod(checkoutService, logg))
			r.Post("/submit", controllers.SubmitCheckout(checkoutService, logg))
		})
	})

	return r
}
