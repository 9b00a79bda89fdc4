package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/glowmart/glowmart-backend/api/routes"
	"github.com/glowmart/glowmart-backend/internal/cart"
	checkoutsvc "github.com/glowmart/glowmart-backend/internal/checkout"
	"github.com/glowmart/glowmart-backend/internal/locations"
	"github.com/glowmart/glowmart-backend/internal/shipping"
	"github.com/glowmart/glowmart-backend/pkg/config"
	"github.com/glowmart/glowmart-backend/pkg/ghn"
	"github.com/glowmart/glowmart-backend/pkg/logger"
	"github.com/glowmart/glowmart-backend/pkg/metrics"
	"github.com/glowmart/glowmart-backend/pkg/redis"
	"github.com/glowmart/glowmart-backend/pkg/shopapi"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	carrierClient, err := ghn.NewClient(cfg.Carrier.Token, ghn.WithBaseURL(cfg.Carrier.BaseURL))
	if err != nil {
		logg.Error(context.Background(), "failed to create carrier client", err)
		os.Exit(1)
	}

	shopClient, err := shopapi.NewClient(cfg.Shop.BaseURL)
	if err != nil {
		logg.Error(context.Background(), "failed to create shop client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	directory, err := locations.NewDirectory(carrierClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create location directory", err)
		os.Exit(1)
	}

	cartLoader, err := cart.NewLoader(shopClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart loader", err)
		os.Exit(1)
	}

	estimator, err := shipping.NewEstimator(carrierClient, shipping.Origin{
		DistrictID:    cfg.Carrier.OriginDistrictID,
		WardCode:      cfg.Carrier.OriginWardCode,
		ServiceTypeID: cfg.Carrier.ServiceTypeID,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create shipping estimator", err)
		os.Exit(1)
	}

	sessionStore, err := checkoutsvc.NewStore(redisClient, cfg.Checkout.SessionTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create session store", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(
		sessionStore,
		cartLoader,
		estimator,
		directory,
		shopClient,
		checkoutMetrics,
		logg,
		cfg.Checkout.Currency,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, redisClient, registry, directory, checkoutService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
