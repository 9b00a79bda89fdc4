package middleware

import (
	"net/http"
	"strings"

	"github.com/glowmart/glowmart-backend/api/responses"
	pkgauth "github.com/glowmart/glowmart-backend/pkg/auth"
	"github.com/glowmart/glowmart-backend/pkg/config"
	pkgerrors "github.com/glowmart/glowmart-backend/pkg/errors"
	"github.com/glowmart/glowmart-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// user identity and the raw token. The token is kept because checkout
// calls the shop API on the caller's behalf.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithUserID(r.Context(), claims.UserID.String())
			ctx = WithAccessToken(ctx, token)

			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.UserID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
