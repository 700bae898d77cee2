package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"event-reports/internal/platform/logger"
	"event-reports/internal/ports/auth"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// BasicAuth exige credenciales HTTP Basic válidas según verifier.
// Sin credenciales o con credenciales inválidas responde 401 con el challenge
// WWW-Authenticate; si el verifier falla por otra causa, 503. Si pasan, deja los claims en el contexto.
func BasicAuth(realm string, verifier auth.Verifier, log logger.Logger) func(http.Handler) http.Handler {
	log = logger.OrNop(log)
	challenge := fmt.Sprintf(`Basic realm=%q, charset="UTF-8"`, realm)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok {
				unauthorized(w, challenge)
				return
			}

			claims, err := verifier.Verify(r.Context(), user, pass)
			if err != nil && !errors.Is(err, auth.ErrUnauthorized) {
				log.Error("auth verifier failed", map[string]any{"err": err, "path": r.URL.Path})
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				return
			}
			if err != nil {
				log.Warn("basic auth rejected", map[string]any{
					"user": user,
					"path": r.URL.Path,
				})
				unauthorized(w, challenge)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	v := ctx.Value(claimsKey)
	if v == nil {
		return auth.Claims{}, false
	}
	c, ok := v.(auth.Claims)
	return c, ok
}

func unauthorized(w http.ResponseWriter, challenge string) {
	w.Header().Set("WWW-Authenticate", challenge)
	http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
}
