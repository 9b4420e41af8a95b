package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/templui/sheetlens/internal/ctxkeys"
	"github.com/templui/sheetlens/internal/service"
)

// AuthMiddleware verifies the JWT from the Authorization header, falling
// back to the auth cookie, and adds the identity to the context if valid.
// Requests without a valid token continue anonymously.
func AuthMiddleware(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, ok := bearerToken(r); ok {
				id, err := authService.Identity(token)
				if err != nil {
					slog.Debug("bearer token rejected", "error", err, "path", r.URL.Path)
					next.ServeHTTP(w, r)
					return
				}
				next.ServeHTTP(w, r.WithContext(ctxkeys.WithIdentity(r.Context(), id, ctxkeys.AuthSourceBearer)))
				return
			}

			cookie, err := r.Cookie(service.AuthCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			id, err := authService.Identity(cookie.Value)
			if err != nil {
				// Invalid token, clear cookie and continue
				authService.ClearJWTCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctxkeys.WithIdentity(r.Context(), id, ctxkeys.AuthSourceCookie)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireAuth rejects requests that carry no verified identity.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.Identity(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next(w, r)
	}
}
