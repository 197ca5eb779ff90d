package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/neomorfeo/roomie/internal/domain"
)

type bearerKey struct{}

// bearerFrom returns the raw bearer token of the request, valid or not.
func bearerFrom(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(bearerKey{}).(string)
	return token, ok && token != ""
}

// Authenticate resolves the bearer token of each request and, when it belongs
// to an active session, puts the operator into the request context with
// domain.WithOwner. Requests without a valid token pass through unchanged;
// routes that need an operator reject them.
func Authenticate(auth Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				next.ServeHTTP(w, r)
				return
			}
			token := parts[1]
			ctx := context.WithValue(r.Context(), bearerKey{}, token)

			session, err := auth.Resolve(ctx, token)
			if err != nil {
				logger.DebugContext(ctx, "bearer token rejected", "path", r.URL.Path, "error", err)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			if session.IsAuthenticated() {
				ctx = domain.WithOwner(ctx, session.UserID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
