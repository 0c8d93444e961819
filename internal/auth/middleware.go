package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/otpless/invoice-service/internal/platform/httpx"
)

// Middleware authenticates the bearer token and stores the principal in
// the request context. Requests without a valid token are rejected before
// any handler runs.
func Middleware(service *Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
				return
			}
			principal, err := service.Authenticate(r.Context(), token)
			if err != nil {
				logger.Warn("token authentication failed", slog.String("path", r.URL.Path))
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid bearer token")
				return
			}
			ctx := ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireScope rejects requests whose principal is not authorized for the
// action on the addressed invoice. Routes without an {id} parameter pass
// the zero id, which grants-wide rules treat as "any invoice".
func (s *Service) RequireScope(action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			invoiceID, _ := uuid.Parse(chi.URLParam(r, "id"))
			if !s.Authorize(PrincipalFromContext(r.Context()), action, invoiceID) {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
