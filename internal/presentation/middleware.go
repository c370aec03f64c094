package presentation

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/sellora/marketplace-service/internal/domain"
	"github.com/sellora/marketplace-service/internal/presentation/helpers"
)

// Identity decodes the actor headers set by the upstream gateway
// (authentication itself lives there) and captures request metadata for
// audit entries. "legacy" in the permissions header selects the
// unrestricted backward-compat tier; an empty header means no grants.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if raw := r.Header.Get("X-User-Role"); raw != "" {
			role, ok := domain.ParseRole(raw)
			if !ok {
				helpers.HttpError(w, http.StatusBadRequest, "invalid X-User-Role")
				return
			}
			ctx = domain.WithIdentity(ctx, domain.Identity{
				UserID:      r.Header.Get("X-User-Id"),
				Email:       r.Header.Get("X-User-Email"),
				Role:        role,
				VendorOK:    r.Header.Get("X-Vendor-Status") == "approved",
				Permissions: domain.ParsePermissionSet(r.Header.Get("X-Vendor-Permissions")),
			})
		}

		ctx = domain.WithRequestMeta(ctx, domain.RequestMeta{
			IP:            r.RemoteAddr,
			UserAgent:     r.UserAgent(),
			CorrelationID: middleware.GetReqID(ctx),
		})

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects requests whose identity is missing or outside the
// allowed set before the handler runs.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := domain.IdentityFromContext(r.Context())
			if !ok {
				helpers.HttpError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			for _, role := range roles {
				if id.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			helpers.HttpError(w, http.StatusForbidden, "insufficient role")
		})
	}
}
