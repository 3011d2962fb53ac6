package shared

import (
	"net/http"

	"github.com/leavedesk/leavedesk/internal/platform/httpx"
)

// RequireAdmin gates a route group behind an authenticated admin
// session. Handlers behind it still pass the explicit Actor into the
// service layer; this middleware only short-circuits the obvious case.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := ActorFromSession(SessionFromContext(r.Context()))
		if !actor.Admin {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "admin login required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
