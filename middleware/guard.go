package middleware

import (
	"context"
	"net/http"

	"github.com/MrEthical07/loginflow"
)

type dashboardContextKey struct{}

// DashboardFromContext returns the view captured by RequireSession.
func DashboardFromContext(ctx context.Context) (loginflow.DashboardView, bool) {
	view, ok := ctx.Value(dashboardContextKey{}).(loginflow.DashboardView)
	return view, ok
}

// Guard redirects requests for route to wherever Engine.Resolve sends it:
// the login page while a session is active, the dashboard while none is.
func Guard(engine *loginflow.Engine, route loginflow.Route) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}

			if target := engine.Resolve(route); target != route {
				http.Redirect(w, r, string(target), http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession rejects requests with 401 unless a session is active and
// stores the dashboard view in the request context.
func RequireSession(engine *loginflow.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			view := engine.Dashboard(r.Context())
			if !view.Active {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), dashboardContextKey{}, view)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
