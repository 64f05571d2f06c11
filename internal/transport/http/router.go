package http

import (
	"net/http"
	"time"

	"github.com/MrEthical07/loginflow"
	"github.com/MrEthical07/loginflow/internal/rate"
	"github.com/MrEthical07/loginflow/internal/transport/http/handler"
	"github.com/MrEthical07/loginflow/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	xrate "golang.org/x/time/rate"
)

// Deps holds everything the router serves.
type Deps struct {
	Engine *loginflow.Engine

	// Limiter throttles failed logins and malformed codes. Optional.
	Limiter *rate.Limiter

	// Metrics is mounted at /metrics when set.
	Metrics http.Handler

	AllowedOrigins []string

	// RequestsPerSecond and Burst bound the sensitive endpoints per IP.
	// Zero disables the bucket.
	RequestsPerSecond float64
	Burst             int

	RequestTimeout time.Duration

	// RequestLogging enables chi's access log.
	RequestLogging bool
}

// NewRouter builds the application router. The returned close function
// stops the per-IP limiter's sweep.
func NewRouter(deps *Deps) (http.Handler, func()) {
	r := chi.NewRouter()
	if deps.RequestLogging {
		r.Use(chimiddleware.Logger)
	}
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	if deps.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(deps.RequestTimeout))
	}
	r.Use(middleware.ClientIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	sensitive := func(next http.Handler) http.Handler { return next }
	closeFn := func() {}
	if deps.RequestsPerSecond > 0 && deps.Burst > 0 {
		rl := middleware.NewRateLimiter(xrate.Limit(deps.RequestsPerSecond), deps.Burst)
		sensitive = rl.Limit
		closeFn = rl.Close
	}

	// A typed nil would defeat the handlers' nil checks.
	var limiter handler.AttemptLimiter
	if deps.Limiter != nil {
		limiter = deps.Limiter
	}

	engine := deps.Engine
	sessionH := handler.NewSessionHandler(engine, limiter)
	otpH := handler.NewEmailVerificationHandler(engine, limiter)
	resetH := handler.NewPasswordResetHandler(engine)
	regH := handler.NewRegistrationHandler(engine)

	r.With(middleware.Guard(engine, loginflow.RouteLogin)).Get(string(loginflow.RouteLogin), handler.Page(loginflow.RouteLogin))
	r.With(middleware.Guard(engine, loginflow.RouteRegister)).Get(string(loginflow.RouteRegister), handler.Page(loginflow.RouteRegister))
	r.With(middleware.Guard(engine, loginflow.RouteDashboard)).Get(string(loginflow.RouteDashboard), sessionH.Dashboard)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.With(sensitive).Post("/sessions/login", sessionH.Login)
		r.Post("/sessions/logout", sessionH.Logout)
		r.Get("/sessions", sessionH.GetCurrent)
		r.With(middleware.RequireSession(engine)).Get("/dashboard", sessionH.Dashboard)

		r.Get("/email-verification", otpH.Get)
		r.With(sensitive).Post("/email-verification/{action}", otpH.Action)

		r.Get("/password-reset", resetH.Get)
		r.With(sensitive).Post("/password-reset/{action}", resetH.Action)

		r.Get("/registration", regH.Get)
		r.With(sensitive).Post("/registration/{action}", regH.Action)
	})

	return r, closeFn
}
