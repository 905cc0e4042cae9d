package router

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/GregMSThompson/agent-dashboard/internal/handlers"
	"github.com/GregMSThompson/agent-dashboard/internal/metrics"
	"github.com/GregMSThompson/agent-dashboard/internal/middleware"
)

func NewRouter(deps *handlers.Deps, auth *middleware.Middleware) chi.Router {
	r := chi.NewRouter()

	lm := middleware.NewLoggerMiddleware(deps.Log)
	r.Use(chimiddleware.RequestID)
	r.Use(lm.LoggerMiddleware)
	r.Use(chimiddleware.Recoverer)

	r.Get("/ping", handlers.Ping)
	r.Handle("/metrics", metrics.Handler())

	dh := handlers.NewDashboardHandlers(deps)
	ah := handlers.NewAskHandlers(deps)

	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Mount("/ask", ah.AskRoutes())
		r.Mount("/", dh.DashboardRoutes())
	})
	return r
}
