package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"afdaudit/internal/http/handlers"
	"afdaudit/internal/infra"
	"afdaudit/internal/middleware"
)

const adminRateClients = 1024

// RouterOptions carries the settings the router needs beyond the handlers.
type RouterOptions struct {
	OneBotSecret   string
	AdminToken     string
	AdminRateLimit int
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	Logger   infra.Logger
}

func NewRouter(app *handlers.App, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
	)

	r.Get("/v1/healthz", app.Health)

	r.With(middleware.OneBotSignature(opts.OneBotSecret)).Post("/onebot/events", app.OneBotEvents)

	r.Route("/v1/groups", func(r chi.Router) {
		r.Use(
			middleware.RateLimit(opts.AdminRateLimit, time.Minute, adminRateClients, nil),
			middleware.AdminToken(opts.AdminToken),
		)
		r.Get("/{groupID}/decisions", app.GroupDecisions)
	})

	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	return r
}
