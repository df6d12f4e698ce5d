package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"garmentedit/internal/http/handlers"
	"garmentedit/internal/middleware"
)

type Options struct {
	Logger          zerolog.Logger
	CORSOrigins     []string
	APIKey          string
	RateLimitPerMin int
	CountryLookup   middleware.CountryLookup
	// OutputDir is served read-only under /outputs/ when set.
	OutputDir string
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.CORSOrigins),
		middleware.Country(opts.CountryLookup),
	)

	r.Get("/health", app.Health)
	r.Get("/v1/healthz", app.Health)

	if opts.OutputDir != "" {
		files := http.StripPrefix("/outputs/", http.FileServer(http.Dir(opts.OutputDir)))
		r.Handle("/outputs/*", files)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKey(opts.APIKey))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
			r.Post("/generate", app.Edit)
			r.Post("/edit", app.Edit)
		})

		r.Route("/v1/runs/{id}", func(r chi.Router) {
			r.Get("/", app.RunStatus)
			r.Get("/bundle", app.RunBundle)
		})
	})

	return r
}
