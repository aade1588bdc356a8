package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/routable/internal/http/auth"
	"github.com/MrJamesThe3rd/routable/internal/http/item"
	"github.com/MrJamesThe3rd/routable/internal/http/metrics"
	"github.com/MrJamesThe3rd/routable/internal/http/transaction"
)

type Options struct {
	AllowedOrigins []string
	// Admin routes are only mounted when Admin is set.
	Admin   *auth.Authenticator
	Metrics *metrics.Metrics
}

func New(
	itemsV1 *item.Handler,
	transactionsV1 *transaction.Handler,
	opts Options,
) http.Handler {
	router := chi.NewRouter()

	if opts.Metrics != nil {
		router.Use(opts.Metrics.Middleware)
	}

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	if opts.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/items", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json", "multipart/form-data"))
			itemsV1.Routes(r)
			transactionsV1.Routes(r)
		})

		if opts.Admin != nil {
			r.Route("/admin/items", func(r chi.Router) {
				r.Use(opts.Admin.RequireAdmin)
				transactionsV1.AdminRoutes(r)
			})
		}
	})

	return router
}
