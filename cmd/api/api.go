package main

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vastra/internal/auth"
	"vastra/internal/config"
	"vastra/internal/domain/storage"
	"vastra/internal/ratelimiter"
	"vastra/internal/slug"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type application struct {
	config        config.Config
	store         *storage.Container
	slugs         *slug.Assigner
	logger        *zap.SugaredLogger
	cld           *cloudinary.Cloudinary
	authenticator auth.Authenticator
	rateLimiter   ratelimiter.Limiter
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(app.RateLimiterMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.config.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Location"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	// Handlers observe ctx.Done() once the request exceeds the timeout.
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", app.listProductsHandler)
			r.Get("/{slug}", app.getProductHandler)
			r.Get("/{slug}/similar", app.listSimilarProductsHandler)
			r.Get("/{slug}/seo", app.listProductSeoHandler)
		})
		r.Get("/seo/{slug}", app.getSeoHandler)
		r.Route("/taxonomies/{kind}", func(r chi.Router) {
			r.Get("/", app.listTaxonomiesHandler)
			r.Get("/{slug}", app.getTaxonomyHandler)
		})
		r.Route("/topic-pages", func(r chi.Router) {
			r.Get("/", app.listTopicPagesHandler)
			r.Get("/{slug}", app.getTopicPageHandler)
		})
		app.mountGeo(r)

		r.Route("/admin", func(r chi.Router) {
			r.Use(app.AdminTokenMiddleware)

			r.Post("/products", app.createProductHandler)
			r.Patch("/products/{productID}", app.updateProductHandler)
			r.Delete("/products/{productID}", app.deleteProductHandler)

			r.Post("/seo", app.createSeoHandler)
			r.Patch("/seo/{seoID}", app.updateSeoHandler)
			r.Delete("/seo/{seoID}", app.deleteSeoHandler)

			r.Post("/taxonomies/{kind}", app.createTaxonomyHandler)
			r.Patch("/taxonomies/{kind}/{taxonomyID}", app.updateTaxonomyHandler)
			r.Delete("/taxonomies/{kind}/{taxonomyID}", app.deleteTaxonomyHandler)

			r.Post("/topic-pages", app.createTopicPageHandler)
			r.Patch("/topic-pages/{pageID}", app.updateTopicPageHandler)
			r.Delete("/topic-pages/{pageID}", app.deleteTopicPageHandler)

			app.mountGeoAdmin(r)
		})
	})
	return r
}

func (app *application) run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         app.config.Addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.Addr, "env", app.config.Env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.Addr, "env", app.config.Env)

	return nil
}
