// Package server provides the HTTP surface for the portfolio computation
// core: activity ingestion, historical valuations, market-data
// sync triggers, a websocket change feed, and a health endpoint. Router
// and middleware setup use chi + go-chi/cors + structured request
// logging, scoped to this core's single domain surface.
package server

import (
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/afadil/wealthfolio-sub005/internal/config"
	"github.com/afadil/wealthfolio-sub005/internal/database"
)

// Server is the HTTP surface over the portfolio core.
type Server struct {
	router *chi.Mux
	http   *http.Server
	log    zerolog.Logger
	db     *database.DB
	cfg    *config.Config

	activities *ActivityHandlers
	assets     *AssetHandlers
	portfolio  *PortfolioHandlers
	sync       *SyncHandlers
	feed       *FeedHandlers
}

// Deps bundles the handler groups New assembles into a router. Each group
// is built and wired by cmd/server/main.go, keeping the HTTP layer free of
// constructor logic for the calculators and stores it fronts.
type Deps struct {
	Log        zerolog.Logger
	DB         *database.DB
	Config     *config.Config
	Activities *ActivityHandlers
	Assets     *AssetHandlers
	Portfolio  *PortfolioHandlers
	Sync       *SyncHandlers
	Feed       *FeedHandlers
}

// New builds a Server with its full route table mounted.
func New(d Deps) *Server {
	_ = mime.AddExtensionType(".json", "application/json")

	s := &Server{
		router:     chi.NewRouter(),
		log:        d.Log.With().Str("component", "http_server").Logger(),
		db:         d.DB,
		cfg:        d.Config,
		activities: d.Activities,
		assets:     d.Assets,
		portfolio:  d.Portfolio,
		sync:       d.Sync,
		feed:       d.Feed,
	}
	s.routes()
	s.http = &http.Server{
		Addr:         ":" + strconv.Itoa(d.Config.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/activities", func(r chi.Router) {
			r.Get("/", s.activities.Search)
			r.Post("/", s.activities.Create)
			r.Post("/bulk", s.activities.BulkImport)
			r.Get("/{id}", s.activities.Get)
			r.Put("/{id}", s.activities.Update)
			r.Delete("/{id}", s.activities.Delete)
		})

		r.Route("/accounts/{accountID}", func(r chi.Router) {
			r.Get("/snapshots", s.portfolio.Snapshots)
			r.Get("/valuations", s.portfolio.Valuations)
			r.Get("/performance", s.portfolio.Performance)
			r.Get("/income", s.portfolio.Income)
		})

		r.Route("/assets", func(r chi.Router) {
			r.Post("/merge", s.assets.Merge)
		})

		r.Route("/sync", func(r chi.Router) {
			r.Post("/quotes", s.sync.TriggerQuoteSync)
			r.Post("/rebuild", s.sync.TriggerRebuild)
		})

		r.Get("/feed", s.feed.ServeWS)
	})
}

// Start begins serving HTTP requests; it blocks until the listener stops.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server starting")
	return s.http.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown() error {
	return s.http.Close()
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
