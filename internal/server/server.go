// Package server exposes the recognition/planning pipeline and the session
// wizard over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"eco-menu/internal/auth"
	"eco-menu/internal/history"
	"eco-menu/internal/llm"
	"eco-menu/internal/logger"
	"eco-menu/internal/menu"
	"eco-menu/internal/metrics"
	"eco-menu/internal/session"
)

// Server wires the HTTP surface to the domain packages. The stateless
// endpoints call the provider directly; the /sessions tree goes through
// the orchestrator.
type Server struct {
	router   *chi.Mux
	provider llm.Provider
	decoder  *menu.Decoder
	history  *history.Store
	sessions *session.Orchestrator
	metrics  *metrics.Store
}

// New builds the Server and its routes. metricsStore may be nil.
func New(provider llm.Provider, hist *history.Store, sessions *session.Orchestrator, metricsStore *metrics.Store, verifier *auth.Verifier) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		provider: provider,
		decoder:  menu.NewDecoder(provider.SeedsResponseWithOpeningBrace()),
		history:  hist,
		sessions: sessions,
		metrics:  metricsStore,
	}

	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	s.router.Use(auth.Middleware(verifier))

	s.router.Get("/healthz", s.handleHealth)

	s.router.Post("/recognize", s.handleRecognize)
	s.router.Post("/plan", s.handlePlan)

	s.router.Get("/history", s.handleHistoryList)
	s.router.Post("/history", s.handleHistorySave)

	s.router.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleSessionCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleSessionGet)
			r.Post("/image", s.handleSessionImage)
			r.Post("/analyze", s.handleSessionAnalyze)
			r.Post("/ingredients", s.handleSessionAddIngredient)
			r.Delete("/ingredients/{index}", s.handleSessionRemoveIngredient)
			r.Post("/generate", s.handleSessionGenerate)
			r.Post("/adopt", s.handleSessionAdopt)
			r.Post("/reset", s.handleSessionReset)
		})
	})

	return s
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving HTTP on the given port.
func (s *Server) Start(port string) error {
	addr := ":" + port
	logger.L().Info("starting server", zap.String("addr", addr))

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}
