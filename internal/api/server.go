// Package api is the HTTP and WebSocket surface over the simulation core.
// Routing and middleware follow the teacher's pkg/api/server.go: a single
// gorilla/mux router, rs/cors wrapping it, and a broadcaster-backed
// WebSocket hub for push.
package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/darkgrid-game/darkgrid-core/internal/apperr"
	"github.com/darkgrid-game/darkgrid-core/internal/events"
	"github.com/darkgrid-game/darkgrid-core/internal/store"
	"github.com/darkgrid-game/darkgrid-core/internal/tick"
)

// Server wires the core's collaborators to HTTP handlers.
type Server struct {
	store   *store.Store
	manager *tick.Manager
	bcast   events.Broadcaster
	hub     *Hub
	log     *zap.Logger
	devMode bool
	router  *mux.Router
}

// NewServer builds a Server and registers every route.
func NewServer(st *store.Store, manager *tick.Manager, bcast events.Broadcaster, log *zap.Logger, devMode bool) *Server {
	s := &Server{
		store:   st,
		manager: manager,
		bcast:   bcast,
		hub:     NewHub(bcast),
		log:     log,
		devMode: devMode,
		router:  mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestLoggingMiddleware)

	v1 := s.router.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/world/", s.handleGetWorld).Methods(http.MethodGet)

	v1.HandleFunc("/entities/", s.handleListEntities).Methods(http.MethodGet)
	v1.HandleFunc("/entities/{id}", s.handleGetEntity).Methods(http.MethodGet)

	actionsRoute := v1.PathPrefix("/actions").Subrouter()
	actionsRoute.Use(s.authMiddleware)
	actionsRoute.HandleFunc("/", s.handleSubmitActions).Methods(http.MethodPost)

	v1.HandleFunc("/market/listings", s.handleListListings).Methods(http.MethodGet)
	marketWrite := v1.PathPrefix("/market").Subrouter()
	marketWrite.Use(s.authMiddleware)
	marketWrite.HandleFunc("/listings", s.handleCreateListing).Methods(http.MethodPost)
	marketWrite.HandleFunc("/listings/{id}/buy", s.handleBuyListing).Methods(http.MethodPost)
	marketWrite.HandleFunc("/listings/{id}/cancel", s.handleCancelListing).Methods(http.MethodPost)

	v1.HandleFunc("/currency/", s.handleCurrencyMetadata).Methods(http.MethodGet)
	currency := v1.PathPrefix("/currency").Subrouter()
	currency.Use(s.authMiddleware)
	currency.HandleFunc("/balance", s.handleBalance).Methods(http.MethodGet)
	currency.HandleFunc("/transfer", s.handleTransfer).Methods(http.MethodPost)
	currency.HandleFunc("/mint_encrypted", s.handleMintEncrypted).Methods(http.MethodPost)
	currency.HandleFunc("/packets", s.handleListPackets).Methods(http.MethodGet)
	currency.HandleFunc("/decrypt", s.handleDecrypt).Methods(http.MethodPost)

	v1.HandleFunc("/events", s.handleListEvents).Methods(http.MethodGet)

	admin := v1.PathPrefix("/admin").Subrouter()
	admin.Use(s.devModeMiddleware)
	admin.HandleFunc("/tick/advance", s.handleAdvanceTick).Methods(http.MethodPost)
	admin.HandleFunc("/world/reset", s.handleResetWorld).Methods(http.MethodPost)
	admin.HandleFunc("/replay/verify", s.handleVerifyReplay).Methods(http.MethodGet)

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
}

// Start runs the hub's dispatch loop and serves HTTP on addr. It blocks
// until ListenAndServe returns and hands back its error.
func (s *Server) Start(addr string) error {
	go s.hub.Run()

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
	})

	srv := &http.Server{
		Addr:         addr,
		Handler:      c.Handler(s.router),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	s.log.Info("api server starting", zap.String("addr", addr))
	return srv.ListenAndServe()
}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func (s *Server) devModeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.devMode {
			respondAppErr(w, apperr.Forbiddenf("admin disabled"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) playerIDFromContext(r *http.Request) (string, bool) {
	id, ok := r.Context().Value(playerIDKey{}).(string)
	return id, ok
}
