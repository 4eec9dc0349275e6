// cmd/server/server.go
package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/codr1/PitchMatch/internal/api"
	eventsapi "github.com/codr1/PitchMatch/internal/api/events"
	fieldsapi "github.com/codr1/PitchMatch/internal/api/fields"
	pitchapi "github.com/codr1/PitchMatch/internal/api/pitch"
	"github.com/codr1/PitchMatch/internal/config"
)

func newServer(cfg *config.Config, a *app) *http.Server {
	router := chi.NewRouter()

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
		api.WithContentType,
	)

	// Register routes
	registerRoutes(router, cfg, a)

	return &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.App.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// No WriteTimeout: toast streams and pitch websockets stay open.
		IdleTimeout: 60 * time.Second,
	}
}

func registerRoutes(r chi.Router, cfg *config.Config, a *app) {
	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	eventsapi.NewHandler(a.events, eventsapi.Options{
		Limiter:    a.limiter,
		TrustProxy: cfg.RateLimit.TrustProxy,
		Toasts:     a.toasts,
		Rooms:      a.rooms,
	}).RegisterRoutes(r)

	pitchapi.NewHandler(a.rooms, a.events, sameOrigin(cfg.App.BaseURL)).RegisterRoutes(r)
	fieldsapi.NewHandler(a.fields).RegisterRoutes(r)
}
