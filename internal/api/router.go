package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/gridrace/internal/api/handler"
	"github.com/mcoot/gridrace/internal/api/middleware"
	"github.com/mcoot/gridrace/internal/services/car"
	"github.com/mcoot/gridrace/internal/services/game"
	"github.com/mcoot/gridrace/internal/services/gamemap"
	"github.com/mcoot/gridrace/internal/telemetry"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	CarService     *car.Service
	MapService     *gamemap.Service
	GameController *game.Controller
	HubManager     *telemetry.HubManager
	// MCPHandler is mounted at /mcp when set
	MCPHandler http.Handler
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	carHandler := handler.NewCarHandler(cfg.CarService)
	mapHandler := handler.NewMapHandler(cfg.MapService)
	gameHandler := handler.NewGameHandler(cfg.GameController)
	streamHandler := handler.NewStreamHandler(cfg.GameController, cfg.HubManager, cfg.Logger)

	// Create middleware
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Car routes
	api.HandleFunc("/cars", carHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/cars", carHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/cars/{name}", carHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/cars/{name}", carHandler.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/cars/{name}/repair", carHandler.Repair).Methods(http.MethodPost)
	api.HandleFunc("/cars/{name}/forward", carHandler.Forward).Methods(http.MethodPost)
	api.HandleFunc("/cars/{name}/left", carHandler.Left).Methods(http.MethodPost)
	api.HandleFunc("/cars/{name}/right", carHandler.Right).Methods(http.MethodPost)
	api.HandleFunc("/cars/{name}/back", carHandler.Back).Methods(http.MethodPost)
	api.HandleFunc("/cars/{name}/moves", carHandler.Moves).Methods(http.MethodGet)

	// Map routes
	api.HandleFunc("/maps", mapHandler.Upload).Methods(http.MethodPost)
	api.HandleFunc("/maps", mapHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/maps/{name}", mapHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/maps/{name}", mapHandler.Delete).Methods(http.MethodDelete)

	// Game routes
	api.HandleFunc("/games", gameHandler.Start).Methods(http.MethodPost)
	api.HandleFunc("/games", gameHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/games/{id:[0-9]+}", gameHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/games/{id:[0-9]+}/snapshot", gameHandler.Snapshot).Methods(http.MethodGet)
	api.HandleFunc("/games/{id:[0-9]+}/cars", gameHandler.AddCar).Methods(http.MethodPost)
	api.HandleFunc("/games/{id:[0-9]+}/cars/{name}", gameHandler.RemoveCar).Methods(http.MethodDelete)

	// Live streams
	api.HandleFunc("/games/{id:[0-9]+}/events", streamHandler.Events).Methods(http.MethodGet)
	api.HandleFunc("/games/{id:[0-9]+}/ws", streamHandler.WebSocket).Methods(http.MethodGet)

	// Health check endpoint
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	if cfg.MCPHandler != nil {
		r.PathPrefix("/mcp").Handler(middleware.Recovery(cfg.Logger)(cfg.MCPHandler))
	}

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
