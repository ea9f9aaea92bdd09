// Package web serves the browser interface: maps, cars, games, car movements
// and a live board for driving a car in a running game.
package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/gridrace/internal/services/car"
	"github.com/mcoot/gridrace/internal/services/game"
	"github.com/mcoot/gridrace/internal/services/gamemap"
	"github.com/mcoot/gridrace/internal/telemetry"
	"github.com/mcoot/gridrace/internal/web/handler"
	"github.com/mcoot/gridrace/internal/web/middleware"
)

// RouterConfig holds configuration for the web router
type RouterConfig struct {
	Logger         *slog.Logger
	CarService     *car.Service
	MapService     *gamemap.Service
	GameController *game.Controller
	HubManager     *telemetry.HubManager
}

// NewRouter creates a new web router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	recoveryMiddleware := middleware.Recovery(cfg.Logger)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	flashMiddleware := middleware.Flash()

	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(flashMiddleware)

	mapHandler := handler.NewMapHandler(cfg.MapService)
	carHandler := handler.NewCarHandler(cfg.CarService)
	gameHandler := handler.NewGameHandler(cfg.GameController, cfg.CarService, cfg.MapService)
	movementHandler := handler.NewMovementHandler(cfg.CarService)
	runningHandler := handler.NewRunningHandler(cfg.GameController, cfg.CarService, cfg.MapService, cfg.HubManager, cfg.Logger)

	r.Handle("/", http.RedirectHandler("/maps", http.StatusFound)).Methods(http.MethodGet)

	// Maps
	r.HandleFunc("/maps", mapHandler.List).Methods(http.MethodGet)
	r.HandleFunc("/maps", mapHandler.Upload).Methods(http.MethodPost)
	r.HandleFunc("/maps/{name}", mapHandler.View).Methods(http.MethodGet)
	r.HandleFunc("/maps/{name}/delete", mapHandler.Delete).Methods(http.MethodPost)

	// Cars
	r.HandleFunc("/cars", carHandler.List).Methods(http.MethodGet)
	r.HandleFunc("/cars", carHandler.Create).Methods(http.MethodPost)
	r.HandleFunc("/cars/{name}/delete", carHandler.Delete).Methods(http.MethodPost)
	r.HandleFunc("/cars/{name}/repair", carHandler.Repair).Methods(http.MethodPost)

	// Games
	r.HandleFunc("/games", gameHandler.List).Methods(http.MethodGet)
	r.HandleFunc("/games", gameHandler.Start).Methods(http.MethodPost)
	r.HandleFunc("/games/{id:[0-9]+}", gameHandler.View).Methods(http.MethodGet)
	r.HandleFunc("/games/{id:[0-9]+}/cars", gameHandler.AddCar).Methods(http.MethodPost)

	// Car movements
	r.HandleFunc("/movements", movementHandler.List).Methods(http.MethodGet)

	// Running game
	r.HandleFunc("/run/{id:[0-9]+}/{name}", runningHandler.View).Methods(http.MethodGet)
	r.HandleFunc("/run/{id:[0-9]+}/{name}/events", runningHandler.Events).Methods(http.MethodGet)
	r.HandleFunc("/run/{id:[0-9]+}/{name}/forward", runningHandler.Forward).Methods(http.MethodPost)
	r.HandleFunc("/run/{id:[0-9]+}/{name}/left", runningHandler.Left).Methods(http.MethodPost)
	r.HandleFunc("/run/{id:[0-9]+}/{name}/right", runningHandler.Right).Methods(http.MethodPost)
	r.HandleFunc("/run/{id:[0-9]+}/{name}/back", runningHandler.Back).Methods(http.MethodPost)
	r.HandleFunc("/run/{id:[0-9]+}/{name}/leave", runningHandler.Leave).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		middleware.RenderError(w, req, http.StatusNotFound, "There is nothing at "+req.URL.Path)
	})

	return r
}
