package handler

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/mcoot/gridrace/internal/model"
	"github.com/mcoot/gridrace/internal/services/game"
	"github.com/mcoot/gridrace/internal/telemetry"
)

// StreamHandler serves live game events over SSE and WebSocket.
// Game id 0 streams the events of every game.
type StreamHandler struct {
	gameController *game.Controller
	hubManager     *telemetry.HubManager
	logger         *slog.Logger
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(gameController *game.Controller, hubManager *telemetry.HubManager, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{
		gameController: gameController,
		hubManager:     hubManager,
		logger:         logger.With(slog.String("component", "stream")),
	}
}

// Events handles GET /api/v1/games/{id}/events
func (h *StreamHandler) Events(w http.ResponseWriter, r *http.Request) {
	hub, ok := h.hub(w, r)
	if !ok {
		return
	}
	telemetry.ServeSSE(w, r, hub, uuid.NewString())
}

// WebSocket handles GET /api/v1/games/{id}/ws
func (h *StreamHandler) WebSocket(w http.ResponseWriter, r *http.Request) {
	hub, ok := h.hub(w, r)
	if !ok {
		return
	}
	telemetry.ServeWS(w, r, hub, uuid.NewString(), h.logger)
}

// hub returns the hub of a running game, writing an error response if there is none
func (h *StreamHandler) hub(w http.ResponseWriter, r *http.Request) (*telemetry.Hub, bool) {
	id, ok := gameIDFromPath(w, r)
	if !ok {
		return nil, false
	}
	if id == telemetry.AllGames {
		return h.hubManager.GetOrCreateHub(telemetry.AllGames), true
	}

	g, err := h.gameController.Get(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return nil, false
	}
	if g.Status != model.GameStatusRunning {
		WriteError(w, model.ErrGameNotRunning)
		return nil, false
	}
	return h.hubManager.GetOrCreateHub(id), true
}
