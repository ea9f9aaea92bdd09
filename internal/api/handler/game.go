package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/gridrace/internal/api/request"
	"github.com/mcoot/gridrace/internal/api/response"
	"github.com/mcoot/gridrace/internal/model"
	"github.com/mcoot/gridrace/internal/services/game"
)

// GameHandler handles game-related endpoints
type GameHandler struct {
	gameController *game.Controller
}

// NewGameHandler creates a new game handler
func NewGameHandler(gameController *game.Controller) *GameHandler {
	return &GameHandler{
		gameController: gameController,
	}
}

// Start handles POST /api/v1/games
func (h *GameHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req request.StartGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Map == "" {
		WriteError(w, NewInvalidRequestError("map is required"))
		return
	}

	g, err := h.gameController.Start(r.Context(), req.Name, req.Map)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.GameFromModel(g))
}

// List handles GET /api/v1/games?status=RUNNING,FINISHED
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	var statuses []model.GameStatus
	for _, v := range r.URL.Query()["status"] {
		for _, s := range strings.Split(v, ",") {
			status := model.GameStatus(strings.ToUpper(strings.TrimSpace(s)))
			switch status {
			case model.GameStatusRunning, model.GameStatusFinished, model.GameStatusInterrupted:
				statuses = append(statuses, status)
			case "":
			default:
				WriteError(w, NewInvalidRequestError("unknown game status: "+s))
				return
			}
		}
	}

	games, err := h.gameController.List(r.Context(), statuses...)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.GamesFromModel(games))
}

// Get handles GET /api/v1/games/{id}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := gameIDFromPath(w, r)
	if !ok {
		return
	}

	g, err := h.gameController.Get(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.GameFromModel(g))
}

// Snapshot handles GET /api/v1/games/{id}/snapshot
func (h *GameHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	id, ok := gameIDFromPath(w, r)
	if !ok {
		return
	}

	cars, err := h.gameController.Snapshot(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.SnapshotFromModel(id, cars))
}

// AddCar handles POST /api/v1/games/{id}/cars
func (h *GameHandler) AddCar(w http.ResponseWriter, r *http.Request) {
	id, ok := gameIDFromPath(w, r)
	if !ok {
		return
	}

	var req request.AddCarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Name == "" {
		WriteError(w, NewInvalidRequestError("name is required"))
		return
	}
	if (req.X == nil) != (req.Y == nil) {
		WriteError(w, NewInvalidRequestError("x and y must be given together"))
		return
	}
	var pos *model.Position
	if req.X != nil {
		pos = &model.Position{X: *req.X, Y: *req.Y}
	}

	g, err := h.gameController.AddCar(r.Context(), id, req.Name, pos)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.GameFromModel(g))
}

// RemoveCar handles DELETE /api/v1/games/{id}/cars/{name}
func (h *GameHandler) RemoveCar(w http.ResponseWriter, r *http.Request) {
	id, ok := gameIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.gameController.RemoveCar(r.Context(), id, mux.Vars(r)["name"]); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}

// gameIDFromPath parses the {id} path variable, writing an error response on failure
func gameIDFromPath(w http.ResponseWriter, r *http.Request) (model.GameID, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id < 0 {
		WriteError(w, NewInvalidRequestError("game id must be a number"))
		return 0, false
	}
	return model.GameID(id), true
}
