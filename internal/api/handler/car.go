package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/gridrace/internal/api/request"
	"github.com/mcoot/gridrace/internal/api/response"
	"github.com/mcoot/gridrace/internal/model"
	"github.com/mcoot/gridrace/internal/services/car"
)

// CarHandler handles car-related endpoints
type CarHandler struct {
	carService *car.Service
}

// NewCarHandler creates a new car handler
func NewCarHandler(carService *car.Service) *CarHandler {
	return &CarHandler{
		carService: carService,
	}
}

// Create handles POST /api/v1/cars
func (h *CarHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateCarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Name == "" {
		WriteError(w, NewInvalidRequestError("name is required"))
		return
	}
	carType, err := model.ParseCarType(req.Type)
	if err != nil {
		WriteError(w, err)
		return
	}

	c, err := h.carService.Create(r.Context(), req.Name, carType)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.CarFromModel(c))
}

// List handles GET /api/v1/cars
func (h *CarHandler) List(w http.ResponseWriter, r *http.Request) {
	cars, err := h.carService.List(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.CarsFromModel(cars))
}

// Get handles GET /api/v1/cars/{name}
func (h *CarHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.carService.Get(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.CarFromModel(c))
}

// Delete handles DELETE /api/v1/cars/{name}
func (h *CarHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.carService.Delete(r.Context(), mux.Vars(r)["name"]); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}

// Repair handles POST /api/v1/cars/{name}/repair
func (h *CarHandler) Repair(w http.ResponseWriter, r *http.Request) {
	c, err := h.carService.Repair(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.CarFromModel(c))
}

// Forward handles POST /api/v1/cars/{name}/forward
func (h *CarHandler) Forward(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	// The body is optional
	var req request.MoveForwardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	gameID, err := h.carService.MoveForward(r.Context(), name, req.Distance)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusAccepted, response.CommandAccepted{Car: name, GameID: int64(gameID)})
}

// Left handles POST /api/v1/cars/{name}/left
func (h *CarHandler) Left(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	gameID, err := h.carService.TurnLeft(r.Context(), name)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusAccepted, response.CommandAccepted{Car: name, GameID: int64(gameID)})
}

// Right handles POST /api/v1/cars/{name}/right
func (h *CarHandler) Right(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	gameID, err := h.carService.TurnRight(r.Context(), name)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusAccepted, response.CommandAccepted{Car: name, GameID: int64(gameID)})
}

// Back handles POST /api/v1/cars/{name}/back
func (h *CarHandler) Back(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var req request.BackInHistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.GameID <= 0 {
		WriteError(w, NewInvalidRequestError("game_id is required"))
		return
	}

	gameID := model.GameID(req.GameID)
	if err := h.carService.BackInHistory(r.Context(), gameID, name, req.Moves); err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusAccepted, response.CommandAccepted{Car: name, GameID: req.GameID})
}

// Moves handles GET /api/v1/cars/{name}/moves?game_id=&limit=
func (h *CarHandler) Moves(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if _, err := h.carService.Get(r.Context(), name); err != nil {
		WriteError(w, err)
		return
	}

	filter := model.MoveFilter{Cars: []string{name}}
	query := r.URL.Query()
	if v := query.Get("game_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			WriteError(w, NewInvalidRequestError("game_id must be a number"))
			return
		}
		filter.GameIDs = []model.GameID{model.GameID(id)}
	}
	if v := query.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			WriteError(w, NewInvalidRequestError("limit must be a non-negative number"))
			return
		}
		filter.Limit = limit
	}

	moves, err := h.carService.Movements(r.Context(), filter)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.MoveEventsFromModel(moves))
}
