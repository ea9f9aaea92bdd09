package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/mcoot/gridrace/internal/model"
	"github.com/mcoot/gridrace/internal/services/car"
	"github.com/mcoot/gridrace/internal/web/middleware"
	"github.com/mcoot/gridrace/internal/web/templates/pages"
)

// movementsPageLimit caps the rows shown on the movements page
const movementsPageLimit = 200

// MovementHandler handles the car movements page
type MovementHandler struct {
	carService *car.Service
}

// NewMovementHandler creates a new MovementHandler
func NewMovementHandler(carService *car.Service) *MovementHandler {
	return &MovementHandler{carService: carService}
}

// List renders recorded movements, newest first, filtered by ?car= and ?game=
func (h *MovementHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := pages.MovementsData{
		PageData: pageData(r, "Car Movements"),
		Car:      strings.TrimSpace(q.Get("car")),
		GameID:   strings.TrimSpace(q.Get("game")),
	}

	filter := model.MoveFilter{Limit: movementsPageLimit}
	if data.Car != "" {
		filter.Cars = []string{data.Car}
	}
	if data.GameID != "" {
		id, err := strconv.ParseInt(data.GameID, 10, 64)
		if err != nil || id <= 0 {
			middleware.RenderError(w, r, http.StatusBadRequest, "Game must be a number")
			return
		}
		filter.GameIDs = []model.GameID{model.GameID(id)}
	}

	moves, err := h.carService.Movements(r.Context(), filter)
	if err != nil {
		renderFailure(w, r, err)
		return
	}
	data.Moves = moves

	render(w, r, pages.Movements(data))
}
