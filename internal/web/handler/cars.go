package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/gridrace/internal/model"
	"github.com/mcoot/gridrace/internal/services/car"
	"github.com/mcoot/gridrace/internal/web/templates/pages"
)

var carTypes = []model.CarType{model.CarTypeNormal, model.CarTypeRacer, model.CarTypeMonsterTruck}

// CarHandler handles the car pages
type CarHandler struct {
	carService *car.Service
}

// NewCarHandler creates a new CarHandler
func NewCarHandler(carService *car.Service) *CarHandler {
	return &CarHandler{carService: carService}
}

// List renders the garage
func (h *CarHandler) List(w http.ResponseWriter, r *http.Request) {
	cars, err := h.carService.List(r.Context())
	if err != nil {
		renderFailure(w, r, err)
		return
	}

	rows := make([]pages.CarRow, 0, len(cars))
	for _, c := range cars {
		row := pages.CarRow{
			Name:    c.Name,
			Type:    string(c.Type),
			State:   carState(c),
			Crashed: c.Crashed,
		}
		if id, ok := h.carService.CurrentGame(c.Name); ok {
			row.GameID = id
		}
		rows = append(rows, row)
	}

	render(w, r, pages.Cars(pages.CarsData{
		PageData: pageData(r, "Cars"),
		Cars:     rows,
		Types:    carTypes,
	}))
}

// Create handles the new car form
func (h *CarHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirect(w, r, "/cars", "error", "Invalid form data")
		return
	}
	carType, err := model.ParseCarType(r.FormValue("type"))
	if err != nil {
		redirect(w, r, "/cars", "error", "Unknown car type")
		return
	}

	c, err := h.carService.Create(r.Context(), strings.TrimSpace(r.FormValue("name")), carType)
	if err != nil {
		redirect(w, r, "/cars", "error", "Could not create car: "+err.Error())
		return
	}
	redirect(w, r, "/cars", "success", "Car "+c.Name+" created")
}

// Delete removes a car that is not racing
func (h *CarHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := h.carService.Delete(r.Context(), name); err != nil {
		redirect(w, r, "/cars", "error", "Could not delete car: "+err.Error())
		return
	}
	redirect(w, r, "/cars", "success", "Car "+name+" deleted")
}

// Repair makes a crashed car usable again
func (h *CarHandler) Repair(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if _, err := h.carService.Repair(r.Context(), name); err != nil {
		redirect(w, r, "/cars", "error", "Could not repair car: "+err.Error())
		return
	}
	redirect(w, r, "/cars", "success", "Car "+name+" repaired")
}

func carState(c *model.Car) string {
	switch {
	case c.Crashed:
		return "crashed"
	case c.Used:
		return "racing"
	default:
		return "ready"
	}
}
