package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/gridrace/internal/services/gamemap"
	"github.com/mcoot/gridrace/internal/web/templates/components"
	"github.com/mcoot/gridrace/internal/web/templates/pages"
)

// MapHandler handles the map pages
type MapHandler struct {
	mapService *gamemap.Service
}

// NewMapHandler creates a new MapHandler
func NewMapHandler(mapService *gamemap.Service) *MapHandler {
	return &MapHandler{mapService: mapService}
}

// List renders every map, deleted ones included
func (h *MapHandler) List(w http.ResponseWriter, r *http.Request) {
	maps, err := h.mapService.List(r.Context())
	if err != nil {
		renderFailure(w, r, err)
		return
	}
	render(w, r, pages.Maps(pages.MapsData{
		PageData: pageData(r, "Maps"),
		Maps:     maps,
	}))
}

// View renders a map's grid
func (h *MapHandler) View(w http.ResponseWriter, r *http.Request) {
	m, err := h.mapService.Get(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		renderFailure(w, r, err)
		return
	}
	render(w, r, pages.Map(pages.MapData{
		PageData: pageData(r, "Map "+m.Name),
		Map:      m,
		Board:    components.NewBoardView(m.Roads, nil, ""),
	}))
}

// Upload handles the upload form. Roads are typed as CSV rows.
func (h *MapHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirect(w, r, "/maps", "error", "Invalid form data")
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		redirect(w, r, "/maps", "error", "A map needs a name")
		return
	}

	m, err := h.mapService.Upload(r.Context(), name, strings.NewReader(r.FormValue("roads")))
	if err != nil {
		redirect(w, r, "/maps", "error", "Could not upload map: "+err.Error())
		return
	}
	redirect(w, r, mapPath(m.Name), "success", "Map "+m.Name+" uploaded")
}

// Delete marks a map deleted
func (h *MapHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := h.mapService.Delete(r.Context(), name); err != nil {
		redirect(w, r, "/maps", "error", "Could not delete map: "+err.Error())
		return
	}
	redirect(w, r, "/maps", "success", "Map "+name+" deleted")
}
