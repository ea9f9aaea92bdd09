package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/gridrace/internal/api/request"
	"github.com/mcoot/gridrace/internal/api/response"
	"github.com/mcoot/gridrace/internal/services/gamemap"
)

// MapHandler handles map-related endpoints
type MapHandler struct {
	mapService *gamemap.Service
}

// NewMapHandler creates a new map handler
func NewMapHandler(mapService *gamemap.Service) *MapHandler {
	return &MapHandler{
		mapService: mapService,
	}
}

// Upload handles POST /api/v1/maps
func (h *MapHandler) Upload(w http.ResponseWriter, r *http.Request) {
	var req request.UploadMapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Name == "" {
		WriteError(w, NewInvalidRequestError("name is required"))
		return
	}
	if strings.TrimSpace(req.CSV) == "" {
		WriteError(w, NewInvalidRequestError("csv is required"))
		return
	}

	m, err := h.mapService.Upload(r.Context(), req.Name, strings.NewReader(req.CSV))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.GameMapFromModel(m, true))
}

// List handles GET /api/v1/maps
func (h *MapHandler) List(w http.ResponseWriter, r *http.Request) {
	maps, err := h.mapService.List(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.GameMapsFromModel(maps))
}

// Get handles GET /api/v1/maps/{name}
func (h *MapHandler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.mapService.Get(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.GameMapFromModel(m, true))
}

// Delete handles DELETE /api/v1/maps/{name}
func (h *MapHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.mapService.Delete(r.Context(), mux.Vars(r)["name"]); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}
