package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/mcoot/gridrace/internal/model"
	"github.com/mcoot/gridrace/internal/services/car"
	"github.com/mcoot/gridrace/internal/services/game"
	"github.com/mcoot/gridrace/internal/services/gamemap"
	"github.com/mcoot/gridrace/internal/web/templates/components"
	"github.com/mcoot/gridrace/internal/web/templates/pages"
)

// GameHandler handles the game list and game detail pages
type GameHandler struct {
	gameController *game.Controller
	carService     *car.Service
	mapService     *gamemap.Service
}

// NewGameHandler creates a new GameHandler
func NewGameHandler(gameController *game.Controller, carService *car.Service, mapService *gamemap.Service) *GameHandler {
	return &GameHandler{
		gameController: gameController,
		carService:     carService,
		mapService:     mapService,
	}
}

// List renders games, optionally filtered by ?status=
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	status := model.GameStatus(strings.ToUpper(r.URL.Query().Get("status")))
	var statuses []model.GameStatus
	switch status {
	case model.GameStatusRunning, model.GameStatusFinished, model.GameStatusInterrupted:
		statuses = append(statuses, status)
	default:
		status = ""
	}

	games, err := h.gameController.List(r.Context(), statuses...)
	if err != nil {
		renderFailure(w, r, err)
		return
	}
	maps, err := h.mapService.List(r.Context())
	if err != nil {
		renderFailure(w, r, err)
		return
	}
	var active []string
	for _, m := range maps {
		if m.Status == model.MapStatusActive {
			active = append(active, m.Name)
		}
	}

	render(w, r, pages.Games(pages.GamesData{
		PageData: pageData(r, "Games"),
		Games:    games,
		Maps:     active,
		Status:   string(status),
	}))
}

// Start handles the start game form
func (h *GameHandler) Start(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirect(w, r, "/games", "error", "Invalid form data")
		return
	}

	g, err := h.gameController.Start(r.Context(), r.FormValue("name"), r.FormValue("map"))
	if err != nil {
		redirect(w, r, "/games", "error", "Could not start game: "+err.Error())
		return
	}
	redirect(w, r, gamePath(g.ID), "success", "Game "+g.Name+" started")
}

// View renders a game. A running game also shows its board and the add car form.
func (h *GameHandler) View(w http.ResponseWriter, r *http.Request) {
	id, ok := gameIDFromPath(r)
	if !ok {
		renderFailure(w, r, model.ErrGameNotFound)
		return
	}
	g, err := h.gameController.Get(r.Context(), id)
	if err != nil {
		renderFailure(w, r, err)
		return
	}

	data := pages.GameData{
		PageData: pageData(r, "Game "+g.Name),
		Game:     g,
	}
	if g.Status == model.GameStatusRunning {
		if board, err := liveBoard(r, h.gameController, h.mapService, g, ""); err == nil {
			data.Running = true
			data.Board = board
		}
	}
	if data.Running {
		cars, err := h.carService.List(r.Context())
		if err != nil {
			renderFailure(w, r, err)
			return
		}
		for _, c := range cars {
			if !c.Used && !c.Crashed {
				data.ReadyCars = append(data.ReadyCars, c.Name)
			}
		}
	}

	render(w, r, pages.Game(data))
}

// AddCar handles the add car form. Without both coordinates the car gets a random cell.
func (h *GameHandler) AddCar(w http.ResponseWriter, r *http.Request) {
	id, ok := gameIDFromPath(r)
	if !ok {
		renderFailure(w, r, model.ErrGameNotFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		redirect(w, r, gamePath(id), "error", "Invalid form data")
		return
	}

	name := r.FormValue("car")
	var pos *model.Position
	if xs, ys := r.FormValue("x"), r.FormValue("y"); xs != "" || ys != "" {
		x, errX := strconv.Atoi(xs)
		y, errY := strconv.Atoi(ys)
		if errX != nil || errY != nil {
			redirect(w, r, gamePath(id), "error", "Give both x and y, or neither")
			return
		}
		pos = &model.Position{X: x, Y: y}
	}

	if _, err := h.gameController.AddCar(r.Context(), id, name, pos); err != nil {
		redirect(w, r, gamePath(id), "error", "Could not add car: "+err.Error())
		return
	}
	redirect(w, r, runPath(id, name), "success", name+" joined the game")
}

// liveBoard draws a running game from its map and the engine's snapshot
func liveBoard(r *http.Request, games *game.Controller, maps *gamemap.Service, g *model.Game, own string) (components.BoardView, error) {
	m, err := maps.Get(r.Context(), g.MapName)
	if err != nil {
		return components.BoardView{}, err
	}
	cars, err := games.Snapshot(r.Context(), g.ID)
	if err != nil {
		return components.BoardView{}, err
	}
	return components.NewBoardView(m.Roads, cars, own), nil
}
