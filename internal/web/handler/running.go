package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/mcoot/gridrace/internal/model"
	"github.com/mcoot/gridrace/internal/services/car"
	"github.com/mcoot/gridrace/internal/services/game"
	"github.com/mcoot/gridrace/internal/services/gamemap"
	"github.com/mcoot/gridrace/internal/telemetry"
	"github.com/mcoot/gridrace/internal/web/middleware"
	"github.com/mcoot/gridrace/internal/web/sse"
	"github.com/mcoot/gridrace/internal/web/templates/components"
	"github.com/mcoot/gridrace/internal/web/templates/pages"
)

// RunningHandler serves the page for driving a car in a running game
type RunningHandler struct {
	gameController *game.Controller
	carService     *car.Service
	mapService     *gamemap.Service
	hubManager     *telemetry.HubManager
	logger         *slog.Logger
}

// NewRunningHandler creates a new RunningHandler
func NewRunningHandler(gameController *game.Controller, carService *car.Service, mapService *gamemap.Service, hubManager *telemetry.HubManager, logger *slog.Logger) *RunningHandler {
	return &RunningHandler{
		gameController: gameController,
		carService:     carService,
		mapService:     mapService,
		hubManager:     hubManager,
		logger:         logger.With(slog.String("component", "web-board")),
	}
}

// View renders the live board with the driving controls
func (h *RunningHandler) View(w http.ResponseWriter, r *http.Request) {
	g, name, ok := h.runningCar(w, r)
	if !ok {
		return
	}
	board, err := liveBoard(r, h.gameController, h.mapService, g, name)
	if err != nil {
		redirect(w, r, gamePath(g.ID), "info", "Game "+g.Name+" is over")
		return
	}

	render(w, r, pages.Running(pages.RunningData{
		PageData: pageData(r, name+" in "+g.Name),
		Game:     g,
		Car:      name,
		Board:    board,
	}))
}

// Events streams the board as HTML after every change
func (h *RunningHandler) Events(w http.ResponseWriter, r *http.Request) {
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
	if g.Status != model.GameStatusRunning {
		middleware.RenderError(w, r, http.StatusNotFound, "Game "+g.Name+" is not running")
		return
	}
	m, err := h.mapService.Get(r.Context(), g.MapName)
	if err != nil {
		renderFailure(w, r, err)
		return
	}

	renderer := &boardRenderer{
		games: h.gameController,
		game:  g,
		roads: m.Roads,
		own:   mux.Vars(r)["name"],
	}
	sse.ServeBoard(w, r, h.hubManager.GetOrCreateHub(id), uuid.NewString(), renderer, h.logger)
}

// Forward queues a forward move. An empty distance moves as far as the car can.
func (h *RunningHandler) Forward(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, func(ctx context.Context, _ model.GameID, name string) error {
		var distance *int
		if v := r.FormValue("distance"); v != "" {
			d, err := strconv.Atoi(v)
			if err != nil {
				return model.ErrWrongDistanceValue
			}
			distance = &d
		}
		_, err := h.carService.MoveForward(ctx, name, distance)
		return err
	})
}

// Left queues a left turn
func (h *RunningHandler) Left(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, func(ctx context.Context, _ model.GameID, name string) error {
		_, err := h.carService.TurnLeft(ctx, name)
		return err
	})
}

// Right queues a right turn
func (h *RunningHandler) Right(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, func(ctx context.Context, _ model.GameID, name string) error {
		_, err := h.carService.TurnRight(ctx, name)
		return err
	})
}

// Back replays the car's last moves in reverse
func (h *RunningHandler) Back(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, func(ctx context.Context, id model.GameID, name string) error {
		// Unparseable counts as zero, which has no moves to back
		moves, _ := strconv.Atoi(r.FormValue("moves"))
		return h.carService.BackInHistory(ctx, id, name, moves)
	})
}

// Leave takes the car out of the game
func (h *RunningHandler) Leave(w http.ResponseWriter, r *http.Request) {
	id, ok := gameIDFromPath(r)
	if !ok {
		renderFailure(w, r, model.ErrGameNotFound)
		return
	}
	name := mux.Vars(r)["name"]
	if err := h.gameController.RemoveCar(r.Context(), id, name); err != nil {
		redirect(w, r, runPath(id, name), "error", "Could not leave: "+err.Error())
		return
	}
	redirect(w, r, gamePath(id), "success", name+" left the game")
}

// command runs a driving action. The board stream shows the result, so an
// htmx request just gets 204. Errors come back as a flash on the running page.
func (h *RunningHandler) command(w http.ResponseWriter, r *http.Request, run func(ctx context.Context, id model.GameID, name string) error) {
	id, ok := gameIDFromPath(r)
	if !ok {
		renderFailure(w, r, model.ErrGameNotFound)
		return
	}
	name := mux.Vars(r)["name"]
	back := runPath(id, name)

	if err := r.ParseForm(); err != nil {
		redirect(w, r, back, "error", "Invalid form data")
		return
	}

	err := run(r.Context(), id, name)
	htmx := r.Header.Get("HX-Request") == "true"
	switch {
	case err != nil && htmx:
		middleware.SetFlash(w, "error", capitalize(err.Error()))
		w.Header().Set("HX-Redirect", back)
		w.WriteHeader(http.StatusNoContent)
	case err != nil:
		redirect(w, r, back, "error", capitalize(err.Error()))
	case htmx:
		w.WriteHeader(http.StatusNoContent)
	default:
		redirect(w, r, back, "", "")
	}
}

// runningCar loads the game from the path and checks the car is in it.
// Otherwise it redirects to the game page.
func (h *RunningHandler) runningCar(w http.ResponseWriter, r *http.Request) (*model.Game, string, bool) {
	id, ok := gameIDFromPath(r)
	if !ok {
		renderFailure(w, r, model.ErrGameNotFound)
		return nil, "", false
	}
	g, err := h.gameController.Get(r.Context(), id)
	if err != nil {
		renderFailure(w, r, err)
		return nil, "", false
	}
	name := mux.Vars(r)["name"]
	if g.Status != model.GameStatusRunning {
		redirect(w, r, gamePath(id), "info", "Game "+g.Name+" is over")
		return nil, "", false
	}
	if current, ok := h.carService.CurrentGame(name); !ok || current != id {
		redirect(w, r, gamePath(id), "error", name+" is not racing in this game")
		return nil, "", false
	}
	return g, name, true
}

// boardRenderer draws the fragments for one board stream
type boardRenderer struct {
	games *game.Controller
	game  *model.Game
	roads [][]int
	own   string
}

func (b *boardRenderer) Board(ctx context.Context) (string, error) {
	cars, err := b.games.Snapshot(ctx, b.game.ID)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := components.Board(components.NewBoardView(b.roads, cars, b.own)).Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (b *boardRenderer) Closed(ctx context.Context) (string, error) {
	var buf bytes.Buffer
	if err := components.GameOver(b.game.Name).Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
