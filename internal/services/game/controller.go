package game

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mcoot/gridrace/internal/dependencies/clock"
	"github.com/mcoot/gridrace/internal/engine/manager"
	"github.com/mcoot/gridrace/internal/model"
	"github.com/mcoot/gridrace/internal/services/car"
	"github.com/mcoot/gridrace/internal/services/gamemap"
	"github.com/mcoot/gridrace/internal/storage"
)

// Controller manages the persisted lifecycle of games and keeps it in step
// with the engine
type Controller struct {
	storage    storage.Storage
	manager    *manager.Manager
	carService *car.Service
	mapService *gamemap.Service
	clock      clock.Clock
	logger     *slog.Logger

	// Serialises game record updates and game starts
	mu sync.Mutex
}

// NewController creates a new game Controller
func NewController(
	storage storage.Storage,
	mgr *manager.Manager,
	carService *car.Service,
	mapService *gamemap.Service,
	clock clock.Clock,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage:    storage,
		manager:    mgr,
		carService: carService,
		mapService: mapService,
		clock:      clock,
		logger:     logger.With(slog.String("component", "game_controller")),
	}
}

// Start creates a game on a map and starts it in the engine.
// An empty name uses the map's name.
func (c *Controller) Start(ctx context.Context, name, mapName string) (*model.Game, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = mapName
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.manager.IsGameRunning(name) {
		return nil, fmt.Errorf("%w: %s", model.ErrGameAlreadyRunning, name)
	}

	m, err := c.mapService.GetActive(ctx, mapName)
	if err != nil {
		return nil, err
	}

	game := &model.Game{
		Name:      name,
		MapName:   m.Name,
		Status:    model.GameStatusRunning,
		StartedAt: c.clock.Now(),
	}
	if err := c.storage.CreateGame(ctx, game); err != nil {
		c.logger.Error("failed to save game",
			slog.String("game", name),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	if _, err := c.manager.StartGame(game.ID, game.Name, m.Roads); err != nil {
		c.markInterrupted(ctx, game)
		return nil, err
	}

	c.logger.Info("game started",
		slog.Int64("game_id", int64(game.ID)),
		slog.String("game", name),
		slog.String("map", m.Name),
		slog.Int("size", m.Size),
	)
	return game, nil
}

// Get returns a stored game
func (c *Controller) Get(ctx context.Context, id model.GameID) (*model.Game, error) {
	return c.storage.GetGame(ctx, id)
}

// List returns the stored games with any of the statuses, or all games
func (c *Controller) List(ctx context.Context, statuses ...model.GameStatus) ([]*model.Game, error) {
	return c.storage.ListGames(ctx, statuses...)
}

// Running returns the games currently live in the engine
func (c *Controller) Running(ctx context.Context) ([]*model.Game, error) {
	ids := c.manager.GameIDs()
	games := make([]*model.Game, 0, len(ids))
	for _, id := range ids {
		g, err := c.storage.GetGame(ctx, id)
		if err != nil {
			continue
		}
		games = append(games, g)
	}
	return games, nil
}

// AddCar puts a stored car into a running game. A nil position picks a
// random empty cell.
func (c *Controller) AddCar(ctx context.Context, id model.GameID, carName string, pos *model.Position) (*model.Game, error) {
	carModel, err := c.carService.Get(ctx, carName)
	if err != nil {
		return nil, err
	}
	if carModel.Crashed {
		return nil, model.ErrCarCrashed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	game, err := c.runningGame(ctx, id)
	if err != nil {
		return nil, err
	}

	added, err := c.manager.AddCarToGame(id, carModel.Name, carModel.Type, pos)
	if err != nil {
		return nil, err
	}
	if err := c.carService.MarkUsed(ctx, carModel.Name); err != nil {
		c.undoAddCar(id, carModel.Name)
		return nil, err
	}

	if !game.HasCar(carModel.Name) {
		game.Cars = append(game.Cars, carModel.Name)
		if err := c.storage.SaveGame(ctx, game); err != nil {
			c.undoAddCar(id, carModel.Name)
			if !carModel.Used {
				if relErr := c.carService.Release(ctx, carModel.Name); relErr != nil {
					c.logger.Warn("failed to release car after aborted add",
						slog.String("car", carModel.Name),
						slog.String("error", relErr.Error()),
					)
				}
			}
			return nil, err
		}
	}

	payload := added.Payload.(model.ObjectAddedPayload)
	c.logger.Info("car added to game",
		slog.Int64("game_id", int64(id)),
		slog.String("car", carModel.Name),
		slog.String("position", payload.Position.String()),
	)
	return game, nil
}

// undoAddCar takes a car back off the grid when recording it failed
func (c *Controller) undoAddCar(id model.GameID, carName string) {
	if err := c.manager.RemoveCar(id, carName); err != nil {
		c.logger.Warn("failed to undo car add",
			slog.Int64("game_id", int64(id)),
			slog.String("car", carName),
			slog.String("error", err.Error()),
		)
	}
}

// RemoveCar takes a car out of a running game and releases it
func (c *Controller) RemoveCar(ctx context.Context, id model.GameID, carName string) error {
	carModel, err := c.carService.Get(ctx, carName)
	if err != nil {
		return err
	}
	if carModel.Crashed {
		return model.ErrCarCrashed
	}
	if _, err := c.runningGame(ctx, id); err != nil {
		return err
	}

	if err := c.manager.RemoveCar(id, carName); err != nil {
		return err
	}
	if err := c.carService.Release(ctx, carName); err != nil {
		return err
	}

	c.logger.Info("car removed from game",
		slog.Int64("game_id", int64(id)),
		slog.String("car", carName),
	)
	return nil
}

// Snapshot returns the live state of the cars in a running game
func (c *Controller) Snapshot(ctx context.Context, id model.GameID) ([]model.CarStatus, error) {
	if _, err := c.storage.GetGame(ctx, id); err != nil {
		return nil, err
	}
	return c.manager.Snapshot(id)
}

// Finish marks a running game finished and releases its cars.
// Cars that have since joined another game keep their used flag.
func (c *Controller) Finish(ctx context.Context, id model.GameID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	game, err := c.storage.GetGame(ctx, id)
	if err != nil {
		return err
	}
	if game.Status != model.GameStatusRunning {
		return nil
	}

	now := c.clock.Now()
	game.Status = model.GameStatusFinished
	game.FinishedAt = &now
	if err := c.storage.SaveGame(ctx, game); err != nil {
		return err
	}

	c.releaseCars(ctx, game)
	c.logger.Info("game finished",
		slog.Int64("game_id", int64(id)),
		slog.String("game", game.Name),
		slog.Int("cars", len(game.Cars)),
		slog.Duration("duration", c.clock.Since(game.StartedAt)),
	)
	return nil
}

// InterruptUnfinished marks games left running by a previous process as
// interrupted. Call it before the engine starts any game.
func (c *Controller) InterruptUnfinished(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	games, err := c.storage.ListGames(ctx, model.GameStatusRunning)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, game := range games {
		if c.manager.IsGameRunning(game.Name) {
			continue
		}
		if err := c.markInterrupted(ctx, game); err != nil {
			return count, err
		}
		c.releaseCars(ctx, game)
		count++
	}
	if count > 0 {
		c.logger.Info("interrupted unfinished games", slog.Int("count", count))
	}
	return count, nil
}

func (c *Controller) runningGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	game, err := c.storage.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}
	if game.Status != model.GameStatusRunning {
		return nil, fmt.Errorf("%w: %d", model.ErrGameNotActive, id)
	}
	return game, nil
}

func (c *Controller) markInterrupted(ctx context.Context, game *model.Game) error {
	now := c.clock.Now()
	game.Status = model.GameStatusInterrupted
	game.FinishedAt = &now
	if err := c.storage.SaveGame(ctx, game); err != nil {
		c.logger.Error("failed to mark game interrupted",
			slog.Int64("game_id", int64(game.ID)),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}

func (c *Controller) releaseCars(ctx context.Context, game *model.Game) {
	for _, name := range game.Cars {
		if other, inGame := c.carService.CurrentGame(name); inGame && other != game.ID {
			continue
		}
		if err := c.carService.Release(ctx, name); err != nil {
			c.logger.Warn("failed to release car",
				slog.String("car", name),
				slog.Int64("game_id", int64(game.ID)),
				slog.String("error", err.Error()),
			)
		}
	}
}
