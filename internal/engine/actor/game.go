package actor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mcoot/gridrace/internal/dependencies/clock"
	"github.com/mcoot/gridrace/internal/dependencies/random"
	"github.com/mcoot/gridrace/internal/engine/grid"
	"github.com/mcoot/gridrace/internal/engine/queue"
	"github.com/mcoot/gridrace/internal/model"
)

// GameConfig holds the settings of a running game
type GameConfig struct {
	ID           model.GameID
	Name         string
	Roads        [][]int
	IdleTimeout  time.Duration // Game closes when no command arrives for this long
	HistoryDelay time.Duration // Pause between rewind steps
	Upstream     EventSink
	Clock        clock.Clock
	Random       random.Random
	Logger       *slog.Logger
}

// Game owns a grid and the cars racing on it.
//
// A command loop routes commands to cars and closes the game once it has been
// idle for IdleTimeout. An event loop collects the cars' event batches,
// retires destroyed cars and forwards events upstream.
type Game struct {
	cfg      GameConfig
	grid     *grid.Grid
	logger   *slog.Logger
	commands *queue.Queue[Command]
	events   *queue.Queue[[]model.Event]

	mu       sync.RWMutex
	cars     map[string]*Car
	started  atomic.Bool
	carLoops errgroup.Group
	carCtx   context.Context

	stop         context.CancelFunc
	stopEvents   context.CancelFunc
	eventsDone   chan struct{}
	commandsDone chan struct{}
	closeOnce    sync.Once
}

// NewGame builds a game and its grid. Call Start to run it.
func NewGame(cfg GameConfig) (*Game, error) {
	g, err := grid.New(cfg.Roads, cfg.Clock)
	if err != nil {
		return nil, err
	}
	return &Game{
		cfg:  cfg,
		grid: g,
		logger: cfg.Logger.With(
			slog.String("component", "game"),
			slog.Int64("game_id", int64(cfg.ID)),
			slog.String("game", cfg.Name),
		),
		commands:     queue.New[Command](),
		events:       queue.New[[]model.Event](),
		cars:         make(map[string]*Car),
		eventsDone:   make(chan struct{}),
		commandsDone: make(chan struct{}),
	}, nil
}

func (g *Game) ID() model.GameID { return g.cfg.ID }
func (g *Game) Name() string     { return g.cfg.Name }
func (g *Game) Grid() *grid.Grid { return g.grid }

// Running returns true until the game has closed
func (g *Game) Running() bool {
	return g.started.Load()
}

// Done is closed once the game has fully closed
func (g *Game) Done() <-chan struct{} {
	return g.commandsDone
}

// Start launches the command and event loops
func (g *Game) Start(ctx context.Context) {
	cmdCtx, stop := context.WithCancel(ctx)
	eventsCtx, stopEvents := context.WithCancel(context.WithoutCancel(ctx))
	g.stop = stop
	g.stopEvents = stopEvents
	// Cars outlive a cancelled parent so they can still drain STOP_ENGINE
	g.carCtx = context.WithoutCancel(ctx)
	g.started.Store(true)

	go g.runCommands(cmdCtx)
	go g.runEvents(eventsCtx)
	g.logger.Info("game started", slog.Duration("idle_timeout", g.cfg.IdleTimeout))
}

// Stop closes the game without waiting for the idle timeout
func (g *Game) Stop(ctx context.Context) error {
	if g.stop != nil {
		g.stop()
	}
	select {
	case <-g.commandsDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Handle queues a command for routing to a car
func (g *Game) Handle(cmd Command) {
	g.commands.Push(cmd, cmd.Priority)
}

// Publish receives event batches from the game's cars
func (g *Game) Publish(events []model.Event) {
	g.events.Push(events, 0)
}

// AddCar places a car on the grid and starts its loop. A nil position picks
// a random free road cell.
func (g *Game) AddCar(name string, t model.CarType, pos *model.Position) (model.Event, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.started.Load() {
		return model.Event{}, fmt.Errorf("%w: %s", model.ErrGameNotRunning, g.cfg.Name)
	}
	if _, ok := g.cars[name]; ok {
		return model.Event{}, fmt.Errorf("%w: %s", model.ErrCarIsBeingUsedInGame, name)
	}

	var at model.Position
	if pos != nil {
		at = *pos
	} else {
		var err error
		if at, err = g.grid.RandomEmptyPosition(g.cfg.Random); err != nil {
			return model.Event{}, err
		}
	}

	added, err := g.grid.AddObject(at, grid.NewCar(name, t))
	if err != nil {
		return model.Event{}, err
	}

	car := NewCar(name, t, CarConfig{
		Grid:         g.grid,
		Sink:         g,
		Clock:        g.cfg.Clock,
		HistoryDelay: g.cfg.HistoryDelay,
		Logger:       g.logger,
	})
	if err := car.Start(g.carCtx, &g.carLoops); err != nil {
		g.grid.RemoveObject(name)
		return model.Event{}, err
	}
	g.cars[name] = car

	added.GameID = g.cfg.ID
	g.cfg.Upstream.Publish([]model.Event{added})
	g.logger.Info("car added",
		slog.String("car", name),
		slog.String("type", string(t)),
		slog.String("position", at.String()),
	)
	return added, nil
}

// RemoveCar stops a car and takes it off the grid
func (g *Game) RemoveCar(name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.started.Load() {
		return fmt.Errorf("%w: %s", model.ErrGameNotRunning, g.cfg.Name)
	}
	car, ok := g.cars[name]
	if !ok {
		return fmt.Errorf("%w: %s", model.ErrCarNotFoundInGame, name)
	}

	car.Send(StopEngine(name))
	delete(g.cars, name)

	events := g.grid.RemoveObject(name)
	g.stamp(events)
	if len(events) > 0 {
		g.cfg.Upstream.Publish(events)
	}
	g.logger.Info("car removed", slog.String("car", name))
	return nil
}

// Car returns a car by name
func (g *Game) Car(name string) (*Car, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	car, ok := g.cars[name]
	return car, ok
}

// CarNames returns the names of the cars in the game, sorted
func (g *Game) CarNames() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	names := make([]string, 0, len(g.cars))
	for name := range g.cars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CarMaxDistance returns the longest single move a car can make
func (g *Game) CarMaxDistance(name string) (int, bool) {
	m, ok := g.grid.Movable(name)
	if !ok {
		return 0, false
	}
	return m.Strategy().MaxDistance(), true
}

// Snapshot returns the state of every car still on the grid.
// Coordinates are 0-indexed.
func (g *Game) Snapshot() []model.CarStatus {
	g.mu.RLock()
	defer g.mu.RUnlock()

	statuses := make([]model.CarStatus, 0, len(g.cars))
	for name, car := range g.cars {
		m, ok := g.grid.Movable(name)
		if !ok {
			continue
		}
		pos, ok := g.grid.PositionOf(name)
		if !ok {
			continue
		}
		statuses = append(statuses, model.CarStatus{
			Name:      name,
			X:         pos.X - 1,
			Y:         pos.Y - 1,
			Direction: m.Direction(),
			Reverting: car.Reverting(),
		})
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	return statuses
}

func (g *Game) runCommands(ctx context.Context) {
	defer close(g.commandsDone)

	for {
		cmd, err := g.commands.Poll(ctx, g.cfg.IdleTimeout)
		if errors.Is(err, queue.ErrPollTimeout) {
			g.logger.Info("no commands within idle timeout, closing game")
			g.close()
			return
		}
		if err != nil {
			g.logger.Info("game stopped", slog.String("reason", err.Error()))
			g.close()
			return
		}

		if cmd.Kind == CommandBlank {
			continue
		}
		car, ok := g.Car(cmd.Car)
		if !ok {
			g.logger.Debug("dropping command for unknown car",
				slog.String("car", cmd.Car),
				slog.String("command", string(cmd.Kind)),
			)
			continue
		}
		car.Send(cmd)
	}
}

func (g *Game) runEvents(ctx context.Context) {
	defer close(g.eventsDone)

	for {
		batch, err := g.events.Take(ctx)
		if err != nil {
			for {
				batch, ok := g.events.TryPop()
				if !ok {
					return
				}
				g.handleEvents(batch)
			}
		}
		g.handleEvents(batch)
	}
}

func (g *Game) handleEvents(batch []model.Event) {
	upstream := make([]model.Event, 0, len(batch))
	for _, e := range batch {
		switch e.Type {
		case model.EventObjectDestroyed:
			g.retire(e.Object)
			e.GameID = g.cfg.ID
			upstream = append(upstream, e)
		case model.EventHistoryInProgress:
			g.Handle(Blank())
		case model.EventObjectMoved, model.EventObjectTurned, model.EventBackedInHistory:
			e.GameID = g.cfg.ID
			upstream = append(upstream, e)
		}
	}
	if len(upstream) > 0 {
		g.cfg.Upstream.Publish(upstream)
	}
}

// retire stops a destroyed car and forgets it
func (g *Game) retire(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	car, ok := g.cars[name]
	if !ok {
		return
	}
	if car.Running() {
		car.Send(Destroy(name))
	}
	delete(g.cars, name)
}

func (g *Game) close() {
	g.closeOnce.Do(func() {
		g.mu.Lock()
		g.started.Store(false)
		cars := make([]*Car, 0, len(g.cars))
		for _, car := range g.cars {
			cars = append(cars, car)
		}
		g.mu.Unlock()

		for _, car := range cars {
			car.Send(StopEngine(car.Name()))
		}
		_ = g.carLoops.Wait()

		g.stopEvents()
		<-g.eventsDone

		g.cfg.Upstream.Publish([]model.Event{{
			Type:      model.EventGameClosed,
			Timestamp: g.cfg.Clock.Now(),
			GameID:    g.cfg.ID,
			Payload:   model.GameClosedPayload{GameName: g.cfg.Name},
		}})
		g.logger.Info("game closed", slog.Int("cars_stopped", len(cars)))
	})
}

func (g *Game) stamp(events []model.Event) {
	for i := range events {
		events[i].GameID = g.cfg.ID
	}
}
