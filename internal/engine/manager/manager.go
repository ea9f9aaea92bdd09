// Package manager is the process-wide registry of running games. It is the
// only entry point the services use to drive the engine.
package manager

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/mcoot/gridrace/internal/dependencies/clock"
	"github.com/mcoot/gridrace/internal/dependencies/random"
	"github.com/mcoot/gridrace/internal/engine/actor"
	"github.com/mcoot/gridrace/internal/engine/queue"
	"github.com/mcoot/gridrace/internal/model"
)

// Listener receives the side effects of engine events
type Listener interface {
	CarCrashed(ctx context.Context, car string, gameID model.GameID) error
	GameClosed(ctx context.Context, gameID model.GameID) error
	StoreMovement(ctx context.Context, move model.CarMoveEvent) error
	// Publish is called for every event reaching the manager
	Publish(event model.Event)
}

// Config holds the engine-wide settings
type Config struct {
	IdleTimeout  time.Duration
	HistoryDelay time.Duration
	Clock        clock.Clock
	Random       random.Random
	Logger       *slog.Logger
}

// Manager tracks running games and which game each car is in.
// A car is in at most one running game at a time.
type Manager struct {
	cfg    Config
	logger *slog.Logger
	events *queue.Queue[[]model.Event]

	mu       sync.RWMutex
	games    map[string]*actor.Game
	carGames map[string]model.GameID

	ctx      context.Context
	stop     context.CancelFunc
	loopDone chan struct{}
}

// New creates a manager. Call Start before starting games.
func New(cfg Config) *Manager {
	return &Manager{
		cfg:      cfg,
		logger:   cfg.Logger.With(slog.String("component", "game_manager")),
		events:   queue.New[[]model.Event](),
		games:    make(map[string]*actor.Game),
		carGames: make(map[string]model.GameID),
		ctx:      context.Background(),
	}
}

// Start launches the event aggregation loop. Games started afterwards live
// until they idle out or ctx is cancelled.
func (m *Manager) Start(ctx context.Context, listener Listener) {
	loopCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	m.ctx = ctx
	m.stop = stop
	m.loopDone = make(chan struct{})
	go m.run(loopCtx, listener)
}

// Shutdown closes every running game, then stops the aggregation loop once
// their events have been handled.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.RLock()
	games := make([]*actor.Game, 0, len(m.games))
	for _, g := range m.games {
		games = append(games, g)
	}
	m.mu.RUnlock()

	for _, g := range games {
		if err := g.Stop(ctx); err != nil {
			return fmt.Errorf("stopping game %s: %w", g.Name(), err)
		}
	}

	if m.stop == nil {
		return nil
	}
	m.stop()
	select {
	case <-m.loopDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Publish receives event batches from games
func (m *Manager) Publish(events []model.Event) {
	m.events.Push(events, 0)
}

// StartGame creates and starts a game on the given road matrix
func (m *Manager) StartGame(id model.GameID, name string, roads [][]int) (*actor.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.games[name]; ok {
		return nil, fmt.Errorf("%w: %s", model.ErrGameAlreadyRunning, name)
	}

	g, err := actor.NewGame(actor.GameConfig{
		ID:           id,
		Name:         name,
		Roads:        roads,
		IdleTimeout:  m.cfg.IdleTimeout,
		HistoryDelay: m.cfg.HistoryDelay,
		Upstream:     m,
		Clock:        m.cfg.Clock,
		Random:       m.cfg.Random,
		Logger:       m.cfg.Logger,
	})
	if err != nil {
		return nil, err
	}
	g.Start(m.ctx)
	m.games[name] = g
	return g, nil
}

// IsGameRunning returns true if a game with the name is running
func (m *Manager) IsGameRunning(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.games[name]
	return ok
}

// GameIDs returns the ids of the running games, sorted
func (m *Manager) GameIDs() []model.GameID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]model.GameID, 0, len(m.games))
	for _, g := range m.games {
		ids = append(ids, g.ID())
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// GameByID returns a running game
func (m *Manager) GameByID(id model.GameID) (*actor.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gameByIDLocked(id)
}

// GameByCar returns the running game a car is in
func (m *Manager) GameByCar(car string) (*actor.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.carGames[car]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrCarNotInAnyGame, car)
	}
	g, err := m.gameByIDLocked(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", model.ErrCarNotInAnyGame, car)
	}
	return g, nil
}

// AddCarToGame puts a car into a running game
func (m *Manager) AddCarToGame(id model.GameID, car string, t model.CarType, pos *model.Position) (model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.carGames[car]; ok {
		return model.Event{}, fmt.Errorf("%w: %s", model.ErrCarIsBeingUsedInGame, car)
	}
	g, err := m.gameByIDLocked(id)
	if err != nil {
		return model.Event{}, err
	}

	added, err := g.AddCar(car, t, pos)
	if err != nil {
		return model.Event{}, err
	}
	m.carGames[car] = id
	return added, nil
}

// RemoveCar takes a car out of its game
func (m *Manager) RemoveCar(id model.GameID, car string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mapped, ok := m.carGames[car]; !ok || mapped != id {
		return fmt.Errorf("%w: %s in game %d", model.ErrCarNotFoundInGame, car, id)
	}
	g, err := m.gameByIDLocked(id)
	if err != nil {
		return err
	}
	if err := g.RemoveCar(car); err != nil {
		return err
	}
	delete(m.carGames, car)
	return nil
}

// MoveCarForward queues a forward move. A nil distance uses the car's maximum.
func (m *Manager) MoveCarForward(car string, distance *int) (model.GameID, error) {
	if distance != nil && *distance <= 0 {
		return 0, fmt.Errorf("%w: %d", model.ErrWrongDistanceValue, *distance)
	}
	g, err := m.GameByCar(car)
	if err != nil {
		return 0, err
	}
	if distance != nil {
		if maxDistance, ok := g.CarMaxDistance(car); ok && *distance > maxDistance {
			return 0, fmt.Errorf("%w: %s can move at most %d", model.ErrWrongDistanceValue, car, maxDistance)
		}
	}
	g.Handle(actor.MoveForward(car, distance))
	return g.ID(), nil
}

// TurnCarLeft queues a left turn
func (m *Manager) TurnCarLeft(car string) (model.GameID, error) {
	g, err := m.GameByCar(car)
	if err != nil {
		return 0, err
	}
	g.Handle(actor.TurnLeft(car))
	return g.ID(), nil
}

// TurnCarRight queues a right turn
func (m *Manager) TurnCarRight(car string) (model.GameID, error) {
	g, err := m.GameByCar(car)
	if err != nil {
		return 0, err
	}
	g.Handle(actor.TurnRight(car))
	return g.ID(), nil
}

// BackInHistory queues a rewind of the given moves, most recent first
func (m *Manager) BackInHistory(gameName, car string, moves []model.HistoryMove) error {
	if len(moves) == 0 {
		return model.ErrNoHistoricalMoves
	}

	m.mu.RLock()
	g, ok := m.games[gameName]
	mapped, inGame := m.carGames[car]
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", model.ErrGameNotRunning, gameName)
	}
	if !inGame || mapped != g.ID() {
		return fmt.Errorf("%w: %s in game %s", model.ErrCarNotFoundInGame, car, gameName)
	}
	g.Handle(actor.BackInHistory(car, moves))
	return nil
}

// Snapshot returns the live car states of a running game
func (m *Manager) Snapshot(id model.GameID) ([]model.CarStatus, error) {
	g, err := m.GameByID(id)
	if err != nil {
		return nil, err
	}
	return g.Snapshot(), nil
}

// CarNamesInGame returns the cars in a running game
func (m *Manager) CarNamesInGame(id model.GameID) ([]string, error) {
	g, err := m.GameByID(id)
	if err != nil {
		return nil, err
	}
	return g.CarNames(), nil
}

func (m *Manager) gameByIDLocked(id model.GameID) (*actor.Game, error) {
	for _, g := range m.games {
		if g.ID() == id {
			return g, nil
		}
	}
	return nil, fmt.Errorf("%w: %d", model.ErrGameNotActive, id)
}

func (m *Manager) run(ctx context.Context, listener Listener) {
	defer close(m.loopDone)

	for {
		batch, err := m.events.Take(ctx)
		if err != nil {
			for {
				batch, ok := m.events.TryPop()
				if !ok {
					return
				}
				m.handle(ctx, listener, batch)
			}
		}
		m.handle(ctx, listener, batch)
	}
}

func (m *Manager) handle(ctx context.Context, listener Listener, batch []model.Event) {
	// Listener calls must not be cut short by shutdown
	ctx = context.WithoutCancel(ctx)

	for _, e := range batch {
		var err error
		switch e.Type {
		case model.EventObjectDestroyed:
			if m.unmapCar(e.Object, e.GameID) {
				err = listener.CarCrashed(ctx, e.Object, e.GameID)
			}
		case model.EventGameClosed:
			m.unmapGame(e)
			err = listener.GameClosed(ctx, e.GameID)
		case model.EventObjectMoved:
			p := e.Payload.(model.ObjectMovedPayload)
			err = listener.StoreMovement(ctx, model.CarMoveEvent{
				Car:       e.Object,
				GameID:    e.GameID,
				Type:      model.MoveForward,
				Distance:  p.Distance(),
				Timestamp: e.Timestamp,
			})
		case model.EventObjectTurned:
			p := e.Payload.(model.ObjectTurnedPayload)
			moveType := model.MoveTurnLeft
			if p.Turn == model.TurnRight {
				moveType = model.MoveTurnRight
			}
			err = listener.StoreMovement(ctx, model.CarMoveEvent{
				Car:       e.Object,
				GameID:    e.GameID,
				Type:      moveType,
				Timestamp: e.Timestamp,
			})
		}
		if err != nil {
			m.logger.Error("event side effect failed",
				slog.String("event", string(e.Type)),
				slog.String("object", e.Object),
				slog.Int64("game_id", int64(e.GameID)),
				slog.String("error", err.Error()),
			)
		}
		listener.Publish(e)
	}
}

func (m *Manager) unmapCar(car string, id model.GameID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mapped, ok := m.carGames[car]; ok && mapped == id {
		delete(m.carGames, car)
		return true
	}
	return false
}

func (m *Manager) unmapGame(e model.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for car, id := range m.carGames {
		if id == e.GameID {
			delete(m.carGames, car)
		}
	}
	if p, ok := e.Payload.(model.GameClosedPayload); ok {
		if g, ok := m.games[p.GameName]; ok && g.ID() == e.GameID {
			delete(m.games, p.GameName)
		}
	}
	m.logger.Info("game unregistered", slog.Int64("game_id", int64(e.GameID)))
}
