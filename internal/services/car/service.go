package car

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mcoot/gridrace/internal/engine/manager"
	"github.com/mcoot/gridrace/internal/model"
	"github.com/mcoot/gridrace/internal/storage"
)

// Service manages stored cars and drives them through the game manager
type Service struct {
	storage storage.Storage
	manager *manager.Manager
	logger  *slog.Logger

	// Serialises read-modify-write updates of stored cars
	mu sync.Mutex
}

// New creates a new car Service
func New(storage storage.Storage, mgr *manager.Manager, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		manager: mgr,
		logger:  logger.With(slog.String("component", "car_service")),
	}
}

// Create stores a new car
func (s *Service) Create(ctx context.Context, name string, carType model.CarType) (*model.Car, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.ErrNameRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.storage.GetCar(ctx, name); err == nil {
		return nil, model.ErrCarAlreadyExists
	}

	car := &model.Car{Name: name, Type: carType}
	if err := s.storage.SaveCar(ctx, car); err != nil {
		return nil, err
	}

	s.logger.Info("car created",
		slog.String("car", name),
		slog.String("type", string(carType)),
	)
	return car, nil
}

// Get returns a stored car
func (s *Service) Get(ctx context.Context, name string) (*model.Car, error) {
	return s.storage.GetCar(ctx, name)
}

// List returns all stored cars
func (s *Service) List(ctx context.Context) ([]*model.Car, error) {
	return s.storage.ListCars(ctx)
}

// GetMany returns the stored cars with the given names, skipping unknown ones
func (s *Service) GetMany(ctx context.Context, names []string) ([]*model.Car, error) {
	cars := make([]*model.Car, 0, len(names))
	for _, name := range names {
		car, err := s.storage.GetCar(ctx, name)
		if err != nil {
			continue
		}
		cars = append(cars, car)
	}
	return cars, nil
}

// CurrentGame returns the running game a car is in
func (s *Service) CurrentGame(name string) (model.GameID, bool) {
	g, err := s.manager.GameByCar(name)
	if err != nil {
		return 0, false
	}
	return g.ID(), true
}

// Delete removes a car that is not taking part in any game
func (s *Service) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	car, err := s.storage.GetCar(ctx, name)
	if err != nil {
		return err
	}
	if _, inGame := s.CurrentGame(name); car.Used || inGame {
		return model.ErrCarInUse
	}
	if err := s.storage.DeleteCar(ctx, name); err != nil {
		return err
	}

	s.logger.Info("car deleted", slog.String("car", name))
	return nil
}

// Repair makes a crashed car usable again
func (s *Service) Repair(ctx context.Context, name string) (*model.Car, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	car, err := s.storage.GetCar(ctx, name)
	if err != nil {
		return nil, err
	}
	if !car.Crashed {
		return nil, model.ErrCarNotCrashed
	}
	car.Crashed = false
	if err := s.storage.SaveCar(ctx, car); err != nil {
		return nil, err
	}

	s.logger.Info("car repaired", slog.String("car", name))
	return car, nil
}

// MarkUsed flags a car as taking part in a game
func (s *Service) MarkUsed(ctx context.Context, name string) error {
	return s.update(ctx, name, func(car *model.Car) bool {
		if car.Used {
			return false
		}
		car.Used = true
		return true
	})
}

// Release clears a car's used flag once it has left its game
func (s *Service) Release(ctx context.Context, name string) error {
	return s.update(ctx, name, func(car *model.Car) bool {
		if !car.Used {
			return false
		}
		car.Used = false
		return true
	})
}

// MarkCrashed records that a car was destroyed. A crashed car is no longer in a game.
func (s *Service) MarkCrashed(ctx context.Context, name string) error {
	err := s.update(ctx, name, func(car *model.Car) bool {
		if car.Crashed && !car.Used {
			return false
		}
		car.Crashed = true
		car.Used = false
		return true
	})
	if err == nil {
		s.logger.Info("car crashed", slog.String("car", name))
	}
	return err
}

func (s *Service) update(ctx context.Context, name string, apply func(car *model.Car) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	car, err := s.storage.GetCar(ctx, name)
	if err != nil {
		return err
	}
	if !apply(car) {
		return nil
	}
	return s.storage.SaveCar(ctx, car)
}

// MoveForward queues a forward move of a car in its running game.
// A nil distance moves the car as far as its type allows.
func (s *Service) MoveForward(ctx context.Context, name string, distance *int) (model.GameID, error) {
	if _, err := s.usableCar(ctx, name); err != nil {
		return 0, err
	}
	return s.manager.MoveCarForward(name, distance)
}

// TurnLeft queues a left turn of a car in its running game
func (s *Service) TurnLeft(ctx context.Context, name string) (model.GameID, error) {
	if _, err := s.usableCar(ctx, name); err != nil {
		return 0, err
	}
	return s.manager.TurnCarLeft(name)
}

// TurnRight queues a right turn of a car in its running game
func (s *Service) TurnRight(ctx context.Context, name string) (model.GameID, error) {
	if _, err := s.usableCar(ctx, name); err != nil {
		return 0, err
	}
	return s.manager.TurnCarRight(name)
}

// BackInHistory replays the car's last moves in a running game in reverse
func (s *Service) BackInHistory(ctx context.Context, gameID model.GameID, name string, moves int) error {
	if _, err := s.usableCar(ctx, name); err != nil {
		return err
	}
	game, err := s.storage.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	if game.Status != model.GameStatusRunning {
		return fmt.Errorf("%w: %s", model.ErrGameNotRunning, game.Name)
	}
	if moves <= 0 {
		return model.ErrNoHistoricalMoves
	}

	events, err := s.storage.ListMoveEvents(ctx, model.MoveFilter{
		Cars:    []string{name},
		GameIDs: []model.GameID{gameID},
		Limit:   moves,
	})
	if err != nil {
		return err
	}

	history := make([]model.HistoryMove, len(events))
	for i, e := range events {
		history[i] = model.HistoryMove{Type: e.Type, Distance: e.Distance, Timestamp: e.Timestamp}
	}

	s.logger.Debug("rewinding car",
		slog.String("car", name),
		slog.Int64("game_id", int64(gameID)),
		slog.Int("requested", moves),
		slog.Int("found", len(history)),
	)
	return s.manager.BackInHistory(game.Name, name, history)
}

// StoreMovement records a car movement
func (s *Service) StoreMovement(ctx context.Context, move model.CarMoveEvent) error {
	return s.storage.AppendMoveEvent(ctx, &move)
}

// Movements returns recorded movements matching the filter, newest first
func (s *Service) Movements(ctx context.Context, filter model.MoveFilter) ([]*model.CarMoveEvent, error) {
	return s.storage.ListMoveEvents(ctx, filter)
}

func (s *Service) usableCar(ctx context.Context, name string) (*model.Car, error) {
	car, err := s.storage.GetCar(ctx, name)
	if err != nil {
		return nil, err
	}
	if car.Crashed {
		return nil, model.ErrCarCrashed
	}
	return car, nil
}
