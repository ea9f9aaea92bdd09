package storage

import (
	"context"

	"github.com/mcoot/gridrace/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Car operations
	SaveCar(ctx context.Context, car *model.Car) error
	GetCar(ctx context.Context, name string) (*model.Car, error)
	ListCars(ctx context.Context) ([]*model.Car, error)
	DeleteCar(ctx context.Context, name string) error

	// Map operations
	SaveMap(ctx context.Context, m *model.GameMap) error
	GetMap(ctx context.Context, name string) (*model.GameMap, error)
	ListMaps(ctx context.Context) ([]*model.GameMap, error)

	// Game operations
	CreateGame(ctx context.Context, game *model.Game) error // Assigns game.ID
	SaveGame(ctx context.Context, game *model.Game) error
	GetGame(ctx context.Context, id model.GameID) (*model.Game, error)
	ListGames(ctx context.Context, statuses ...model.GameStatus) ([]*model.Game, error)

	// Move event operations
	AppendMoveEvent(ctx context.Context, event *model.CarMoveEvent) error // Assigns event.ID
	ListMoveEvents(ctx context.Context, filter model.MoveFilter) ([]*model.CarMoveEvent, error)
}
