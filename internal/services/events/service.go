// Package events applies the side effects of engine events to the stored
// cars and games, and relays every event to live subscribers.
package events

import (
	"context"
	"log/slog"

	"github.com/mcoot/gridrace/internal/engine/manager"
	"github.com/mcoot/gridrace/internal/model"
	"github.com/mcoot/gridrace/internal/services/car"
	"github.com/mcoot/gridrace/internal/services/game"
	"github.com/mcoot/gridrace/internal/telemetry"
)

// Service is the engine's listener
type Service struct {
	cars        *car.Service
	games       *game.Controller
	broadcaster *telemetry.Broadcaster
	logger      *slog.Logger
}

var _ manager.Listener = (*Service)(nil)

// New creates an events Service
func New(cars *car.Service, games *game.Controller, broadcaster *telemetry.Broadcaster, logger *slog.Logger) *Service {
	return &Service{
		cars:        cars,
		games:       games,
		broadcaster: broadcaster,
		logger:      logger.With(slog.String("component", "events")),
	}
}

func (s *Service) CarCrashed(ctx context.Context, carName string, gameID model.GameID) error {
	s.logger.Info("car destroyed",
		slog.String("car", carName),
		slog.Int64("game_id", int64(gameID)),
	)
	return s.cars.MarkCrashed(ctx, carName)
}

func (s *Service) GameClosed(ctx context.Context, gameID model.GameID) error {
	return s.games.Finish(ctx, gameID)
}

func (s *Service) StoreMovement(ctx context.Context, move model.CarMoveEvent) error {
	return s.cars.StoreMovement(ctx, move)
}

func (s *Service) Publish(event model.Event) {
	s.broadcaster.PublishEvent(event)
}
