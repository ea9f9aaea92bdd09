package actor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mcoot/gridrace/internal/dependencies/clock"
	"github.com/mcoot/gridrace/internal/engine/grid"
	"github.com/mcoot/gridrace/internal/engine/queue"
	"github.com/mcoot/gridrace/internal/model"
)

// heartbeat bounds each mailbox poll so a stuck car still shows up in logs.
// It has no business meaning.
const heartbeat = 2 * time.Second

// CarConfig holds what a car needs from its game
type CarConfig struct {
	Grid         *grid.Grid
	Sink         EventSink
	Clock        clock.Clock
	HistoryDelay time.Duration
	Logger       *slog.Logger
}

// Car drives one movable object on a grid from its own goroutine
type Car struct {
	name    string
	carType model.CarType
	cfg     CarConfig
	logger  *slog.Logger
	mailbox *queue.Queue[Command]

	started   atomic.Bool
	running   atomic.Bool
	reverting atomic.Bool
	done      chan struct{}
}

// NewCar creates a car. It does nothing until started.
func NewCar(name string, t model.CarType, cfg CarConfig) *Car {
	return &Car{
		name:    name,
		carType: t,
		cfg:     cfg,
		logger:  cfg.Logger.With(slog.String("component", "car"), slog.String("car", name)),
		mailbox: queue.New[Command](),
		done:    make(chan struct{}),
	}
}

func (c *Car) Name() string        { return c.name }
func (c *Car) Type() model.CarType { return c.carType }

// Running returns true while the car loop is alive
func (c *Car) Running() bool {
	return c.running.Load()
}

// Reverting returns true while a history rewind is in progress
func (c *Car) Reverting() bool {
	return c.reverting.Load()
}

// Done is closed when the car loop exits
func (c *Car) Done() <-chan struct{} {
	return c.done
}

// Send queues a command for the car
func (c *Car) Send(cmd Command) {
	c.mailbox.Push(cmd, cmd.Priority)
}

// Start launches the car loop on the group. A car can only be started once.
func (c *Car) Start(ctx context.Context, group *errgroup.Group) error {
	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: %s", model.ErrCarAlreadyStarted, c.name)
	}
	c.running.Store(true)
	group.Go(func() error {
		c.run(ctx)
		return nil
	})
	return nil
}

func (c *Car) run(ctx context.Context) {
	defer close(c.done)
	defer c.running.Store(false)

	c.logger.Debug("engine started")
	for {
		cmd, err := c.mailbox.Poll(ctx, heartbeat)
		if errors.Is(err, queue.ErrPollTimeout) {
			continue
		}
		if err != nil {
			c.logger.Debug("car loop cancelled", slog.String("error", err.Error()))
			return
		}

		events, stop, err := c.handle(ctx, cmd)
		if err != nil {
			c.logger.Error("command processing failed",
				slog.String("command", string(cmd.Kind)),
				slog.String("error", err.Error()),
			)
		}
		if len(events) > 0 {
			c.cfg.Sink.Publish(events)
		}
		if stop {
			return
		}
		if c.destroyedIn(events) {
			c.logger.Info("car destroyed")
			return
		}
	}
}

func (c *Car) handle(ctx context.Context, cmd Command) ([]model.Event, bool, error) {
	switch cmd.Kind {
	case CommandMoveForward:
		events, err := c.cfg.Grid.MoveForward(c.name, cmd.Distance)
		return events, false, err
	case CommandTurnLeft:
		return c.cfg.Grid.TurnLeft(c.name), false, nil
	case CommandTurnRight:
		return c.cfg.Grid.TurnRight(c.name), false, nil
	case CommandBackInHistory:
		events, err := c.backInHistory(ctx, cmd.History)
		return events, false, err
	case CommandStopEngine:
		c.logger.Info("engine stopped")
		return nil, true, nil
	case CommandDestroy:
		c.logger.Info("car destroyed by collision")
		return nil, true, nil
	case CommandBlank:
		return nil, false, nil
	}
	return nil, false, fmt.Errorf("unknown command %q", cmd.Kind)
}

// backInHistory replays moves, most recent first, to undo them. The car turns
// around before the first forward move so forward moves retrace the path, and
// turns around again at the end if it survived.
func (c *Car) backInHistory(ctx context.Context, moves []model.HistoryMove) ([]model.Event, error) {
	c.reverting.Store(true)
	defer c.reverting.Store(false)

	var (
		events  []model.Event
		rotated bool
		crashed bool
		handled int
		err     error
	)

replay:
	for _, mv := range moves {
		handled++
		c.logger.Debug("backing move",
			slog.Int("step", handled),
			slog.String("type", string(mv.Type)),
			slog.Int("distance", mv.Distance),
		)

		switch mv.Type {
		case model.MoveForward:
			if !rotated {
				c.cfg.Grid.Rotate(c.name)
				rotated = true
				if err = c.afterHistoricalMove(ctx); err != nil {
					break replay
				}
				if !c.cfg.Grid.Contains(c.name) {
					crashed = true
					break replay
				}
			}
			distance := mv.Distance
			moved, moveErr := c.cfg.Grid.MoveForward(c.name, &distance)
			if moveErr != nil {
				err = moveErr
				break replay
			}
			events = append(events, moved...)
		case model.MoveTurnLeft:
			c.cfg.Grid.ReverseTurnLeft(c.name)
		case model.MoveTurnRight:
			c.cfg.Grid.ReverseTurnRight(c.name)
		}

		if err = c.afterHistoricalMove(ctx); err != nil {
			break
		}
		// Rammed or removed by the game while paused also ends the replay
		if c.destroyedIn(events) || !c.cfg.Grid.Contains(c.name) {
			crashed = true
			break
		}
	}

	if err == nil && !crashed && rotated {
		c.cfg.Grid.Rotate(c.name)
		err = c.afterHistoricalMove(ctx)
	}

	events = append(events, model.Event{
		Type:      model.EventBackedInHistory,
		Timestamp: c.cfg.Clock.Now(),
		Object:    c.name,
		Payload:   model.BackedInHistoryPayload{Requested: len(moves), Handled: handled},
	})
	if err != nil {
		return events, fmt.Errorf("back in history interrupted after %d of %d moves: %w", handled, len(moves), err)
	}
	return events, nil
}

// afterHistoricalMove reports progress and pauses this car only
func (c *Car) afterHistoricalMove(ctx context.Context) error {
	c.cfg.Sink.Publish([]model.Event{{
		Type:      model.EventHistoryInProgress,
		Timestamp: c.cfg.Clock.Now(),
		Object:    c.name,
	}})

	if c.cfg.HistoryDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(c.cfg.HistoryDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Car) destroyedIn(events []model.Event) bool {
	for _, e := range events {
		if e.Type == model.EventObjectDestroyed && e.Object == c.name {
			return true
		}
	}
	return false
}
