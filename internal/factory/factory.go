package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/gridrace/internal/dependencies/clock"
	"github.com/mcoot/gridrace/internal/dependencies/random"
	"github.com/mcoot/gridrace/internal/engine/manager"
	"github.com/mcoot/gridrace/internal/services/car"
	"github.com/mcoot/gridrace/internal/services/events"
	"github.com/mcoot/gridrace/internal/services/game"
	"github.com/mcoot/gridrace/internal/services/gamemap"
	"github.com/mcoot/gridrace/internal/storage"
	"github.com/mcoot/gridrace/internal/storage/memory"
	redisstorage "github.com/mcoot/gridrace/internal/storage/redis"
	"github.com/mcoot/gridrace/internal/telemetry"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// Engine defaults
const (
	DefaultGameDuration       = 60 * time.Second
	DefaultBackInHistoryDelay = 500 * time.Millisecond
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Engine
	Manager *manager.Manager

	// Services
	CarService     *car.Service
	MapService     *gamemap.Service
	GameController *game.Controller
	EventService   *events.Service
	HubManager     *telemetry.HubManager

	logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// GameDuration is how long a game stays open without any car activity
	GameDuration time.Duration
	// BackInHistoryDelay is the pause between replayed moves of a rewind
	BackInHistoryDelay time.Duration
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	return newWithDependencies(store, clock.New(), random.New(), cfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) *App {
	if cfg.GameDuration <= 0 {
		cfg.GameDuration = DefaultGameDuration
	}
	if cfg.BackInHistoryDelay <= 0 {
		cfg.BackInHistoryDelay = DefaultBackInHistoryDelay
	}

	mgr := manager.New(manager.Config{
		IdleTimeout:  cfg.GameDuration,
		HistoryDelay: cfg.BackInHistoryDelay,
		Clock:        clk,
		Random:       rnd,
		Logger:       logger,
	})

	carService := car.New(store, mgr, logger)
	mapService := gamemap.New(store, logger)
	gameController := game.NewController(store, mgr, carService, mapService, clk, logger)
	hubManager := telemetry.NewHubManager(logger)
	eventService := events.New(carService, gameController, telemetry.NewBroadcaster(hubManager, logger), logger)

	return &App{
		Storage:        store,
		Clock:          clk,
		Random:         rnd,
		Manager:        mgr,
		CarService:     carService,
		MapService:     mapService,
		GameController: gameController,
		EventService:   eventService,
		HubManager:     hubManager,
		logger:         logger,
	}
}

// Start interrupts games left running by a previous process and starts the
// engine's event loop
func (a *App) Start(ctx context.Context) error {
	if _, err := a.GameController.InterruptUnfinished(ctx); err != nil {
		return err
	}
	a.Manager.Start(ctx, a.EventService)
	return nil
}

// Shutdown closes every running game, waits for their events to be handled
// and disconnects live subscribers
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Manager.Shutdown(ctx)
	a.HubManager.CloseAll()
	if closer, ok := a.Storage.(io.Closer); ok {
		if cerr := closer.Close(); cerr != nil {
			a.logger.Error("failed to close storage", slog.String("error", cerr.Error()))
		}
	}
	return err
}
