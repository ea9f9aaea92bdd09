package game

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/gridrace/internal/dependencies/mocks"
	"github.com/mcoot/gridrace/internal/engine/manager"
	"github.com/mcoot/gridrace/internal/model"
	"github.com/mcoot/gridrace/internal/services/car"
	"github.com/mcoot/gridrace/internal/services/gamemap"
	"github.com/mcoot/gridrace/internal/storage/memory"
	"github.com/mcoot/gridrace/internal/testutil"
)

type nopListener struct{}

func (nopListener) CarCrashed(context.Context, string, model.GameID) error   { return nil }
func (nopListener) GameClosed(context.Context, model.GameID) error           { return nil }
func (nopListener) StoreMovement(context.Context, model.CarMoveEvent) error { return nil }
func (nopListener) Publish(model.Event)                                      {}

var errStoreDown = errors.New("store down")

// flakyStorage fails car or game writes on demand
type flakyStorage struct {
	*memory.Storage
	failCars  atomic.Bool
	failGames atomic.Bool
}

func (f *flakyStorage) SaveCar(ctx context.Context, c *model.Car) error {
	if f.failCars.Load() {
		return errStoreDown
	}
	return f.Storage.SaveCar(ctx, c)
}

func (f *flakyStorage) SaveGame(ctx context.Context, g *model.Game) error {
	if f.failGames.Load() {
		return errStoreDown
	}
	return f.Storage.SaveGame(ctx, g)
}

type ControllerSuite struct {
	suite.Suite
	storage    *memory.Storage
	manager    *manager.Manager
	carService *car.Service
	mapService *gamemap.Service
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	controller *Controller
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.ctx = context.Background()
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.manager = manager.New(manager.Config{
		IdleTimeout:  time.Minute,
		HistoryDelay: time.Millisecond,
		Clock:        s.clock,
		Random:       s.random,
		Logger:       testutil.NopLogger(),
	})
	s.manager.Start(s.ctx, nopListener{})
	s.carService = car.New(s.storage, s.manager, testutil.NopLogger())
	s.mapService = gamemap.New(s.storage, testutil.NopLogger())
	s.controller = NewController(s.storage, s.manager, s.carService, s.mapService, s.clock, testutil.NopLogger())

	_, err := s.mapService.Upload(s.ctx, "loop", strings.NewReader("1,1,1\n1,0,1\n1,1,1\n"))
	s.Require().NoError(err)
	_, err = s.carService.Create(s.ctx, "bolt", model.CarTypeNormal)
	s.Require().NoError(err)
}

func (s *ControllerSuite) TearDownTest() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	s.NoError(s.manager.Shutdown(ctx))
}

func at(x, y int) *model.Position {
	return &model.Position{X: x, Y: y}
}

// Start tests

func (s *ControllerSuite) TestStartCreatesRunningGame() {
	game, err := s.controller.Start(s.ctx, "grand-prix", "loop")
	s.Require().NoError(err)

	s.Equal(model.GameID(1), game.ID)
	s.Equal("grand-prix", game.Name)
	s.Equal("loop", game.MapName)
	s.Equal(model.GameStatusRunning, game.Status)
	s.Equal(s.clock.Now(), game.StartedAt)
	s.True(s.manager.IsGameRunning("grand-prix"))

	running, err := s.controller.Running(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(running, 1)
	s.Equal(game.ID, running[0].ID)
}

func (s *ControllerSuite) TestStartDefaultsNameToMap() {
	game, err := s.controller.Start(s.ctx, "", "loop")
	s.Require().NoError(err)
	s.Equal("loop", game.Name)
}

func (s *ControllerSuite) TestStartRejectsRunningName() {
	_, err := s.controller.Start(s.ctx, "race", "loop")
	s.Require().NoError(err)

	_, err = s.controller.Start(s.ctx, "race", "loop")
	s.ErrorIs(err, model.ErrGameAlreadyRunning)

	games, _ := s.controller.List(s.ctx)
	s.Len(games, 1)
}

func (s *ControllerSuite) TestStartRejectsMissingOrDeletedMap() {
	_, err := s.controller.Start(s.ctx, "race", "nowhere")
	s.ErrorIs(err, model.ErrMapNotFound)

	s.Require().NoError(s.mapService.Delete(s.ctx, "loop"))
	_, err = s.controller.Start(s.ctx, "race", "loop")
	s.ErrorIs(err, model.ErrMapNotFound)
}

// AddCar tests

func (s *ControllerSuite) TestAddCarMarksCarUsedAndRecordsIt() {
	game, _ := s.controller.Start(s.ctx, "race", "loop")

	updated, err := s.controller.AddCar(s.ctx, game.ID, "bolt", at(1, 1))
	s.Require().NoError(err)
	s.Equal([]string{"bolt"}, updated.Cars)

	c, _ := s.carService.Get(s.ctx, "bolt")
	s.True(c.Used)

	snapshot, err := s.controller.Snapshot(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Require().Len(snapshot, 1)
	s.Equal(model.CarStatus{Name: "bolt", X: 0, Y: 0, Direction: model.North}, snapshot[0])
}

func (s *ControllerSuite) TestAddCarAtRandomPosition() {
	game, _ := s.controller.Start(s.ctx, "race", "loop")
	// Empty cells sorted by x then y: (1,1) (1,2) (1,3) (2,1) ...
	s.random.QueueIntn(3)

	_, err := s.controller.AddCar(s.ctx, game.ID, "bolt", nil)
	s.Require().NoError(err)

	snapshot, _ := s.controller.Snapshot(s.ctx, game.ID)
	s.Require().Len(snapshot, 1)
	s.Equal(1, snapshot[0].X)
	s.Equal(0, snapshot[0].Y)
}

func (s *ControllerSuite) TestAddCarValidation() {
	game, _ := s.controller.Start(s.ctx, "race", "loop")

	_, err := s.controller.AddCar(s.ctx, game.ID, "ghost", at(1, 1))
	s.ErrorIs(err, model.ErrCarNotFound)

	_, err = s.controller.AddCar(s.ctx, 99, "bolt", at(1, 1))
	s.ErrorIs(err, model.ErrGameNotFound)

	_, err = s.controller.AddCar(s.ctx, game.ID, "bolt", at(2, 2))
	s.ErrorIs(err, model.ErrPositionAlreadyTaken, "centre cell is a wall")

	_, err = s.controller.AddCar(s.ctx, game.ID, "bolt", at(4, 1))
	s.ErrorIs(err, model.ErrPositionOutOfRange)

	_ = s.carService.MarkCrashed(s.ctx, "bolt")
	_, err = s.controller.AddCar(s.ctx, game.ID, "bolt", at(1, 1))
	s.ErrorIs(err, model.ErrCarCrashed)
}

func (s *ControllerSuite) TestAddCarToFinishedGame() {
	game, _ := s.controller.Start(s.ctx, "race", "loop")
	s.Require().NoError(s.controller.Finish(s.ctx, game.ID))

	_, err := s.controller.AddCar(s.ctx, game.ID, "bolt", at(1, 1))
	s.ErrorIs(err, model.ErrGameNotActive)
}

func (s *ControllerSuite) TestCarCannotJoinTwoGames() {
	first, _ := s.controller.Start(s.ctx, "first", "loop")
	second, _ := s.controller.Start(s.ctx, "second", "loop")

	_, err := s.controller.AddCar(s.ctx, first.ID, "bolt", at(1, 1))
	s.Require().NoError(err)

	_, err = s.controller.AddCar(s.ctx, second.ID, "bolt", at(1, 1))
	s.ErrorIs(err, model.ErrCarIsBeingUsedInGame)
}

func (s *ControllerSuite) flakyController() (*flakyStorage, *car.Service, *Controller) {
	store := &flakyStorage{Storage: s.storage}
	cars := car.New(store, s.manager, testutil.NopLogger())
	return store, cars, NewController(store, s.manager, cars, s.mapService, s.clock, testutil.NopLogger())
}

func (s *ControllerSuite) TestAddCarUndoneWhenGameSaveFails() {
	store, cars, controller := s.flakyController()
	game, err := controller.Start(s.ctx, "race", "loop")
	s.Require().NoError(err)

	store.failGames.Store(true)
	_, err = controller.AddCar(s.ctx, game.ID, "bolt", at(1, 1))
	s.ErrorIs(err, errStoreDown)

	names, err := s.manager.CarNamesInGame(game.ID)
	s.Require().NoError(err)
	s.Empty(names)
	c, _ := cars.Get(s.ctx, "bolt")
	s.False(c.Used)

	// Same car, same cell
	store.failGames.Store(false)
	updated, err := controller.AddCar(s.ctx, game.ID, "bolt", at(1, 1))
	s.Require().NoError(err)
	s.Equal([]string{"bolt"}, updated.Cars)
}

func (s *ControllerSuite) TestAddCarUndoneWhenMarkingUsedFails() {
	store, cars, controller := s.flakyController()
	game, err := controller.Start(s.ctx, "race", "loop")
	s.Require().NoError(err)

	store.failCars.Store(true)
	_, err = controller.AddCar(s.ctx, game.ID, "bolt", at(1, 1))
	s.ErrorIs(err, errStoreDown)

	names, _ := s.manager.CarNamesInGame(game.ID)
	s.Empty(names)
	_, err = s.manager.GameByCar("bolt")
	s.Error(err)

	store.failCars.Store(false)
	_, err = controller.AddCar(s.ctx, game.ID, "bolt", at(1, 1))
	s.Require().NoError(err)
	c, _ := cars.Get(s.ctx, "bolt")
	s.True(c.Used)

	stored, err := s.storage.GetGame(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Equal([]string{"bolt"}, stored.Cars)
}

// RemoveCar tests

func (s *ControllerSuite) TestRemoveCarReleasesIt() {
	game, _ := s.controller.Start(s.ctx, "race", "loop")
	_, _ = s.controller.AddCar(s.ctx, game.ID, "bolt", at(1, 1))

	s.Require().NoError(s.controller.RemoveCar(s.ctx, game.ID, "bolt"))

	c, _ := s.carService.Get(s.ctx, "bolt")
	s.False(c.Used)
	snapshot, _ := s.controller.Snapshot(s.ctx, game.ID)
	s.Empty(snapshot)

	s.ErrorIs(s.controller.RemoveCar(s.ctx, game.ID, "bolt"), model.ErrCarNotFoundInGame)
}

// Finish tests

func (s *ControllerSuite) TestFinishReleasesCars() {
	game, _ := s.controller.Start(s.ctx, "race", "loop")
	_, _ = s.controller.AddCar(s.ctx, game.ID, "bolt", at(1, 1))
	s.Require().NoError(s.manager.RemoveCar(game.ID, "bolt"))

	s.clock.Advance(time.Minute)
	s.Require().NoError(s.controller.Finish(s.ctx, game.ID))

	stored, _ := s.controller.Get(s.ctx, game.ID)
	s.Equal(model.GameStatusFinished, stored.Status)
	s.Require().NotNil(stored.FinishedAt)
	s.Equal(s.clock.Now(), *stored.FinishedAt)

	c, _ := s.carService.Get(s.ctx, "bolt")
	s.False(c.Used)

	// Finishing twice is a no-op
	s.NoError(s.controller.Finish(s.ctx, game.ID))
}

func (s *ControllerSuite) TestFinishKeepsCarsUsedInOtherGames() {
	first, _ := s.controller.Start(s.ctx, "first", "loop")
	second, _ := s.controller.Start(s.ctx, "second", "loop")
	_, _ = s.controller.AddCar(s.ctx, first.ID, "bolt", at(1, 1))
	s.Require().NoError(s.controller.RemoveCar(s.ctx, first.ID, "bolt"))
	_, err := s.controller.AddCar(s.ctx, second.ID, "bolt", at(1, 1))
	s.Require().NoError(err)

	s.Require().NoError(s.controller.Finish(s.ctx, first.ID))

	c, _ := s.carService.Get(s.ctx, "bolt")
	s.True(c.Used)
}

// InterruptUnfinished tests

func (s *ControllerSuite) TestInterruptUnfinished() {
	stale := &model.Game{Name: "stale", MapName: "loop", Status: model.GameStatusRunning, Cars: []string{"bolt"}}
	s.Require().NoError(s.storage.CreateGame(s.ctx, stale))
	_ = s.carService.MarkUsed(s.ctx, "bolt")
	live, _ := s.controller.Start(s.ctx, "live", "loop")

	count, err := s.controller.InterruptUnfinished(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, count)

	got, _ := s.controller.Get(s.ctx, stale.ID)
	s.Equal(model.GameStatusInterrupted, got.Status)
	s.NotNil(got.FinishedAt)

	got, _ = s.controller.Get(s.ctx, live.ID)
	s.Equal(model.GameStatusRunning, got.Status)

	c, _ := s.carService.Get(s.ctx, "bolt")
	s.False(c.Used)

	interrupted, _ := s.controller.List(s.ctx, model.GameStatusInterrupted)
	s.Len(interrupted, 1)
}

// Snapshot tests

func (s *ControllerSuite) TestSnapshotOfUnknownOrClosedGame() {
	_, err := s.controller.Snapshot(s.ctx, 5)
	s.ErrorIs(err, model.ErrGameNotFound)

	stale := &model.Game{Name: "stale", Status: model.GameStatusFinished}
	_ = s.storage.CreateGame(s.ctx, stale)
	_, err = s.controller.Snapshot(s.ctx, stale.ID)
	s.ErrorIs(err, model.ErrGameNotActive)
}
