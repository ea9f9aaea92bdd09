package factory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/gridrace/internal/model"
	"github.com/mcoot/gridrace/internal/telemetry"
)

const waitFor = 3 * time.Second

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp(0)
	s.ctx = context.Background()
	s.Require().NoError(s.app.Start(s.ctx))
	_, err := s.app.LoadTestMap(s.ctx, "ring")
	s.Require().NoError(err)
}

func (s *IntegrationSuite) TearDownTest() {
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	s.NoError(s.app.Shutdown(ctx))
}

func (s *IntegrationSuite) carAt(gameID model.GameID, name string, x, y int, dir model.Direction) func() bool {
	return func() bool {
		cars, err := s.app.GameController.Snapshot(s.ctx, gameID)
		if err != nil {
			return false
		}
		for _, c := range cars {
			if c.Name == name {
				return c.X == x && c.Y == y && c.Direction == dir && !c.Reverting
			}
		}
		return false
	}
}

// Test: a car laps one side and a corner of the ring and its moves are recorded
func (s *IntegrationSuite) TestDriveAroundRing() {
	_, err := s.app.CarService.Create(s.ctx, "bolt", model.CarTypeNormal)
	s.Require().NoError(err)

	game, err := s.app.GameController.Start(s.ctx, "sunday", "ring")
	s.Require().NoError(err)
	_, err = s.app.GameController.AddCar(s.ctx, game.ID, "bolt", &model.Position{X: 1, Y: 4})
	s.Require().NoError(err)

	for i := 0; i < 3; i++ {
		_, err = s.app.CarService.MoveForward(s.ctx, "bolt", nil)
		s.Require().NoError(err)
		// Wait for each move so the three commands cannot be reordered by the car loop
		s.Eventually(s.carAt(game.ID, "bolt", 0, 2-i, model.North), waitFor, 5*time.Millisecond)
	}
	_, err = s.app.CarService.TurnRight(s.ctx, "bolt")
	s.Require().NoError(err)
	s.Eventually(s.carAt(game.ID, "bolt", 0, 0, model.East), waitFor, 5*time.Millisecond)

	s.Eventually(func() bool {
		moves, err := s.app.CarService.Movements(s.ctx, model.MoveFilter{Cars: []string{"bolt"}})
		return err == nil && len(moves) == 4
	}, waitFor, 5*time.Millisecond)

	moves, _ := s.app.CarService.Movements(s.ctx, model.MoveFilter{GameIDs: []model.GameID{game.ID}, Limit: 1})
	s.Require().Len(moves, 1)
	s.Equal(model.MoveTurnRight, moves[0].Type)
}

// Test: driving into a wall destroys the car and marks it crashed
func (s *IntegrationSuite) TestWallCrash() {
	_, _ = s.app.CarService.Create(s.ctx, "bolt", model.CarTypeNormal)
	game, _ := s.app.GameController.Start(s.ctx, "sunday", "ring")
	_, err := s.app.GameController.AddCar(s.ctx, game.ID, "bolt", &model.Position{X: 2, Y: 4})
	s.Require().NoError(err)

	_, err = s.app.CarService.MoveForward(s.ctx, "bolt", nil)
	s.Require().NoError(err)

	s.Eventually(func() bool {
		c, err := s.app.CarService.Get(s.ctx, "bolt")
		return err == nil && c.Crashed
	}, waitFor, 5*time.Millisecond)

	_, err = s.app.CarService.MoveForward(s.ctx, "bolt", nil)
	s.ErrorIs(err, model.ErrCarCrashed)

	// A repaired car can race again
	_, err = s.app.CarService.Repair(s.ctx, "bolt")
	s.Require().NoError(err)
	_, err = s.app.GameController.AddCar(s.ctx, game.ID, "bolt", &model.Position{X: 1, Y: 1})
	s.NoError(err)
}

// Test: a monster truck rams a normal car and survives
func (s *IntegrationSuite) TestMonsterTruckWinsCollision() {
	_, _ = s.app.CarService.Create(s.ctx, "bolt", model.CarTypeNormal)
	_, _ = s.app.CarService.Create(s.ctx, "tank", model.CarTypeMonsterTruck)
	game, _ := s.app.GameController.Start(s.ctx, "derby", "ring")
	_, err := s.app.GameController.AddCar(s.ctx, game.ID, "bolt", &model.Position{X: 1, Y: 2})
	s.Require().NoError(err)
	_, err = s.app.GameController.AddCar(s.ctx, game.ID, "tank", &model.Position{X: 1, Y: 3})
	s.Require().NoError(err)

	_, err = s.app.CarService.MoveForward(s.ctx, "tank", nil)
	s.Require().NoError(err)

	s.Eventually(func() bool {
		c, err := s.app.CarService.Get(s.ctx, "bolt")
		return err == nil && c.Crashed
	}, waitFor, 5*time.Millisecond)
	s.Eventually(s.carAt(game.ID, "tank", 0, 1, model.North), waitFor, 5*time.Millisecond)

	tank, _ := s.app.CarService.Get(s.ctx, "tank")
	s.False(tank.Crashed)
	s.True(tank.Used)
}

// Test: rewinding replays recorded moves in reverse
func (s *IntegrationSuite) TestBackInHistory() {
	_, _ = s.app.CarService.Create(s.ctx, "bolt", model.CarTypeRacer)
	game, _ := s.app.GameController.Start(s.ctx, "sunday", "ring")
	_, err := s.app.GameController.AddCar(s.ctx, game.ID, "bolt", &model.Position{X: 1, Y: 4})
	s.Require().NoError(err)

	_, err = s.app.CarService.MoveForward(s.ctx, "bolt", nil)
	s.Require().NoError(err)
	s.Eventually(s.carAt(game.ID, "bolt", 0, 1, model.North), waitFor, 5*time.Millisecond)
	_, err = s.app.CarService.TurnRight(s.ctx, "bolt")
	s.Require().NoError(err)
	s.Eventually(func() bool {
		moves, err := s.app.CarService.Movements(s.ctx, model.MoveFilter{Cars: []string{"bolt"}})
		return err == nil && len(moves) == 2
	}, waitFor, 5*time.Millisecond)

	s.Require().NoError(s.app.CarService.BackInHistory(s.ctx, game.ID, "bolt", 2))

	s.Eventually(s.carAt(game.ID, "bolt", 0, 3, model.North), waitFor, 5*time.Millisecond)
}

// Test: shutting down closes games and streams
func (s *IntegrationSuite) TestShutdownFinishesGamesAndClosesStreams() {
	_, _ = s.app.CarService.Create(s.ctx, "bolt", model.CarTypeNormal)
	game, _ := s.app.GameController.Start(s.ctx, "sunday", "ring")
	_, _ = s.app.GameController.AddCar(s.ctx, game.ID, "bolt", &model.Position{X: 1, Y: 1})

	client := telemetry.NewClient("watcher")
	s.Require().True(s.app.HubManager.GetOrCreateHub(telemetry.AllGames).Register(client))

	ctx, cancel := context.WithTimeout(s.ctx, waitFor)
	defer cancel()
	s.Require().NoError(s.app.Shutdown(ctx))

	stored, err := s.app.GameController.Get(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Equal(model.GameStatusFinished, stored.Status)

	c, _ := s.app.CarService.Get(s.ctx, "bolt")
	s.False(c.Used)

	var last string
	for msg := range client.Messages() {
		last = msg.Event
	}
	s.Equal(string(model.EventGameClosed), last)
}

// Test: games left running by an earlier process are interrupted on start
func (s *IntegrationSuite) TestStartInterruptsLeftoverGames() {
	app := NewTestApp(0)
	_, _ = app.CarService.Create(s.ctx, "bolt", model.CarTypeNormal)
	_ = app.CarService.MarkUsed(s.ctx, "bolt")
	stale := &model.Game{Name: "stale", MapName: "ring", Status: model.GameStatusRunning, Cars: []string{"bolt"}}
	s.Require().NoError(app.Storage.CreateGame(s.ctx, stale))

	s.Require().NoError(app.Start(s.ctx))
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), waitFor)
		defer cancel()
		_ = app.Shutdown(ctx)
	}()

	got, _ := app.GameController.Get(s.ctx, stale.ID)
	s.Equal(model.GameStatusInterrupted, got.Status)
	c, _ := app.CarService.Get(s.ctx, "bolt")
	s.False(c.Used)
}
