package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/gridrace/internal/api"
	"github.com/mcoot/gridrace/internal/factory"
	"github.com/mcoot/gridrace/internal/model"
	"github.com/mcoot/gridrace/internal/testutil"
)

type CLISuite struct {
	suite.Suite
	app *factory.TestApp
	srv *httptest.Server
	ctx context.Context
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLISuite))
}

func (s *CLISuite) SetupTest() {
	s.ctx = context.Background()
	s.app = factory.NewTestApp(0)
	s.Require().NoError(s.app.Start(s.ctx))

	s.srv = httptest.NewServer(api.NewRouter(api.RouterConfig{
		Logger:         testutil.NopLogger(),
		CarService:     s.app.CarService,
		MapService:     s.app.MapService,
		GameController: s.app.GameController,
		HubManager:     s.app.HubManager,
	}))
}

func (s *CLISuite) TearDownTest() {
	s.srv.Close()
	ctx, cancel := context.WithTimeout(s.ctx, 3*time.Second)
	defer cancel()
	_ = s.app.Shutdown(ctx)
}

// run executes the CLI in text mode against the test server
func (s *CLISuite) run(stdin string, args ...string) (string, error) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--server", s.srv.URL, "--format", FormatText}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (s *CLISuite) mustRun(args ...string) string {
	out, err := s.run("", args...)
	s.Require().NoError(err, out)
	return out
}

func (s *CLISuite) TestHealth() {
	out := s.mustRun("health")
	s.Contains(out, "Status: ok ("+s.srv.URL)
}

func (s *CLISuite) TestCarListing() {
	s.mustRun("car", "create", "bolt", "--type", "RACER")
	s.mustRun("car", "create", "brick")

	out := s.mustRun("car", "list")
	s.Contains(out, "bolt")
	s.Contains(out, "RACER")
	s.Contains(out, "brick")
	s.Contains(out, "ready")

	out = s.mustRun("car", "get", "brick")
	s.Contains(out, "Type: NORMAL")
}

func (s *CLISuite) TestMapUploadFromStdinDrawsGrid() {
	out, err := s.run("1,1,1\n1,0,1\n1,1,1\n", "map", "upload", "donut", "-")
	s.Require().NoError(err, out)
	s.Contains(out, "Map: donut")
	s.Contains(out, "Size: 3")
	s.Contains(out, "  2  . # .")
}

func (s *CLISuite) TestRaceInTextMode() {
	_, err := s.app.LoadTestMap(s.ctx, "ring")
	s.Require().NoError(err)
	s.mustRun("car", "create", "bolt")

	out := s.mustRun("game", "start", "ring", "--name", "evening")
	s.Contains(out, "(evening)")
	s.Contains(out, "Status: RUNNING")

	games, err := s.app.GameController.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(games, 1)
	id := fmt.Sprint(games[0].ID)

	out = s.mustRun("game", "add-car", id, "bolt", "--x", "1", "--y", "4")
	s.Contains(out, "Cars: bolt")

	out = s.mustRun("car", "forward", "bolt")
	s.Contains(out, "Command queued for bolt in game "+id)

	s.Eventually(func() bool {
		out, err := s.run("", "game", "snapshot", id)
		return err == nil && strings.Contains(out, "bolt at (0,2) facing NORTH")
	}, 3*time.Second, 10*time.Millisecond)

	s.Eventually(func() bool {
		out, err := s.run("", "car", "moves", "bolt")
		return err == nil && strings.Contains(out, "FORWARD 1")
	}, 3*time.Second, 10*time.Millisecond)

	out = s.mustRun("game", "remove-car", id, "bolt")
	s.Contains(out, "Car removed")
}

func (s *CLISuite) TestAPIErrorsSurface() {
	_, err := s.run("", "car", "get", "ghost")
	s.Require().Error(err)
	s.Contains(err.Error(), "CAR_NOT_FOUND")

	_, err = s.run("", "car", "back", "ghost")
	s.Require().Error(err)
	s.Contains(err.Error(), "--game is required")

	_, err = s.run("", "game", "snapshot", "abc")
	s.Require().Error(err)
	s.Contains(err.Error(), "invalid game id")
}

func (s *CLISuite) TestEventsStopsAfterMax() {
	_, err := s.app.LoadTestMap(s.ctx, "ring")
	s.Require().NoError(err)
	_, err = s.app.CarService.Create(s.ctx, "bolt", model.CarTypeNormal)
	s.Require().NoError(err)
	game, err := s.app.GameController.Start(s.ctx, "watched", "ring")
	s.Require().NoError(err)

	done := make(chan struct{})
	var out string
	var runErr error
	go func() {
		defer close(done)
		out, runErr = s.run("", "game", "events", fmt.Sprint(game.ID), "--max", "1")
	}()

	// The hub exists once the stream has registered
	s.Eventually(func() bool {
		hub := s.app.HubManager.GetHub(game.ID)
		return hub != nil && hub.ClientCount() == 1
	}, 3*time.Second, 5*time.Millisecond)

	_, err = s.app.GameController.AddCar(s.ctx, game.ID, "bolt", &model.Position{X: 1, Y: 1})
	s.Require().NoError(err)

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		s.FailNow("events command did not stop after one event")
	}
	s.Require().NoError(runErr)
	s.Contains(out, fmt.Sprintf("Connected to game %d", game.ID))
	s.Contains(out, "object_added")
}

func TestOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	NewOutput(FormatJSON, &buf).Print(CommandAccepted{Car: "bolt", GameID: 3})
	assert.JSONEq(t, `{"car":"bolt","game_id":3}`, buf.String())

	buf.Reset()
	NewOutput(FormatJSON, &buf).PrintMessage("Car deleted")
	assert.JSONEq(t, `{"message":"Car deleted"}`, buf.String())
}

func TestOutputTextFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	NewOutput(FormatText, &buf).Print(map[string]int{"x": 1})
	require.Contains(t, buf.String(), `"x": 1`)
}

func TestCarState(t *testing.T) {
	assert.Equal(t, "crashed", carState(Car{Crashed: true, Used: true}))
	assert.Equal(t, "racing", carState(Car{Used: true}))
	assert.Equal(t, "ready", carState(Car{}))
}
