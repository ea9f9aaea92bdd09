package e2e_test

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/gridrace/internal/api"
	"github.com/mcoot/gridrace/internal/factory"
)

const ringMap = "1,1,1,1\n1,0,0,1\n1,0,0,1\n1,1,1,1\n"

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	projectRoot := findProjectRoot(t)

	binaryPath := filepath.Join(projectRoot, "bin", "gridrace-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/gridrace")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
	}
}

func (r *cliRunner) command(args ...string) *exec.Cmd {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--format", "json",
	}, args...)
	return exec.Command(r.binaryPath, fullArgs...)
}

func (r *cliRunner) run(args ...string) (string, error) {
	output, err := r.command(args...).CombinedOutput()
	return string(output), err
}

// runJSON runs a command that must succeed and decodes its output
func (r *cliRunner) runJSON(t *testing.T, result any, args ...string) {
	t.Helper()
	output, err := r.run(args...)
	require.NoError(t, err, "gridrace %s: %s", strings.Join(args, " "), output)
	if result != nil {
		require.NoError(t, json.Unmarshal([]byte(output), result), "output: %s", output)
	}
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	addr     string
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	app, err := factory.New(factory.Config{
		Logger:             logger,
		GameDuration:       30 * time.Second,
		BackInHistoryDelay: 10 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NoError(t, app.Start(context.Background()))

	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		CarService:     app.CarService,
		MapService:     app.MapService,
		GameController: app.GameController,
		HubManager:     app.HubManager,
	})

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = "127.0.0.1"
	serverConfig.Port = 0
	server := api.NewServer(router, serverConfig, logger)
	require.NoError(t, server.Listen())

	go func() {
		if err := server.Start(); err != nil {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := "http://" + server.Addr()
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		addr: serverURL,
		shutdown: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
			_ = app.Shutdown(ctx)
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

func writeMapFile(t *testing.T, csv string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "map.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o600))
	return path
}

// Response types for JSON parsing
type carResponse struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Crashed bool   `json:"crashed"`
	Used    bool   `json:"used"`
}

type mapResponse struct {
	Name   string  `json:"name"`
	Size   int     `json:"size"`
	Status string  `json:"status"`
	Roads  [][]int `json:"roads"`
}

type gameResponse struct {
	ID     int64    `json:"id"`
	Name   string   `json:"name"`
	Map    string   `json:"map"`
	Status string   `json:"status"`
	Cars   []string `json:"cars"`
}

type snapshotResponse struct {
	GameID int64 `json:"game_id"`
	Cars   []struct {
		Name      string `json:"name"`
		X         int    `json:"x"`
		Y         int    `json:"y"`
		Direction string `json:"direction"`
	} `json:"cars"`
}

type moveResponse struct {
	Car      string `json:"car"`
	GameID   int64  `json:"game_id"`
	Type     string `json:"type"`
	Distance int    `json:"distance"`
}

type healthResponse struct {
	Status string `json:"status"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// waitForSnapshot polls the game snapshot until check passes
func waitForSnapshot(t *testing.T, cli *cliRunner, gameID int64, check func(snapshotResponse) bool) snapshotResponse {
	t.Helper()

	var snap snapshotResponse
	require.Eventually(t, func() bool {
		output, err := cli.run("game", "snapshot", fmt.Sprint(gameID))
		if err != nil {
			return false
		}
		snap = snapshotResponse{}
		return json.Unmarshal([]byte(output), &snap) == nil && check(snap)
	}, 5*time.Second, 50*time.Millisecond)
	return snap
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	var resp healthResponse
	cli.runJSON(t, &resp, "health")
	assert.Equal(t, "ok", resp.Status)
}

func TestCLI_CarCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	var car carResponse
	cli.runJSON(t, &car, "car", "create", "bolt", "--type", "RACER")
	assert.Equal(t, "bolt", car.Name)
	assert.Equal(t, "RACER", car.Type)
	assert.False(t, car.Crashed)

	var cars []carResponse
	cli.runJSON(t, &cars, "car", "list")
	require.Len(t, cars, 1)
	assert.Equal(t, "bolt", cars[0].Name)

	output, err := cli.run("car", "create", "bolt")
	assert.Error(t, err)
	assert.Contains(t, output, "CAR_EXISTS")

	output, err = cli.run("car", "create", "tank", "--type", "TANK")
	assert.Error(t, err)
	assert.Contains(t, output, "INVALID_CAR_TYPE")

	var msg messageResponse
	cli.runJSON(t, &msg, "car", "delete", "bolt")
	assert.Equal(t, "Car deleted", msg.Message)

	output, err = cli.run("car", "get", "bolt")
	assert.Error(t, err)
	assert.Contains(t, output, "CAR_NOT_FOUND")
}

func TestCLI_MapCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	var m mapResponse
	cli.runJSON(t, &m, "map", "upload", "ring", writeMapFile(t, ringMap))
	assert.Equal(t, "ring", m.Name)
	assert.Equal(t, 4, m.Size)
	assert.Equal(t, []int{1, 0, 0, 1}, m.Roads[1])

	// Two islands of road are rejected
	output, err := cli.run("map", "upload", "islands", writeMapFile(t, "1,0\n0,1\n"))
	assert.Error(t, err)
	assert.Contains(t, output, "INVALID_MAP")

	var maps []mapResponse
	cli.runJSON(t, &maps, "map", "list")
	require.Len(t, maps, 1)
	assert.Equal(t, "ring", maps[0].Name)

	cli.runJSON(t, nil, "map", "delete", "ring")

	// Deleted maps stay readable but cannot host games
	cli.runJSON(t, &m, "map", "get", "ring")
	assert.Equal(t, "DELETED", m.Status)

	output, err = cli.run("game", "start", "ring")
	assert.Error(t, err)
	assert.Contains(t, output, "MAP_NOT_FOUND")
}

func TestCLI_FullRace(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	cli.runJSON(t, nil, "map", "upload", "ring", writeMapFile(t, ringMap))
	cli.runJSON(t, nil, "car", "create", "bolt", "--type", "RACER")
	cli.runJSON(t, nil, "car", "create", "brick")

	var game gameResponse
	cli.runJSON(t, &game, "game", "start", "ring", "--name", "sunday-race")
	assert.Equal(t, "sunday-race", game.Name)
	assert.Equal(t, "RUNNING", game.Status)
	gameID := game.ID

	cli.runJSON(t, &game, "game", "add-car", fmt.Sprint(gameID), "bolt", "--x", "1", "--y", "4")
	cli.runJSON(t, &game, "game", "add-car", fmt.Sprint(gameID), "brick", "--x", "4", "--y", "4")
	assert.ElementsMatch(t, []string{"bolt", "brick"}, game.Cars)

	// Racer covers two cells in one command
	cli.runJSON(t, nil, "car", "forward", "bolt", "--distance", "2")
	waitForSnapshot(t, cli, gameID, func(s snapshotResponse) bool {
		return len(s.Cars) == 2 && s.Cars[0].Name == "bolt" && s.Cars[0].Y == 1
	})

	cli.runJSON(t, nil, "car", "right", "bolt")
	snap := waitForSnapshot(t, cli, gameID, func(s snapshotResponse) bool {
		return len(s.Cars) == 2 && s.Cars[0].Direction == "EAST"
	})
	assert.Equal(t, 0, snap.Cars[0].X)

	var moves []moveResponse
	cli.runJSON(t, &moves, "car", "moves", "bolt", "--game", fmt.Sprint(gameID))
	require.Len(t, moves, 2)
	assert.Equal(t, "TURN_RIGHT", moves[0].Type)
	assert.Equal(t, "FORWARD", moves[1].Type)
	assert.Equal(t, 2, moves[1].Distance)

	// Going back replays the forward move in reverse
	cli.runJSON(t, nil, "car", "back", "bolt", "--game", fmt.Sprint(gameID), "--moves", "2")
	waitForSnapshot(t, cli, gameID, func(s snapshotResponse) bool {
		return len(s.Cars) == 2 && s.Cars[0].Y == 3
	})

	var msg messageResponse
	cli.runJSON(t, &msg, "game", "remove-car", fmt.Sprint(gameID), "brick")
	assert.Equal(t, "Car removed", msg.Message)

	var games []gameResponse
	cli.runJSON(t, &games, "game", "list", "--status", "RUNNING")
	require.Len(t, games, 1)
	assert.Equal(t, []string{"bolt"}, games[0].Cars)
}

func TestCLI_EventStream(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	cli.runJSON(t, nil, "map", "upload", "ring", writeMapFile(t, ringMap))
	cli.runJSON(t, nil, "car", "create", "bolt")

	var game gameResponse
	cli.runJSON(t, &game, "game", "start", "ring")

	cmd := exec.Command(cli.binaryPath, "--server", cli.serverURL,
		"game", "events", fmt.Sprint(game.ID), "--max", "2")
	stdout, err := cmd.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, cmd.Start())
	defer func() { _ = cmd.Process.Kill() }()

	scanner := bufio.NewScanner(stdout)
	require.True(t, scanner.Scan())
	assert.Equal(t, fmt.Sprintf("Connected to game %d", game.ID), scanner.Text())

	cli.runJSON(t, nil, "game", "add-car", fmt.Sprint(game.ID), "bolt", "--x", "1", "--y", "4")
	cli.runJSON(t, nil, "car", "left", "bolt")

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "object_added")
	assert.Contains(t, lines[0], `"bolt"`)
	assert.Contains(t, lines[1], "object_turned")

	require.NoError(t, cmd.Wait())
}

func TestCLI_ErrorHandling(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("game", "get", "42")
	assert.Error(t, err)
	assert.Contains(t, output, "GAME_NOT_FOUND")

	output, err = cli.run("car", "forward", "ghost")
	assert.Error(t, err)
	assert.Contains(t, output, "CAR_NOT_FOUND")

	output, err = cli.run("game", "add-car", "1", "bolt", "--x", "1")
	assert.Error(t, err)
	assert.Contains(t, output, "--x and --y must be given together")

	output, err = cli.run("--format", "yaml", "health")
	assert.Error(t, err)
	assert.Contains(t, output, "unknown format")
}
