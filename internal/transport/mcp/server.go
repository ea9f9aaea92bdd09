// Package mcp exposes car control and game inspection as Model Context
// Protocol tools, so an AI agent can drive cars in running games.
//
// Tools:
//   - list_games: running games with their cars
//   - snapshot: live positions and directions in a game
//   - move_forward, turn_left, turn_right: queue a car command
//   - back_in_history: rewind a car's recent moves
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mcoot/gridrace/internal/model"
	"github.com/mcoot/gridrace/internal/services/car"
	"github.com/mcoot/gridrace/internal/services/game"
)

// Server serves the gridrace MCP tools in-process
type Server struct {
	cars      *car.Service
	games     *game.Controller
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates an MCP server with every tool registered
func NewServer(cars *car.Service, games *game.Controller, version string, logger *slog.Logger) *Server {
	s := &Server{
		cars:   cars,
		games:  games,
		logger: logger.With(slog.String("component", "mcp")),
	}

	s.mcpServer = server.NewMCPServer(
		"gridrace",
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions(`gridrace - MCP Interface

Cars race on square grids of roads (1) and walls (0). Coordinates in
snapshots are 0-indexed with (0,0) in the top-left corner; NORTH decreases y.
Driving into a wall, off the grid or into a tougher car destroys the car.

AVAILABLE TOOLS:
- list_games: running games and their cars
- snapshot: live car positions in a game
- move_forward: drive a car forward (optional distance)
- turn_left / turn_right: turn a car 90 degrees
- back_in_history: undo a car's last moves in a game`),
	)
	s.registerTools()
	return s
}

// MCPServer returns the underlying server, e.g. for stdio serving
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	carProperty := map[string]any{
		"type":        "string",
		"description": "Name of the car",
	}
	gameProperty := map[string]any{
		"type":        "integer",
		"description": "ID of the game",
	}

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_games",
		Description: "List the running games and the cars taking part",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, s.handleListGames)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "snapshot",
		Description: "Get the live position and direction of every car in a running game",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"game_id": gameProperty},
			Required:   []string{"game_id"},
		},
	}, s.handleSnapshot)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "move_forward",
		Description: "Drive a car forward in the direction it faces",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"car": carProperty,
				"distance": map[string]any{
					"type":        "integer",
					"description": "Cells to move (optional, defaults to the car's maximum: 2 for racers, 1 otherwise)",
				},
			},
			Required: []string{"car"},
		},
	}, s.handleMoveForward)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "turn_left",
		Description: "Turn a car 90 degrees counter-clockwise",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"car": carProperty},
			Required:   []string{"car"},
		},
	}, s.handleTurnLeft)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "turn_right",
		Description: "Turn a car 90 degrees clockwise",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"car": carProperty},
			Required:   []string{"car"},
		},
	}, s.handleTurnRight)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "back_in_history",
		Description: "Undo a car's most recent moves in a game, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"car":     carProperty,
				"game_id": gameProperty,
				"moves": map[string]any{
					"type":        "integer",
					"description": "How many recorded moves to undo",
				},
			},
			Required: []string{"car", "game_id", "moves"},
		},
	}, s.handleBackInHistory)
}

func (s *Server) handleListGames(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	games, err := s.games.Running(ctx)
	if err != nil {
		return s.toolError("list_games", err), nil
	}
	return mcp.NewToolResultText(formatGames(games)), nil
}

func (s *Server) handleSnapshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	id, err := intArg(args, "game_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	cars, err := s.games.Snapshot(ctx, model.GameID(id))
	if err != nil {
		return s.toolError("snapshot", err), nil
	}
	return mcp.NewToolResultText(formatSnapshot(model.GameID(id), cars)), nil
}

func (s *Server) handleMoveForward(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	name, err := stringArg(args, "car")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var distance *int
	if _, ok := args["distance"]; ok {
		d, err := intArg(args, "distance")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		distance = &d
	}

	gameID, err := s.cars.MoveForward(ctx, name, distance)
	if err != nil {
		return s.toolError("move_forward", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Car %s is moving forward in game %d", name, gameID)), nil
}

func (s *Server) handleTurnLeft(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.turn(ctx, request, "left", s.cars.TurnLeft)
}

func (s *Server) handleTurnRight(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.turn(ctx, request, "right", s.cars.TurnRight)
}

func (s *Server) turn(
	ctx context.Context,
	request mcp.CallToolRequest,
	side string,
	apply func(ctx context.Context, name string) (model.GameID, error),
) (*mcp.CallToolResult, error) {
	name, err := stringArg(arguments(request), "car")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	gameID, err := apply(ctx, name)
	if err != nil {
		return s.toolError("turn_"+side, err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Car %s is turning %s in game %d", name, side, gameID)), nil
}

func (s *Server) handleBackInHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	name, err := stringArg(args, "car")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := intArg(args, "game_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	moves, err := intArg(args, "moves")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.cars.BackInHistory(ctx, model.GameID(id), name, moves); err != nil {
		return s.toolError("back_in_history", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Car %s is going back %d moves in game %d", name, moves, id)), nil
}

// toolError reports a failed tool call to the agent
func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	s.logger.Debug("tool call failed",
		slog.String("tool", tool),
		slog.String("error", err.Error()),
	)
	return mcp.NewToolResultError(err.Error())
}

// Handler serves JSON-RPC messages posted to it
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := s.mcpServer.HandleMessage(r.Context(), body)
		if response == nil {
			// Notifications get no reply
			w.WriteHeader(http.StatusAccepted)
			return
		}

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(responseData)
	})
}

func arguments(request mcp.CallToolRequest) map[string]any {
	args, _ := request.Params.Arguments.(map[string]any)
	return args
}

func stringArg(args map[string]any, key string) (string, error) {
	v, _ := args[key].(string)
	if strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

// intArg reads a whole number. JSON numbers arrive as float64.
func intArg(args map[string]any, key string) (int, error) {
	switch v := args[key].(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%s must be a whole number", key)
		}
		return int(v), nil
	case int:
		return v, nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%s must be a whole number", key)
		}
		return int(n), nil
	case nil:
		return 0, fmt.Errorf("%s is required", key)
	}
	return 0, errors.New(key + " must be a number")
}

func formatGames(games []*model.Game) string {
	if len(games) == 0 {
		return "No games are running"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Running games (%d):\n\n", len(games))
	for _, g := range games {
		cars := "no cars"
		if len(g.Cars) > 0 {
			cars = strings.Join(g.Cars, ", ")
		}
		fmt.Fprintf(&b, "- %d %s (map: %s, cars: %s)\n", g.ID, g.Name, g.MapName, cars)
	}
	return b.String()
}

func formatSnapshot(id model.GameID, cars []model.CarStatus) string {
	if len(cars) == 0 {
		return fmt.Sprintf("Game %d has no cars on the grid", id)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Game %d:\n\n", id)
	for _, c := range cars {
		fmt.Fprintf(&b, "- %s at (%d,%d) facing %s", c.Name, c.X, c.Y, c.Direction)
		if c.Reverting {
			b.WriteString(" [going back in history]")
		}
		b.WriteByte('\n')
	}
	return b.String()
}
