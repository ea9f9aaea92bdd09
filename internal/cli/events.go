package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newGameEventsCmd() *cobra.Command {
	var jsonOutput bool
	var maxEvents int

	cmd := &cobra.Command{
		Use:   "events <id>",
		Short: "Stream live events from a running game (0 streams all games)",
		Long: `Connect to the game's SSE endpoint and stream events in real-time.

Events include:
  - object_added: A car was put on the grid
  - object_removed: A car was taken off the grid
  - object_moved: A car moved forward
  - object_turned: A car turned left or right
  - object_destroyed: A car crashed
  - history_in_progress: A car started going back in history
  - backed_in_history: A car finished going back in history
  - game_closed: The game finished

Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseGameID(args[0])
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return streamEvents(ctx, cmd.OutOrStdout(), id, jsonOutput, maxEvents)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")
	cmd.Flags().IntVarP(&maxEvents, "max", "n", 0, "Disconnect after this many events (0 streams until interrupted)")

	return cmd
}

// SSEEvent represents a parsed SSE event
type SSEEvent struct {
	Time  time.Time       `json:"time"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func streamEvents(ctx context.Context, w io.Writer, gameID int64, jsonOutput bool, maxEvents int) error {
	url := fmt.Sprintf("%s/api/v1/games/%d/events", strings.TrimSuffix(cfg.ServerURL, "/"), gameID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	// No timeout: the stream stays open until the game closes or we disconnect
	httpClient := &http.Client{}

	resp, err := httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error.Code != "" {
			return fmt.Errorf("%s", errResp.Error.String())
		}
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	var currentEvent string
	var dataLines []string
	received := 0

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "event: "):
			currentEvent = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		case line == "":
			if currentEvent == "connected" {
				if !jsonOutput {
					if gameID == 0 {
						fmt.Fprintln(w, "Connected to all games")
					} else {
						fmt.Fprintf(w, "Connected to game %d\n", gameID)
					}
				}
			} else if currentEvent != "" {
				printEvent(w, currentEvent, strings.Join(dataLines, "\n"), jsonOutput)
				received++
				if maxEvents > 0 && received >= maxEvents {
					return nil
				}
			}
			currentEvent = ""
			dataLines = nil
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("stream error: %w", err)
	}

	if !jsonOutput {
		fmt.Fprintln(w, "Disconnected")
	}
	return nil
}

func printEvent(w io.Writer, event, data string, jsonOutput bool) {
	now := time.Now()

	if jsonOutput {
		raw := json.RawMessage(data)
		if !json.Valid(raw) {
			raw, _ = json.Marshal(data)
		}
		line, _ := json.Marshal(SSEEvent{Time: now, Event: event, Data: raw})
		fmt.Fprintln(w, string(line))
		return
	}

	displayData := strings.ReplaceAll(data, "\n", " ")
	if len(displayData) > 120 {
		displayData = displayData[:120] + "..."
	}
	fmt.Fprintf(w, "[%s] %s: %s\n", now.Format("15:04:05.000"), event, displayData)
}
