// Package sse streams rendered HTML fragments of a running game to htmx pages.
package sse

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/gridrace/internal/model"
	"github.com/mcoot/gridrace/internal/telemetry"
)

const (
	// Time between keepalive comments
	pingPeriod = 30 * time.Second

	// Reconnect delay suggested to the browser, in milliseconds
	retryMillis = "3000"

	// Event names the running game page swaps on
	EventBoard  = "board"
	EventClosed = "closed"
)

// BoardRenderer renders the fragments sent to a board page
type BoardRenderer interface {
	Board(ctx context.Context) (string, error)
	Closed(ctx context.Context) (string, error)
}

// ServeBoard follows a game's telemetry hub and sends a freshly rendered
// board after every event that changes it. A closed game gets one last
// closed fragment and the stream ends.
func ServeBoard(w http.ResponseWriter, r *http.Request, hub *telemetry.Hub, clientID string, renderer BoardRenderer, logger *slog.Logger) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	client := telemetry.NewClient(clientID)
	if !hub.Register(client) {
		http.Error(w, "Stream closed", http.StatusGone)
		return
	}
	defer hub.Unregister(client)

	_, _ = w.Write([]byte("retry: " + retryMillis + "\n\n"))
	_, _ = w.Write(telemetry.FormatSSEMessage("connected", `{"status":"connected"}`))
	flusher.Flush()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.Messages():
			if !ok {
				return
			}
			event, render := EventBoard, renderer.Board
			if message.Event == string(model.EventGameClosed) {
				event, render = EventClosed, renderer.Closed
			} else if !changesBoard(message.Event) {
				continue
			}

			html, err := render(r.Context())
			if err != nil {
				logger.Warn("board render failed",
					slog.String("client_id", clientID),
					slog.String("error", err.Error()))
				continue
			}
			if _, err := w.Write(telemetry.FormatSSEMessage(event, html)); err != nil {
				return
			}
			flusher.Flush()
			if event == EventClosed {
				return
			}

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// changesBoard reports whether an event moves something on the grid
func changesBoard(event string) bool {
	switch model.EventType(event) {
	case model.EventObjectAdded, model.EventObjectRemoved, model.EventObjectMoved,
		model.EventObjectTurned, model.EventObjectRotated, model.EventObjectDestroyed,
		model.EventBackedInHistory:
		return true
	}
	return false
}
