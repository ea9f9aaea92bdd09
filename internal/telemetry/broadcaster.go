package telemetry

import (
	"encoding/json"
	"log/slog"

	"github.com/mcoot/gridrace/internal/model"
)

// Broadcaster turns engine events into telemetry messages
type Broadcaster struct {
	hubManager *HubManager
	logger     *slog.Logger
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hubManager *HubManager, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hubManager: hubManager,
		logger:     logger.With(slog.String("component", "telemetry-broadcaster")),
	}
}

// PublishEvent sends an event to the subscribers of its game and to the
// all-games subscribers. A closed game's hub is removed once the close
// event has been queued, which ends its streams.
func (b *Broadcaster) PublishEvent(event model.Event) {
	gameHub := b.hubManager.GetHub(event.GameID)
	allHub := b.hubManager.GetHub(AllGames)
	if gameHub == nil && allHub == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("telemetry failed to encode event",
			slog.String("type", string(event.Type)),
			slog.Int64("game_id", int64(event.GameID)),
			slog.Any("error", err))
		return
	}

	message := Message{Event: string(event.Type), Data: data}
	if gameHub != nil && event.GameID != AllGames {
		gameHub.Broadcast(message)
	}
	if allHub != nil {
		allHub.Broadcast(message)
	}

	if event.Type == model.EventGameClosed && event.GameID != AllGames {
		b.hubManager.RemoveHub(event.GameID)
	}
}
