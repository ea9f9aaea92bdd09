package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	// Grid events
	EventObjectAdded     EventType = "object_added"
	EventObjectRemoved   EventType = "object_removed"
	EventObjectMoved     EventType = "object_moved"
	EventObjectTurned    EventType = "object_turned"
	EventObjectRotated   EventType = "object_rotated"
	EventObjectDestroyed EventType = "object_destroyed"

	// Car events
	EventHistoryInProgress EventType = "history_in_progress"
	EventBackedInHistory   EventType = "backed_in_history"

	// Game events
	EventGameClosed EventType = "game_closed"
)

// Event is the base structure for all engine events
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	GameID    GameID    `json:"game_id"`          // Zero until stamped by the owning game
	Object    string    `json:"object,omitempty"` // Name of the object the event is about; empty for game events
	Payload   any       `json:"payload"`          // Type-specific data
}

// ObjectAddedPayload contains data for object added events
type ObjectAddedPayload struct {
	Position  Position  `json:"position"`
	Direction Direction `json:"direction"`
}

// ObjectRemovedPayload contains data for object removed events
type ObjectRemovedPayload struct {
	Position Position `json:"position"`
}

// ObjectMovedPayload contains data for object moved events
type ObjectMovedPayload struct {
	From      Position  `json:"from"`
	To        Position  `json:"to"`
	Direction Direction `json:"direction"`
}

// Distance returns the Manhattan distance travelled
func (p ObjectMovedPayload) Distance() int {
	return abs(p.To.X-p.From.X) + abs(p.To.Y-p.From.Y)
}

// ObjectTurnedPayload contains data for object turned events
type ObjectTurnedPayload struct {
	Direction Direction `json:"direction"`
	Turn      Turn      `json:"turn"`
}

// ObjectRotatedPayload contains data for object rotated events
type ObjectRotatedPayload struct {
	Direction Direction `json:"direction"`
}

// ObjectDestroyedPayload contains data for object destroyed events.
// Direction is set only when the object drove off the grid.
type ObjectDestroyedPayload struct {
	Position  Position   `json:"position"`
	Direction *Direction `json:"direction,omitempty"`
}

// BackedInHistoryPayload contains data for backed in history events
type BackedInHistoryPayload struct {
	Requested int `json:"requested"`
	Handled   int `json:"handled"`
}

// GameClosedPayload contains data for game closed events
type GameClosedPayload struct {
	GameName string `json:"game_name"`
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
