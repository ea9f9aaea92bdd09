package response

import (
	"time"

	"github.com/mcoot/gridrace/internal/model"
)

// Car represents a stored car in API responses
type Car struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Crashed bool   `json:"crashed"`
	Used    bool   `json:"used"`
}

// CarFromModel converts a model.Car to a response Car
func CarFromModel(c *model.Car) Car {
	return Car{
		Name:    c.Name,
		Type:    string(c.Type),
		Crashed: c.Crashed,
		Used:    c.Used,
	}
}

// CarsFromModel converts a list of cars
func CarsFromModel(cars []*model.Car) []Car {
	result := make([]Car, len(cars))
	for i, c := range cars {
		result[i] = CarFromModel(c)
	}
	return result
}

// GameMap represents a map in API responses
type GameMap struct {
	Name   string  `json:"name"`
	Size   int     `json:"size"`
	Status string  `json:"status"`
	Roads  [][]int `json:"roads,omitempty"`
}

// GameMapFromModel converts a model.GameMap. The road matrix is only
// included when withRoads is set.
func GameMapFromModel(m *model.GameMap, withRoads bool) GameMap {
	gm := GameMap{
		Name:   m.Name,
		Size:   m.Size,
		Status: string(m.Status),
	}
	if withRoads {
		gm.Roads = m.Roads
	}
	return gm
}

// GameMapsFromModel converts a list of maps without their roads
func GameMapsFromModel(maps []*model.GameMap) []GameMap {
	result := make([]GameMap, len(maps))
	for i, m := range maps {
		result[i] = GameMapFromModel(m, false)
	}
	return result
}

// Game represents a game in API responses
type Game struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Map        string     `json:"map"`
	Status     string     `json:"status"`
	Cars       []string   `json:"cars"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// GameFromModel converts a model.Game
func GameFromModel(g *model.Game) Game {
	cars := g.Cars
	if cars == nil {
		cars = []string{}
	}
	return Game{
		ID:         int64(g.ID),
		Name:       g.Name,
		Map:        g.MapName,
		Status:     string(g.Status),
		Cars:       cars,
		StartedAt:  g.StartedAt,
		FinishedAt: g.FinishedAt,
	}
}

// GamesFromModel converts a list of games
func GamesFromModel(games []*model.Game) []Game {
	result := make([]Game, len(games))
	for i, g := range games {
		result[i] = GameFromModel(g)
	}
	return result
}

// CarStatus is the live state of a car. Coordinates are 0-indexed.
type CarStatus struct {
	Name      string `json:"name"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Direction string `json:"direction"`
	Reverting bool   `json:"reverting,omitempty"`
}

// Snapshot is the live state of a running game
type Snapshot struct {
	GameID int64       `json:"game_id"`
	Cars   []CarStatus `json:"cars"`
}

// SnapshotFromModel converts a game's car states
func SnapshotFromModel(id model.GameID, cars []model.CarStatus) Snapshot {
	result := make([]CarStatus, len(cars))
	for i, c := range cars {
		result[i] = CarStatus{
			Name:      c.Name,
			X:         c.X,
			Y:         c.Y,
			Direction: string(c.Direction),
			Reverting: c.Reverting,
		}
	}
	return Snapshot{GameID: int64(id), Cars: result}
}

// MoveEvent is a recorded car movement
type MoveEvent struct {
	ID        int64     `json:"id"`
	Car       string    `json:"car"`
	GameID    int64     `json:"game_id"`
	Type      string    `json:"type"`
	Distance  int       `json:"distance,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// MoveEventsFromModel converts recorded movements
func MoveEventsFromModel(moves []*model.CarMoveEvent) []MoveEvent {
	result := make([]MoveEvent, len(moves))
	for i, m := range moves {
		result[i] = MoveEvent{
			ID:        m.ID,
			Car:       m.Car,
			GameID:    int64(m.GameID),
			Type:      string(m.Type),
			Distance:  m.Distance,
			Timestamp: m.Timestamp,
		}
	}
	return result
}

// CommandAccepted is returned when a car command has been queued in a game
type CommandAccepted struct {
	Car    string `json:"car"`
	GameID int64  `json:"game_id"`
}
