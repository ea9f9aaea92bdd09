package model

import (
	"slices"
	"time"
)

// GameID uniquely identifies a game
type GameID int64

// GameStatus represents the lifecycle of a persisted game
type GameStatus string

const (
	GameStatusRunning     GameStatus = "RUNNING"
	GameStatusFinished    GameStatus = "FINISHED"
	GameStatusInterrupted GameStatus = "INTERRUPTED" // Left running by a previous process
)

// Game is a persisted race on a map
type Game struct {
	ID         GameID
	Name       string
	MapName    string
	Status     GameStatus
	Cars       []string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// HasCar returns true if the car has taken part in the game
func (g *Game) HasCar(name string) bool {
	return slices.Contains(g.Cars, name)
}

// MoveType is the kind of a recorded car movement
type MoveType string

const (
	MoveForward   MoveType = "FORWARD"
	MoveTurnLeft  MoveType = "TURN_LEFT"
	MoveTurnRight MoveType = "TURN_RIGHT"
)

// CarMoveEvent is a recorded movement of a car in a game
type CarMoveEvent struct {
	ID        int64
	Car       string
	GameID    GameID
	Type      MoveType
	Distance  int
	Timestamp time.Time
}

// HistoryMove is a past move supplied to a car rewind, most recent first
type HistoryMove struct {
	Type      MoveType
	Distance  int
	Timestamp time.Time
}

// MoveFilter selects recorded move events. Zero values match everything.
type MoveFilter struct {
	Cars    []string
	GameIDs []GameID
	Limit   int
}

// Matches returns true if the event passes the filter's car and game criteria
func (f MoveFilter) Matches(e CarMoveEvent) bool {
	if len(f.Cars) > 0 && !slices.Contains(f.Cars, e.Car) {
		return false
	}
	return len(f.GameIDs) == 0 || slices.Contains(f.GameIDs, e.GameID)
}
