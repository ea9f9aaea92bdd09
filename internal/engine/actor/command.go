package actor

import (
	"math"

	"github.com/mcoot/gridrace/internal/model"
)

// CommandKind identifies what a car should do
type CommandKind string

const (
	CommandMoveForward   CommandKind = "MOVE_FORWARD"
	CommandTurnLeft      CommandKind = "TURN_LEFT"
	CommandTurnRight     CommandKind = "TURN_RIGHT"
	CommandBackInHistory CommandKind = "BACK_IN_HISTORY"
	CommandStopEngine    CommandKind = "STOP_ENGINE"
	CommandDestroy       CommandKind = "DESTROY"
	CommandBlank         CommandKind = "BLANK" // Keeps a game's idle window open
)

// Command priorities. Higher values are handled first.
const (
	PriorityDefault = 0
	PriorityHistory = 10
	PriorityMax     = math.MaxInt
)

// Command is a message addressed to a car
type Command struct {
	Car      string
	Kind     CommandKind
	Priority int
	Distance *int
	History  []model.HistoryMove
}

// MoveForward builds a forward move. A nil distance uses the car's maximum.
func MoveForward(car string, distance *int) Command {
	return Command{Car: car, Kind: CommandMoveForward, Distance: distance}
}

// TurnLeft builds a left turn
func TurnLeft(car string) Command {
	return Command{Car: car, Kind: CommandTurnLeft}
}

// TurnRight builds a right turn
func TurnRight(car string) Command {
	return Command{Car: car, Kind: CommandTurnRight}
}

// BackInHistory builds a rewind over moves ordered most recent first
func BackInHistory(car string, moves []model.HistoryMove) Command {
	return Command{Car: car, Kind: CommandBackInHistory, Priority: PriorityHistory, History: moves}
}

// StopEngine builds a graceful stop
func StopEngine(car string) Command {
	return Command{Car: car, Kind: CommandStopEngine, Priority: PriorityMax}
}

// Destroy builds a terminal stop after a lost collision
func Destroy(car string) Command {
	return Command{Car: car, Kind: CommandDestroy, Priority: PriorityMax}
}

// Blank builds a command that is routed nowhere
func Blank() Command {
	return Command{Kind: CommandBlank}
}

// EventSink receives event batches from an actor
type EventSink interface {
	Publish(events []model.Event)
}
