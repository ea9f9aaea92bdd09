package model

import "fmt"

// Position is a 1-indexed cell coordinate on a grid
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Less orders positions by X, then Y. Cell locks are always taken in this order.
func (p Position) Less(other Position) bool {
	if p.X != other.X {
		return p.X < other.X
	}
	return p.Y < other.Y
}

// InRange reports whether the position lies inside an n×n grid
func (p Position) InRange(n int) bool {
	return p.X >= 1 && p.X <= n && p.Y >= 1 && p.Y <= n
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Direction is a compass orientation
type Direction string

const (
	North Direction = "NORTH"
	South Direction = "SOUTH"
	East  Direction = "EAST"
	West  Direction = "WEST"
)

// TurnLeft returns the direction after a 90° counter-clockwise turn
func (d Direction) TurnLeft() Direction {
	switch d {
	case North:
		return West
	case West:
		return South
	case South:
		return East
	default:
		return North
	}
}

// TurnRight returns the direction after a 90° clockwise turn
func (d Direction) TurnRight() Direction {
	switch d {
	case North:
		return East
	case East:
		return South
	case South:
		return West
	default:
		return North
	}
}

// Rotate returns the opposite direction
func (d Direction) Rotate() Direction {
	return d.TurnLeft().TurnLeft()
}

// Valid reports whether d is one of the four compass directions
func (d Direction) Valid() bool {
	switch d {
	case North, South, East, West:
		return true
	}
	return false
}

// Turn is the logical direction of a turn
type Turn string

const (
	TurnLeft  Turn = "LEFT"
	TurnRight Turn = "RIGHT"
)
