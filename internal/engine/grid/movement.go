package grid

import (
	"fmt"

	"github.com/mcoot/gridrace/internal/model"
)

// MovementStrategy decides where a single forward move ends
type MovementStrategy interface {
	// MaxDistance is the longest single move, also used when no distance is given
	MaxDistance() int

	// Target returns the position reached from `from` facing `dir`.
	// It does not check grid bounds.
	Target(from model.Position, dir model.Direction, distance *int) (model.Position, error)
}

// StraightMovement moves in a straight line up to a fixed number of cells
type StraightMovement struct {
	max int
}

var (
	// OnePosition is the strategy of standard cars
	OnePosition = StraightMovement{max: 1}
	// TwoPositions is the strategy of racers
	TwoPositions = StraightMovement{max: 2}
)

// MaxDistance returns the longest single move
func (s StraightMovement) MaxDistance() int {
	return s.max
}

// Target returns the position reached after moving the given distance
func (s StraightMovement) Target(from model.Position, dir model.Direction, distance *int) (model.Position, error) {
	n := s.max
	if distance != nil {
		n = *distance
	}
	if n <= 0 || n > s.max {
		return model.Position{}, fmt.Errorf("%w: %d not in 1..%d", model.ErrInvalidDistance, n, s.max)
	}

	switch dir {
	case model.North:
		return model.Position{X: from.X, Y: from.Y - n}, nil
	case model.South:
		return model.Position{X: from.X, Y: from.Y + n}, nil
	case model.East:
		return model.Position{X: from.X + n, Y: from.Y}, nil
	case model.West:
		return model.Position{X: from.X - n, Y: from.Y}, nil
	}
	return model.Position{}, fmt.Errorf("unknown direction %q", dir)
}

// StrategyFor returns the movement strategy of a car class
func StrategyFor(t model.CarType) MovementStrategy {
	if t == model.CarTypeRacer {
		return TwoPositions
	}
	return OnePosition
}

// ToughnessFor returns the collision toughness of a car class
func ToughnessFor(t model.CarType) int {
	if t == model.CarTypeMonsterTruck {
		return 2
	}
	return 1
}
