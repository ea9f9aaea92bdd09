package grid

import (
	"math"
	"sync"

	"github.com/mcoot/gridrace/internal/model"
)

// Object is anything that occupies a grid cell
type Object interface {
	Name() string
	Toughness() int
}

// Stationary is a wall. It never moves and always wins a collision.
type Stationary struct {
	name string
}

// NewStationary creates a wall object
func NewStationary(name string) *Stationary {
	return &Stationary{name: name}
}

func (s *Stationary) Name() string   { return s.name }
func (s *Stationary) Toughness() int { return math.MaxInt }

// Movable is a car on the grid
type Movable struct {
	name      string
	toughness int
	strategy  MovementStrategy

	mu        sync.RWMutex
	direction model.Direction
}

// NewMovable creates a movable object facing north
func NewMovable(name string, toughness int, strategy MovementStrategy) *Movable {
	return &Movable{
		name:      name,
		toughness: toughness,
		strategy:  strategy,
		direction: model.North,
	}
}

// NewCar creates a movable object configured for the given car class
func NewCar(name string, t model.CarType) *Movable {
	return NewMovable(name, ToughnessFor(t), StrategyFor(t))
}

func (m *Movable) Name() string               { return m.name }
func (m *Movable) Toughness() int             { return m.toughness }
func (m *Movable) Strategy() MovementStrategy { return m.strategy }

// Direction returns the current orientation
func (m *Movable) Direction() model.Direction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.direction
}

func (m *Movable) turn(f func(model.Direction) model.Direction) model.Direction {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.direction = f(m.direction)
	return m.direction
}
