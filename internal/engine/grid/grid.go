// Package grid holds the shared board of a single game.
//
// Two locking disciplines keep it consistent. Adding and removing objects is
// serialized by a structural mutex. Moves lock the source and target cells,
// always in Position order, so two cars crossing paths cannot deadlock. The
// name and empty-cell indexes sit behind a short index mutex that is never
// held while a cell lock is being acquired.
package grid

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/mcoot/gridrace/internal/dependencies/clock"
	"github.com/mcoot/gridrace/internal/dependencies/random"
	"github.com/mcoot/gridrace/internal/model"
)

// Grid is an n×n board of cells
type Grid struct {
	size  int
	clock clock.Clock
	cells map[model.Position]*cell // fixed after New

	structMu sync.Mutex

	indexMu   sync.Mutex
	movables  map[string]*Movable
	positions map[string]model.Position
	empty     map[model.Position]struct{}
}

type cell struct {
	mu      sync.Mutex
	objects []Object
}

func (c *cell) without(name string) {
	kept := c.objects[:0]
	for _, o := range c.objects {
		if o.Name() != name {
			kept = append(kept, o)
		}
	}
	c.objects = kept
}

// New builds a grid from a square matrix indexed as roads[y-1][x-1].
// Zero cells hold a wall, all other cells start empty.
func New(roads [][]int, clk clock.Clock) (*Grid, error) {
	n := len(roads)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty matrix", model.ErrInvalidMap)
	}

	g := &Grid{
		size:      n,
		clock:     clk,
		cells:     make(map[model.Position]*cell, n*n),
		movables:  make(map[string]*Movable),
		positions: make(map[string]model.Position),
		empty:     make(map[model.Position]struct{}),
	}

	for y := 1; y <= n; y++ {
		row := roads[y-1]
		if len(row) != n {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", model.ErrInvalidMap, y, len(row), n)
		}
		for x := 1; x <= n; x++ {
			pos := model.Position{X: x, Y: y}
			c := &cell{}
			if row[x-1] == model.CellWall {
				c.objects = []Object{NewStationary(uuid.NewString())}
			} else {
				g.empty[pos] = struct{}{}
			}
			g.cells[pos] = c
		}
	}

	return g, nil
}

// Size returns the grid edge length
func (g *Grid) Size() int {
	return g.size
}

// AddObject places a movable object on an empty cell
func (g *Grid) AddObject(pos model.Position, m *Movable) (model.Event, error) {
	g.structMu.Lock()
	defer g.structMu.Unlock()

	if g.EmptyCount() == 0 {
		return model.Event{}, model.ErrNoEmptyPositions
	}
	if !pos.InRange(g.size) {
		return model.Event{}, fmt.Errorf("%w: %s on a %dx%d grid", model.ErrPositionOutOfRange, pos, g.size, g.size)
	}
	if _, ok := g.PositionOf(m.Name()); ok {
		return model.Event{}, fmt.Errorf("%w: %s", model.ErrCarIsBeingUsedInGame, m.Name())
	}

	c := g.cells[pos]
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.objects) > 0 {
		return model.Event{}, fmt.Errorf("%w: %s", model.ErrPositionAlreadyTaken, pos)
	}

	c.objects = append(c.objects, m)
	dir := m.turn(func(model.Direction) model.Direction { return model.North })

	g.indexMu.Lock()
	g.movables[m.Name()] = m
	g.positions[m.Name()] = pos
	delete(g.empty, pos)
	g.indexMu.Unlock()

	return g.event(model.EventObjectAdded, m.Name(), model.ObjectAddedPayload{Position: pos, Direction: dir}), nil
}

// RemoveObject takes a movable object off the grid. Unknown names are ignored.
func (g *Grid) RemoveObject(name string) []model.Event {
	g.structMu.Lock()
	defer g.structMu.Unlock()

	for {
		pos, ok := g.PositionOf(name)
		if !ok {
			return nil
		}

		c := g.cells[pos]
		c.mu.Lock()
		// The object may have moved between the lookup and the lock
		if cur, ok := g.PositionOf(name); !ok || cur != pos {
			c.mu.Unlock()
			continue
		}

		c.without(name)
		g.indexMu.Lock()
		g.forget(name)
		if len(c.objects) == 0 {
			g.empty[pos] = struct{}{}
		}
		g.indexMu.Unlock()
		c.mu.Unlock()

		return []model.Event{g.event(model.EventObjectRemoved, name, model.ObjectRemovedPayload{Position: pos})}
	}
}

// MoveForward moves an object in the direction it faces. A nil distance
// uses the strategy's maximum. Leaving the grid destroys the object.
func (g *Grid) MoveForward(name string, distance *int) ([]model.Event, error) {
	m, from, ok := g.lookup(name)
	if !ok {
		return nil, nil
	}

	dir := m.Direction()
	to, err := m.strategy.Target(from, dir, distance)
	if err != nil {
		return nil, err
	}

	if !to.InRange(g.size) {
		return g.driveOff(name, from, to, dir), nil
	}

	src, dst := g.cells[from], g.cells[to]
	first, second := src, dst
	if to.Less(from) {
		first, second = dst, src
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	if cur, ok := g.PositionOf(name); !ok || cur != from {
		return nil, nil
	}

	events := g.resolveCollisions(from, src)
	if !g.Contains(name) {
		return events, nil
	}

	src.without(name)
	dst.objects = append(dst.objects, m)
	g.indexMu.Lock()
	g.positions[name] = to
	if len(src.objects) == 0 {
		g.empty[from] = struct{}{}
	}
	delete(g.empty, to)
	g.indexMu.Unlock()

	events = append(events, g.resolveCollisions(to, dst)...)
	if g.Contains(name) {
		events = append(events, g.event(model.EventObjectMoved, name, model.ObjectMovedPayload{
			From:      from,
			To:        to,
			Direction: dir,
		}))
	}
	return events, nil
}

// TurnLeft turns an object 90° counter-clockwise
func (g *Grid) TurnLeft(name string) []model.Event {
	return g.turn(name, model.Direction.TurnLeft, model.TurnLeft)
}

// TurnRight turns an object 90° clockwise
func (g *Grid) TurnRight(name string) []model.Event {
	return g.turn(name, model.Direction.TurnRight, model.TurnRight)
}

// ReverseTurnLeft undoes a left turn
func (g *Grid) ReverseTurnLeft(name string) []model.Event {
	return g.turn(name, model.Direction.TurnRight, model.TurnRight)
}

// ReverseTurnRight undoes a right turn
func (g *Grid) ReverseTurnRight(name string) []model.Event {
	return g.turn(name, model.Direction.TurnLeft, model.TurnLeft)
}

// Rotate turns an object to face the opposite direction
func (g *Grid) Rotate(name string) []model.Event {
	m, _, ok := g.lookup(name)
	if !ok {
		return nil
	}
	dir := m.turn(model.Direction.Rotate)
	return []model.Event{g.event(model.EventObjectRotated, name, model.ObjectRotatedPayload{Direction: dir})}
}

func (g *Grid) turn(name string, f func(model.Direction) model.Direction, t model.Turn) []model.Event {
	m, _, ok := g.lookup(name)
	if !ok {
		return nil
	}
	dir := m.turn(f)
	return []model.Event{g.event(model.EventObjectTurned, name, model.ObjectTurnedPayload{Direction: dir, Turn: t})}
}

// PositionOf returns the position of a movable object
func (g *Grid) PositionOf(name string) (model.Position, bool) {
	g.indexMu.Lock()
	defer g.indexMu.Unlock()
	pos, ok := g.positions[name]
	return pos, ok
}

// Movable returns a movable object by name
func (g *Grid) Movable(name string) (*Movable, bool) {
	m, _, ok := g.lookup(name)
	return m, ok
}

// Contains returns true if a movable object with the name is on the grid
func (g *Grid) Contains(name string) bool {
	_, ok := g.PositionOf(name)
	return ok
}

// EmptyCount returns the number of free road cells
func (g *Grid) EmptyCount() int {
	g.indexMu.Lock()
	defer g.indexMu.Unlock()
	return len(g.empty)
}

// RandomEmptyPosition picks a free road cell
func (g *Grid) RandomEmptyPosition(rnd random.Random) (model.Position, error) {
	g.indexMu.Lock()
	free := make([]model.Position, 0, len(g.empty))
	for pos := range g.empty {
		free = append(free, pos)
	}
	g.indexMu.Unlock()

	if len(free) == 0 {
		return model.Position{}, model.ErrNoEmptyPositions
	}
	sort.Slice(free, func(i, j int) bool { return free[i].Less(free[j]) })
	return free[rnd.Intn(len(free))], nil
}

// ObjectsAt returns the names of the objects in a cell
func (g *Grid) ObjectsAt(pos model.Position) []string {
	c, ok := g.cells[pos]
	if !ok {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.objects))
	for _, o := range c.objects {
		names = append(names, o.Name())
	}
	return names
}

func (g *Grid) lookup(name string) (*Movable, model.Position, bool) {
	g.indexMu.Lock()
	defer g.indexMu.Unlock()
	m, ok := g.movables[name]
	if !ok {
		return nil, model.Position{}, false
	}
	return m, g.positions[name], true
}

// forget drops a name from the indexes. indexMu must be held.
func (g *Grid) forget(name string) {
	delete(g.movables, name)
	delete(g.positions, name)
}

func (g *Grid) driveOff(name string, from, to model.Position, dir model.Direction) []model.Event {
	c := g.cells[from]
	c.mu.Lock()
	defer c.mu.Unlock()

	if cur, ok := g.PositionOf(name); !ok || cur != from {
		return nil
	}

	c.without(name)
	g.indexMu.Lock()
	g.forget(name)
	if len(c.objects) == 0 {
		g.empty[from] = struct{}{}
	}
	g.indexMu.Unlock()

	return []model.Event{g.event(model.EventObjectDestroyed, name, model.ObjectDestroyedPayload{
		Position:  to,
		Direction: &dir,
	})}
}

// resolveCollisions settles a cell until at most one object remains.
// The two weakest occupants are compared each round: the weaker is
// destroyed, and on equal toughness both are. The cell lock must be held.
func (g *Grid) resolveCollisions(pos model.Position, c *cell) []model.Event {
	var events []model.Event
	for len(c.objects) > 1 {
		sort.SliceStable(c.objects, func(i, j int) bool {
			return c.objects[i].Toughness() < c.objects[j].Toughness()
		})

		losers := []Object{c.objects[0]}
		if c.objects[0].Toughness() == c.objects[1].Toughness() {
			losers = append(losers, c.objects[1])
		}

		g.indexMu.Lock()
		for _, o := range losers {
			c.without(o.Name())
			g.forget(o.Name())
		}
		if len(c.objects) == 0 {
			g.empty[pos] = struct{}{}
		}
		g.indexMu.Unlock()

		for _, o := range losers {
			events = append(events, g.event(model.EventObjectDestroyed, o.Name(), model.ObjectDestroyedPayload{Position: pos}))
		}
	}
	return events
}

func (g *Grid) event(t model.EventType, name string, payload any) model.Event {
	return model.Event{
		Type:      t,
		Timestamp: g.clock.Now(),
		Object:    name,
		Payload:   payload,
	}
}
