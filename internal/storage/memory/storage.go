package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/gridrace/internal/model"
	"github.com/mcoot/gridrace/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Values are copied on the way in and out so callers never share state.
type Storage struct {
	mu sync.RWMutex

	cars       map[string]model.Car
	maps       map[string]model.GameMap
	games      map[model.GameID]model.Game
	moves      []model.CarMoveEvent
	lastGameID model.GameID
	lastMoveID int64
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		cars:  make(map[string]model.Car),
		maps:  make(map[string]model.GameMap),
		games: make(map[model.GameID]model.Game),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Car operations

func (s *Storage) SaveCar(ctx context.Context, car *model.Car) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cars[car.Name] = *car
	return nil
}

func (s *Storage) GetCar(ctx context.Context, name string) (*model.Car, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	car, ok := s.cars[name]
	if !ok {
		return nil, model.ErrCarNotFound
	}
	return &car, nil
}

func (s *Storage) ListCars(ctx context.Context) ([]*model.Car, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cars := make([]*model.Car, 0, len(s.cars))
	for _, car := range s.cars {
		c := car
		cars = append(cars, &c)
	}
	sort.Slice(cars, func(i, j int) bool { return cars[i].Name < cars[j].Name })
	return cars, nil
}

func (s *Storage) DeleteCar(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cars, name)
	return nil
}

// Map operations

func (s *Storage) SaveMap(ctx context.Context, m *model.GameMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	cp.Roads = copyRoads(m.Roads)
	s.maps[m.Name] = cp
	return nil
}

func (s *Storage) GetMap(ctx context.Context, name string) (*model.GameMap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.maps[name]
	if !ok {
		return nil, model.ErrMapNotFound
	}
	m.Roads = copyRoads(m.Roads)
	return &m, nil
}

func (s *Storage) ListMaps(ctx context.Context) ([]*model.GameMap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	maps := make([]*model.GameMap, 0, len(s.maps))
	for _, m := range s.maps {
		cp := m
		cp.Roads = copyRoads(m.Roads)
		maps = append(maps, &cp)
	}
	sort.Slice(maps, func(i, j int) bool { return maps[i].Name < maps[j].Name })
	return maps, nil
}

// Game operations

func (s *Storage) CreateGame(ctx context.Context, game *model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastGameID++
	game.ID = s.lastGameID
	s.games[game.ID] = copyGame(*game)
	return nil
}

func (s *Storage) SaveGame(ctx context.Context, game *model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[game.ID]; !ok {
		return model.ErrGameNotFound
	}
	s.games[game.ID] = copyGame(*game)
	return nil
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[id]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	cp := copyGame(game)
	return &cp, nil
}

func (s *Storage) ListGames(ctx context.Context, statuses ...model.GameStatus) ([]*model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	games := make([]*model.Game, 0, len(s.games))
	for _, game := range s.games {
		if !statusMatches(game.Status, statuses) {
			continue
		}
		cp := copyGame(game)
		games = append(games, &cp)
	}
	sort.Slice(games, func(i, j int) bool { return games[i].ID < games[j].ID })
	return games, nil
}

// Move event operations

func (s *Storage) AppendMoveEvent(ctx context.Context, event *model.CarMoveEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastMoveID++
	event.ID = s.lastMoveID
	s.moves = append(s.moves, *event)
	return nil
}

func (s *Storage) ListMoveEvents(ctx context.Context, filter model.MoveFilter) ([]*model.CarMoveEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var events []*model.CarMoveEvent
	for _, e := range s.moves {
		if filter.Matches(e) {
			ev := e
			events = append(events, &ev)
		}
	}
	return storage.SortAndLimitMoves(events, filter.Limit), nil
}

func copyRoads(roads [][]int) [][]int {
	out := make([][]int, len(roads))
	for i, row := range roads {
		out[i] = append([]int(nil), row...)
	}
	return out
}

func copyGame(g model.Game) model.Game {
	g.Cars = append([]string(nil), g.Cars...)
	if g.FinishedAt != nil {
		t := *g.FinishedAt
		g.FinishedAt = &t
	}
	return g
}

func statusMatches(status model.GameStatus, statuses []model.GameStatus) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
