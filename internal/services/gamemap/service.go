package gamemap

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mcoot/gridrace/internal/model"
	"github.com/mcoot/gridrace/internal/storage"
)

// Service manages uploaded maps
type Service struct {
	storage storage.Storage
	logger  *slog.Logger
}

// New creates a new map Service
func New(storage storage.Storage, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger.With(slog.String("component", "map_service")),
	}
}

// Upload parses a CSV matrix, validates it and stores it as an active map.
// A deleted map may be replaced by a new upload with the same name.
func (s *Service) Upload(ctx context.Context, name string, r io.Reader) (*model.GameMap, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", model.ErrInvalidMap)
	}

	existing, err := s.storage.GetMap(ctx, name)
	switch {
	case err == nil && existing.Status != model.MapStatusDeleted:
		return nil, model.ErrMapAlreadyExists
	case err != nil && !errors.Is(err, model.ErrMapNotFound):
		return nil, err
	}

	roads, err := ParseCSV(r)
	if err != nil {
		return nil, err
	}
	if err := Validate(roads); err != nil {
		return nil, err
	}

	m := &model.GameMap{
		Name:   name,
		Size:   len(roads),
		Roads:  roads,
		Status: model.MapStatusActive,
	}
	if err := s.storage.SaveMap(ctx, m); err != nil {
		s.logger.Error("failed to save map",
			slog.String("map", name),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.Info("map uploaded",
		slog.String("map", name),
		slog.Int("size", m.Size),
	)
	return m, nil
}

// Get returns a map by name
func (s *Service) Get(ctx context.Context, name string) (*model.GameMap, error) {
	return s.storage.GetMap(ctx, name)
}

// GetActive returns a map that can host a new game
func (s *Service) GetActive(ctx context.Context, name string) (*model.GameMap, error) {
	m, err := s.storage.GetMap(ctx, name)
	if err != nil {
		return nil, err
	}
	if m.Status == model.MapStatusDeleted {
		return nil, model.ErrMapNotFound
	}
	return m, nil
}

// List returns every stored map, deleted ones included
func (s *Service) List(ctx context.Context) ([]*model.GameMap, error) {
	return s.storage.ListMaps(ctx)
}

// Delete marks a map as deleted. Maps used by a running game cannot be deleted.
func (s *Service) Delete(ctx context.Context, name string) error {
	m, err := s.storage.GetMap(ctx, name)
	if err != nil {
		return err
	}
	if m.Status == model.MapStatusDeleted {
		return model.ErrMapNotFound
	}

	running, err := s.storage.ListGames(ctx, model.GameStatusRunning)
	if err != nil {
		return err
	}
	for _, g := range running {
		if g.MapName == name {
			return model.ErrMapInUse
		}
	}

	m.Status = model.MapStatusDeleted
	if err := s.storage.SaveMap(ctx, m); err != nil {
		return err
	}
	s.logger.Info("map deleted", slog.String("map", name))
	return nil
}

// ParseCSV reads an N×N integer matrix. Rows may not differ in length.
func ParseCSV(r io.Reader) ([][]int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var roads [][]int
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrInvalidMap, err)
		}

		row := make([]int, len(record))
		for i, field := range record {
			v, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil {
				return nil, fmt.Errorf("%w: row %d column %d: %q is not a number", model.ErrInvalidMap, len(roads)+1, i+1, field)
			}
			row[i] = v
		}
		roads = append(roads, row)
	}

	if len(roads) == 0 {
		return nil, fmt.Errorf("%w: map is empty", model.ErrInvalidMap)
	}
	for _, row := range roads {
		if len(row) != len(roads) {
			return nil, fmt.Errorf("%w: map should be an N x N matrix", model.ErrInvalidMap)
		}
	}
	return roads, nil
}

// Validate checks the matrix shape and that all road cells form one
// continuous road.
func Validate(roads [][]int) error {
	if len(roads) == 0 {
		return fmt.Errorf("%w: map is empty", model.ErrInvalidMap)
	}
	for _, row := range roads {
		if len(row) != len(roads) {
			return fmt.Errorf("%w: map should be an N x N matrix", model.ErrInvalidMap)
		}
	}
	if !RoadsConnected(roads) {
		return model.ErrRoadsNotConnected
	}
	return nil
}

// RoadsConnected reports whether every cell holding CellRoad is reachable
// from every other through 4-neighbour steps. A map without roads passes.
func RoadsConnected(roads [][]int) bool {
	type cell struct{ row, col int }

	var start *cell
	total := 0
	for r, row := range roads {
		for c, v := range row {
			if v == model.CellRoad {
				total++
				if start == nil {
					start = &cell{r, c}
				}
			}
		}
	}
	if start == nil {
		return true
	}

	visited := map[cell]bool{*start: true}
	pending := []cell{*start}
	for len(pending) > 0 {
		cur := pending[0]
		pending = pending[1:]
		for _, next := range []cell{
			{cur.row - 1, cur.col},
			{cur.row + 1, cur.col},
			{cur.row, cur.col - 1},
			{cur.row, cur.col + 1},
		} {
			if next.row < 0 || next.row >= len(roads) || next.col < 0 || next.col >= len(roads[next.row]) {
				continue
			}
			if roads[next.row][next.col] != model.CellRoad || visited[next] {
				continue
			}
			visited[next] = true
			pending = append(pending, next)
		}
	}
	return len(visited) == total
}
