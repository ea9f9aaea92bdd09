package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/gridrace/internal/model"
	"github.com/mcoot/gridrace/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Car operations

func (s *Storage) SaveCar(ctx context.Context, car *model.Car) error {
	data, err := json.Marshal(car)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, carKey(car.Name), data, 0)
	pipe.SAdd(ctx, carsIndexKey(), car.Name)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetCar(ctx context.Context, name string) (*model.Car, error) {
	var car model.Car
	if err := s.getJSON(ctx, carKey(name), &car, model.ErrCarNotFound); err != nil {
		return nil, err
	}
	return &car, nil
}

func (s *Storage) ListCars(ctx context.Context) ([]*model.Car, error) {
	names, err := s.client.SMembers(ctx, carsIndexKey()).Result()
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = carKey(name)
	}

	cars, err := mgetJSON[model.Car](ctx, s.client, keys)
	if err != nil {
		return nil, err
	}
	sort.Slice(cars, func(i, j int) bool { return cars[i].Name < cars[j].Name })
	return cars, nil
}

func (s *Storage) DeleteCar(ctx context.Context, name string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, carKey(name))
	pipe.SRem(ctx, carsIndexKey(), name)
	_, err := pipe.Exec(ctx)
	return err
}

// Map operations

func (s *Storage) SaveMap(ctx context.Context, m *model.GameMap) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, mapKey(m.Name), data, 0)
	pipe.SAdd(ctx, mapsIndexKey(), m.Name)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetMap(ctx context.Context, name string) (*model.GameMap, error) {
	var m model.GameMap
	if err := s.getJSON(ctx, mapKey(name), &m, model.ErrMapNotFound); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Storage) ListMaps(ctx context.Context) ([]*model.GameMap, error) {
	names, err := s.client.SMembers(ctx, mapsIndexKey()).Result()
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = mapKey(name)
	}

	maps, err := mgetJSON[model.GameMap](ctx, s.client, keys)
	if err != nil {
		return nil, err
	}
	sort.Slice(maps, func(i, j int) bool { return maps[i].Name < maps[j].Name })
	return maps, nil
}

// Game operations

func (s *Storage) CreateGame(ctx context.Context, game *model.Game) error {
	id, err := s.client.Incr(ctx, gameSequenceKey()).Result()
	if err != nil {
		return err
	}
	game.ID = model.GameID(id)
	return s.writeGame(ctx, game)
}

func (s *Storage) SaveGame(ctx context.Context, game *model.Game) error {
	exists, err := s.client.Exists(ctx, gameKey(game.ID)).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return model.ErrGameNotFound
	}
	return s.writeGame(ctx, game)
}

func (s *Storage) writeGame(ctx context.Context, game *model.Game) error {
	data, err := json.Marshal(game)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, gameKey(game.ID), data, 0)
	pipe.SAdd(ctx, gamesIndexKey(), int64(game.ID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	var game model.Game
	if err := s.getJSON(ctx, gameKey(id), &game, model.ErrGameNotFound); err != nil {
		return nil, err
	}
	return &game, nil
}

func (s *Storage) ListGames(ctx context.Context, statuses ...model.GameStatus) ([]*model.Game, error) {
	ids, err := s.gameIDs(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = gameKey(id)
	}

	all, err := mgetJSON[model.Game](ctx, s.client, keys)
	if err != nil {
		return nil, err
	}

	games := make([]*model.Game, 0, len(all))
	for _, g := range all {
		if len(statuses) == 0 || containsStatus(statuses, g.Status) {
			games = append(games, g)
		}
	}
	sort.Slice(games, func(i, j int) bool { return games[i].ID < games[j].ID })
	return games, nil
}

// Move event operations

func (s *Storage) AppendMoveEvent(ctx context.Context, event *model.CarMoveEvent) error {
	id, err := s.client.Incr(ctx, moveSequenceKey()).Result()
	if err != nil {
		return err
	}
	event.ID = id

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	key := movesKey(event.GameID)
	pipe := s.client.Pipeline()
	pipe.RPush(ctx, key, data)
	if s.cfg.MoveHistoryTTL > 0 {
		pipe.Expire(ctx, key, s.cfg.MoveHistoryTTL)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) ListMoveEvents(ctx context.Context, filter model.MoveFilter) ([]*model.CarMoveEvent, error) {
	gameIDs := filter.GameIDs
	if len(gameIDs) == 0 {
		var err error
		if gameIDs, err = s.gameIDs(ctx); err != nil {
			return nil, err
		}
	}

	// Fetch every game's list in one round trip
	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringSliceCmd, len(gameIDs))
	for i, id := range gameIDs {
		cmds[i] = pipe.LRange(ctx, movesKey(id), 0, -1)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	var events []*model.CarMoveEvent
	for _, cmd := range cmds {
		for _, raw := range cmd.Val() {
			var e model.CarMoveEvent
			if err := json.Unmarshal([]byte(raw), &e); err != nil {
				return nil, err
			}
			if filter.Matches(e) {
				events = append(events, &e)
			}
		}
	}
	return storage.SortAndLimitMoves(events, filter.Limit), nil
}

func (s *Storage) gameIDs(ctx context.Context) ([]model.GameID, error) {
	members, err := s.client.SMembers(ctx, gamesIndexKey()).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]model.GameID, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, model.GameID(id))
	}
	return ids, nil
}

func (s *Storage) getJSON(ctx context.Context, key string, v any, notFound error) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return notFound
		}
		return err
	}
	return json.Unmarshal(data, v)
}

// mgetJSON loads many JSON values at once, skipping keys that have vanished
func mgetJSON[T any](ctx context.Context, client *redis.Client, keys []string) ([]*T, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	values, err := client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]*T, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var item T
		if err := json.Unmarshal([]byte(str), &item); err != nil {
			return nil, err
		}
		out = append(out, &item)
	}
	return out, nil
}

func containsStatus(statuses []model.GameStatus, status model.GameStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
