package redis

import (
	"fmt"

	"github.com/mcoot/gridrace/internal/model"
)

// Key prefix for all race data
const keyPrefix = "gridrace"

// carKey returns the Redis key for a Car
func carKey(name string) string {
	return fmt.Sprintf("%s:car:%s", keyPrefix, name)
}

// carsIndexKey returns the Redis key for the SET of car names
func carsIndexKey() string {
	return fmt.Sprintf("%s:idx:cars", keyPrefix)
}

// mapKey returns the Redis key for a GameMap
func mapKey(name string) string {
	return fmt.Sprintf("%s:map:%s", keyPrefix, name)
}

// mapsIndexKey returns the Redis key for the SET of map names
func mapsIndexKey() string {
	return fmt.Sprintf("%s:idx:maps", keyPrefix)
}

// gameKey returns the Redis key for a Game
func gameKey(id model.GameID) string {
	return fmt.Sprintf("%s:game:%d", keyPrefix, id)
}

// gamesIndexKey returns the Redis key for the SET of game ids
func gamesIndexKey() string {
	return fmt.Sprintf("%s:idx:games", keyPrefix)
}

// gameSequenceKey returns the Redis key of the game id counter
func gameSequenceKey() string {
	return fmt.Sprintf("%s:seq:game", keyPrefix)
}

// movesKey returns the Redis key for the LIST of move events of a game
func movesKey(id model.GameID) string {
	return fmt.Sprintf("%s:moves:%d", keyPrefix, id)
}

// moveSequenceKey returns the Redis key of the move event id counter
func moveSequenceKey() string {
	return fmt.Sprintf("%s:seq:move", keyPrefix)
}
