package model

// MapStatus is the lifecycle status of a stored map
type MapStatus string

const (
	MapStatusActive  MapStatus = "ACTIVE"
	MapStatusDeleted MapStatus = "DELETED"
)

// Cell values in a map matrix
const (
	CellWall = 0
	CellRoad = 1
)

// GameMap is a square road layout. Roads[y][x] is 0 for a wall and nonzero for road.
type GameMap struct {
	Name   string
	Size   int
	Roads  [][]int
	Status MapStatus
}
