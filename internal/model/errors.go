package model

import "errors"

// Common errors used across the application
var (
	// Placement errors
	ErrPositionOutOfRange   = errors.New("position is out of range")
	ErrPositionAlreadyTaken = errors.New("position is already taken")
	ErrNoEmptyPositions     = errors.New("no empty positions available")

	// Routing errors
	ErrCarIsBeingUsedInGame = errors.New("car is already being used in a game")
	ErrCarNotInAnyGame      = errors.New("car is not being used in any game")
	ErrCarNotFoundInGame    = errors.New("car not found in game")
	ErrGameNotRunning       = errors.New("game is not running")
	ErrGameNotActive        = errors.New("game is not active")

	// Lifecycle errors
	ErrCarAlreadyStarted  = errors.New("car is already started")
	ErrGameAlreadyRunning = errors.New("game with this name is already running")

	// Input errors
	ErrWrongDistanceValue = errors.New("wrong distance value")
	ErrInvalidDistance    = errors.New("distance exceeds movement strategy bounds")
	ErrNoHistoricalMoves  = errors.New("no historical moves to back")
	ErrInvalidMap         = errors.New("invalid map")
	ErrRoadsNotConnected  = errors.New("map roads are not connected")
	ErrInvalidCarType     = errors.New("invalid car type")
	ErrNameRequired       = errors.New("name is required")

	// Store errors
	ErrCarNotFound      = errors.New("car not found")
	ErrCarAlreadyExists = errors.New("car already exists")
	ErrCarCrashed       = errors.New("car is crashed")
	ErrCarNotCrashed    = errors.New("car is not crashed")
	ErrCarInUse         = errors.New("car is in use")
	ErrMapNotFound      = errors.New("map not found")
	ErrMapAlreadyExists = errors.New("map already exists")
	ErrMapInUse         = errors.New("map is used by a running game")
	ErrGameNotFound     = errors.New("game not found")
)
