package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/gridrace/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeInvalidPosition    = "INVALID_POSITION"
	CodeInvalidDistance    = "INVALID_DISTANCE"
	CodeInvalidMap         = "INVALID_MAP"
	CodeInvalidCarType     = "INVALID_CAR_TYPE"
	CodePositionTaken      = "POSITION_TAKEN"
	CodeNoEmptyPositions   = "NO_EMPTY_POSITIONS"
	CodeCarNotFound        = "CAR_NOT_FOUND"
	CodeCarExists          = "CAR_EXISTS"
	CodeCarCrashed         = "CAR_CRASHED"
	CodeCarNotCrashed      = "CAR_NOT_CRASHED"
	CodeCarInUse           = "CAR_IN_USE"
	CodeCarNotInGame       = "CAR_NOT_IN_GAME"
	CodeMapNotFound        = "MAP_NOT_FOUND"
	CodeMapExists          = "MAP_EXISTS"
	CodeMapInUse           = "MAP_IN_USE"
	CodeGameNotFound       = "GAME_NOT_FOUND"
	CodeGameNotRunning     = "GAME_NOT_RUNNING"
	CodeGameAlreadyRunning = "GAME_ALREADY_RUNNING"
	CodeNoHistoricalMoves  = "NO_HISTORICAL_MOVES"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// StatusOf returns the HTTP status an error is reported with
func StatusOf(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	// Not found
	case errors.Is(err, model.ErrCarNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeCarNotFound, "Car not found"}}
	case errors.Is(err, model.ErrMapNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeMapNotFound, "Map not found"}}
	case errors.Is(err, model.ErrGameNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeGameNotFound, "Game not found"}}
	case errors.Is(err, model.ErrCarNotFoundInGame):
		return &httpError{http.StatusNotFound, APIError{CodeCarNotInGame, "Car is not in this game"}}

	// Conflicts with current state
	case errors.Is(err, model.ErrCarAlreadyExists):
		return &httpError{http.StatusConflict, APIError{CodeCarExists, "Car already exists"}}
	case errors.Is(err, model.ErrMapAlreadyExists):
		return &httpError{http.StatusConflict, APIError{CodeMapExists, "Map already exists"}}
	case errors.Is(err, model.ErrCarCrashed):
		return &httpError{http.StatusConflict, APIError{CodeCarCrashed, "Car is crashed"}}
	case errors.Is(err, model.ErrCarNotCrashed):
		return &httpError{http.StatusConflict, APIError{CodeCarNotCrashed, "Car is not crashed"}}
	case errors.Is(err, model.ErrCarInUse), errors.Is(err, model.ErrCarIsBeingUsedInGame):
		return &httpError{http.StatusConflict, APIError{CodeCarInUse, "Car is being used in a game"}}
	case errors.Is(err, model.ErrCarNotInAnyGame):
		return &httpError{http.StatusConflict, APIError{CodeCarNotInGame, "Car is not in any running game"}}
	case errors.Is(err, model.ErrMapInUse):
		return &httpError{http.StatusConflict, APIError{CodeMapInUse, "Map is used by a running game"}}
	case errors.Is(err, model.ErrGameAlreadyRunning):
		return &httpError{http.StatusConflict, APIError{CodeGameAlreadyRunning, "A game with this name is already running"}}
	case errors.Is(err, model.ErrGameNotRunning), errors.Is(err, model.ErrGameNotActive):
		return &httpError{http.StatusConflict, APIError{CodeGameNotRunning, "Game is not running"}}
	case errors.Is(err, model.ErrPositionAlreadyTaken):
		return &httpError{http.StatusConflict, APIError{CodePositionTaken, "Position is already taken"}}
	case errors.Is(err, model.ErrNoEmptyPositions):
		return &httpError{http.StatusConflict, APIError{CodeNoEmptyPositions, "No empty positions left on the map"}}

	// Invalid input
	case errors.Is(err, model.ErrPositionOutOfRange):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidPosition, "Position is outside the map"}}
	case errors.Is(err, model.ErrWrongDistanceValue), errors.Is(err, model.ErrInvalidDistance):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidDistance, err.Error()}}
	case errors.Is(err, model.ErrInvalidMap), errors.Is(err, model.ErrRoadsNotConnected):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidMap, err.Error()}}
	case errors.Is(err, model.ErrInvalidCarType):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidCarType, "Car type must be NORMAL, RACER or MONSTER_TRUCK"}}
	case errors.Is(err, model.ErrNoHistoricalMoves):
		return &httpError{http.StatusBadRequest, APIError{CodeNoHistoricalMoves, "No historical moves to go back"}}
	case errors.Is(err, model.ErrNameRequired):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, "Name is required"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
