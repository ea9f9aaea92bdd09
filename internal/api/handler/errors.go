package handler

import (
	"net/http"

	"github.com/mcoot/gridrace/internal/api/apierr"
)

// Re-export from apierr for convenience
type APIError = apierr.APIError
type ErrorResponse = apierr.ErrorResponse

// Re-export error codes
const (
	CodeInvalidRequest     = apierr.CodeInvalidRequest
	CodeInvalidPosition    = apierr.CodeInvalidPosition
	CodeInvalidDistance    = apierr.CodeInvalidDistance
	CodeInvalidMap         = apierr.CodeInvalidMap
	CodeInvalidCarType     = apierr.CodeInvalidCarType
	CodePositionTaken      = apierr.CodePositionTaken
	CodeNoEmptyPositions   = apierr.CodeNoEmptyPositions
	CodeCarNotFound        = apierr.CodeCarNotFound
	CodeCarExists          = apierr.CodeCarExists
	CodeCarCrashed         = apierr.CodeCarCrashed
	CodeCarNotCrashed      = apierr.CodeCarNotCrashed
	CodeCarInUse           = apierr.CodeCarInUse
	CodeCarNotInGame       = apierr.CodeCarNotInGame
	CodeMapNotFound        = apierr.CodeMapNotFound
	CodeMapExists          = apierr.CodeMapExists
	CodeMapInUse           = apierr.CodeMapInUse
	CodeGameNotFound       = apierr.CodeGameNotFound
	CodeGameNotRunning     = apierr.CodeGameNotRunning
	CodeGameAlreadyRunning = apierr.CodeGameAlreadyRunning
	CodeNoHistoricalMoves  = apierr.CodeNoHistoricalMoves
	CodeInternalError      = apierr.CodeInternalError
)

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return apierr.NewInternalError()
}
