package request

// CreateCarRequest is the request body for creating a car
type CreateCarRequest struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// MoveForwardRequest is the request body for moving a car forward.
// A missing distance moves the car as far as its class allows.
type MoveForwardRequest struct {
	Distance *int `json:"distance,omitempty"`
}

// BackInHistoryRequest is the request body for rewinding a car
type BackInHistoryRequest struct {
	GameID int64 `json:"game_id"`
	Moves  int   `json:"moves"`
}

// UploadMapRequest is the request body for uploading a map as CSV
type UploadMapRequest struct {
	Name string `json:"name"`
	CSV  string `json:"csv"`
}

// StartGameRequest is the request body for starting a game
type StartGameRequest struct {
	Name string `json:"name,omitempty"`
	Map  string `json:"map"`
}

// AddCarRequest is the request body for adding a car to a game.
// X and Y are 1-indexed; leaving both out picks a random empty cell.
type AddCarRequest struct {
	Name string `json:"name"`
	X    *int   `json:"x,omitempty"`
	Y    *int   `json:"y,omitempty"`
}
