package pages

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/mcoot/gridrace/internal/model"
	"github.com/mcoot/gridrace/internal/web/templates/components"
	"github.com/mcoot/gridrace/internal/web/templates/layout"
)

// MapsData is the map list with the upload form
type MapsData struct {
	layout.PageData
	Maps []*model.GameMap
}

// MapData shows one map's grid
type MapData struct {
	layout.PageData
	Map   *model.GameMap
	Board components.BoardView
}

// CarsData is the garage
type CarsData struct {
	layout.PageData
	Cars  []CarRow
	Types []model.CarType
}

// CarRow is a car with the game it is racing in, if any
type CarRow struct {
	Name    string
	Type    string
	State   string // ready, racing or crashed
	Crashed bool
	GameID  model.GameID // zero when not in a game
}

// GamesData lists games and offers to start one
type GamesData struct {
	layout.PageData
	Games  []*model.Game
	Maps   []string // active maps a game can start on
	Status string   // current filter, empty for all
}

// GameData is one game's detail page
type GameData struct {
	layout.PageData
	Game      *model.Game
	Running   bool
	Board     components.BoardView
	ReadyCars []string
}

// MovementsData is the recorded movements table with its filter
type MovementsData struct {
	layout.PageData
	Car    string
	GameID string
	Moves  []*model.CarMoveEvent
}

// RunningData is the live board for driving one car
type RunningData struct {
	layout.PageData
	Game  *model.Game
	Car   string
	Board components.BoardView
}

// ErrorData is a full page error
type ErrorData struct {
	layout.PageData
	Status  int
	Message string
}

// GameStatuses are the filters offered on the games page
var GameStatuses = []model.GameStatus{
	model.GameStatusRunning,
	model.GameStatusFinished,
	model.GameStatusInterrupted,
}

func mapURL(name string) templ.SafeURL {
	return templ.SafeURL("/maps/" + url.PathEscape(name))
}

func gameURL(id model.GameID) templ.SafeURL {
	return templ.SafeURL(fmt.Sprintf("/games/%d", id))
}

func runURL(id model.GameID, car string) templ.SafeURL {
	return templ.SafeURL(fmt.Sprintf("/run/%d/%s", id, url.PathEscape(car)))
}

func runAction(id model.GameID, car, action string) string {
	return string(runURL(id, car)) + "/" + action
}

func carURL(name string) templ.SafeURL {
	return templ.SafeURL("/cars/" + url.PathEscape(name))
}

func movementsURL(car string, id model.GameID) templ.SafeURL {
	q := url.Values{}
	if car != "" {
		q.Set("car", car)
	}
	if id != 0 {
		q.Set("game", gameID(id))
	}
	return templ.SafeURL("/movements?" + q.Encode())
}

func gameID(id model.GameID) string {
	return strconv.FormatInt(int64(id), 10)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

func finishedAt(g *model.Game) string {
	if g.FinishedAt == nil {
		return ""
	}
	return formatTime(*g.FinishedAt)
}

// action appends an action segment to a resource URL
func action(base templ.SafeURL, verb string) templ.SafeURL {
	return base + templ.SafeURL("/"+verb)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func distance(m *model.CarMoveEvent) string {
	if m.Type != model.MoveForward {
		return ""
	}
	return strconv.Itoa(m.Distance)
}
