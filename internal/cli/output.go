package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == FormatJSON {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == FormatJSON {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Car:
		o.printCar(v)
	case []Car:
		o.printCars(v)
	case GameMap:
		o.printMap(v)
	case []GameMap:
		o.printMaps(v)
	case Game:
		o.printGame(v)
	case []Game:
		o.printGames(v)
	case Snapshot:
		o.printSnapshot(v)
	case []MoveEvent:
		o.printMoves(v)
	case CommandAccepted:
		fmt.Fprintf(o.w, "Command queued for %s in game %d\n", v.Car, v.GameID)
	case HealthResult:
		fmt.Fprintf(o.w, "Status: %s (%s, %s)\n", v.Status, v.Server, v.Latency)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Car response type (matches API)
type Car struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Crashed bool   `json:"crashed"`
	Used    bool   `json:"used"`
}

// GameMap response type
type GameMap struct {
	Name   string  `json:"name"`
	Size   int     `json:"size"`
	Status string  `json:"status"`
	Roads  [][]int `json:"roads,omitempty"`
}

// Game response type
type Game struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Map        string     `json:"map"`
	Status     string     `json:"status"`
	Cars       []string   `json:"cars"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// CarStatus response type
type CarStatus struct {
	Name      string `json:"name"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Direction string `json:"direction"`
	Reverting bool   `json:"reverting,omitempty"`
}

// Snapshot response type
type Snapshot struct {
	GameID int64       `json:"game_id"`
	Cars   []CarStatus `json:"cars"`
}

// MoveEvent response type
type MoveEvent struct {
	ID        int64     `json:"id"`
	Car       string    `json:"car"`
	GameID    int64     `json:"game_id"`
	Type      string    `json:"type"`
	Distance  int       `json:"distance,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// CommandAccepted response type
type CommandAccepted struct {
	Car    string `json:"car"`
	GameID int64  `json:"game_id"`
}

// HealthResult response type
type HealthResult struct {
	Status  string `json:"status"`
	Server  string `json:"server,omitempty"`
	Latency string `json:"latency,omitempty"`
}

func (o *Output) printCar(c Car) {
	fmt.Fprintf(o.w, "Car: %s\n", c.Name)
	fmt.Fprintf(o.w, "Type: %s\n", c.Type)
	fmt.Fprintf(o.w, "State: %s\n", carState(c))
}

func (o *Output) printCars(cars []Car) {
	if len(cars) == 0 {
		fmt.Fprintln(o.w, "No cars")
		return
	}
	for _, c := range cars {
		fmt.Fprintf(o.w, "%-20s %-14s %s\n", c.Name, c.Type, carState(c))
	}
}

func carState(c Car) string {
	switch {
	case c.Crashed:
		return "crashed"
	case c.Used:
		return "racing"
	default:
		return "ready"
	}
}

func (o *Output) printMap(m GameMap) {
	fmt.Fprintf(o.w, "Map: %s\n", m.Name)
	fmt.Fprintf(o.w, "Size: %d\n", m.Size)
	fmt.Fprintf(o.w, "Status: %s\n", m.Status)
	if len(m.Roads) == 0 {
		return
	}
	fmt.Fprintln(o.w)
	o.printRoads(m.Roads)
}

// printRoads draws walls as '#' and roads as '.', with 1-indexed column and row headers
func (o *Output) printRoads(roads [][]int) {
	size := len(roads)

	fmt.Fprint(o.w, "    ")
	for x := 1; x <= size; x++ {
		fmt.Fprintf(o.w, "%2d", x%100)
	}
	fmt.Fprintln(o.w)

	for y, row := range roads {
		fmt.Fprintf(o.w, "%3d ", y+1)
		for _, cell := range row {
			if cell == 0 {
				fmt.Fprint(o.w, " #")
			} else {
				fmt.Fprint(o.w, " .")
			}
		}
		fmt.Fprintln(o.w)
	}
}

func (o *Output) printMaps(maps []GameMap) {
	if len(maps) == 0 {
		fmt.Fprintln(o.w, "No maps")
		return
	}
	for _, m := range maps {
		fmt.Fprintf(o.w, "%-20s %3dx%-3d %s\n", m.Name, m.Size, m.Size, m.Status)
	}
}

func (o *Output) printGame(g Game) {
	fmt.Fprintf(o.w, "Game: %d (%s)\n", g.ID, g.Name)
	fmt.Fprintf(o.w, "Map: %s\n", g.Map)
	fmt.Fprintf(o.w, "Status: %s\n", g.Status)
	fmt.Fprintf(o.w, "Started: %s\n", g.StartedAt.Local().Format("2006-01-02 15:04:05"))
	if g.FinishedAt != nil {
		fmt.Fprintf(o.w, "Finished: %s\n", g.FinishedAt.Local().Format("2006-01-02 15:04:05"))
	}
	if len(g.Cars) > 0 {
		fmt.Fprintf(o.w, "Cars: %s\n", strings.Join(g.Cars, ", "))
	}
}

func (o *Output) printGames(games []Game) {
	if len(games) == 0 {
		fmt.Fprintln(o.w, "No games")
		return
	}
	for _, g := range games {
		fmt.Fprintf(o.w, "%-6d %-20s %-12s %-11s %d cars\n", g.ID, g.Name, g.Map, g.Status, len(g.Cars))
	}
}

func (o *Output) printSnapshot(s Snapshot) {
	fmt.Fprintf(o.w, "Game %d\n", s.GameID)
	if len(s.Cars) == 0 {
		fmt.Fprintln(o.w, "No cars on the grid")
		return
	}
	for _, c := range s.Cars {
		reverting := ""
		if c.Reverting {
			reverting = " [going back]"
		}
		fmt.Fprintf(o.w, "  %s at (%d,%d) facing %s%s\n", c.Name, c.X, c.Y, c.Direction, reverting)
	}
}

func (o *Output) printMoves(moves []MoveEvent) {
	if len(moves) == 0 {
		fmt.Fprintln(o.w, "No moves")
		return
	}
	for _, m := range moves {
		move := m.Type
		if m.Type == "FORWARD" {
			move = fmt.Sprintf("FORWARD %d", m.Distance)
		}
		fmt.Fprintf(o.w, "[%s] game %d: %s\n", m.Timestamp.Local().Format("15:04:05.000"), m.GameID, move)
	}
}
