package components

import (
	"fmt"
	"strconv"

	"github.com/mcoot/gridrace/internal/model"
)

// BoardView is a grid ready to draw. Rows run from north to south.
type BoardView struct {
	Rows [][]Cell
	Cars []CarView
}

// Cell is one square of the board
type Cell struct {
	Wall  bool
	Car   string
	Arrow string
	Own   bool // the car being driven from this page
}

// CarView is a car's line in the positions list
type CarView struct {
	Name      string
	Position  string
	Direction string
}

var arrows = map[model.Direction]string{
	model.North: "↑",
	model.East:  "→",
	model.South: "↓",
	model.West:  "←",
}

// NewBoardView lays the cars of a snapshot over a map's roads.
// Snapshot positions are zero-indexed. own names the highlighted car.
func NewBoardView(roads [][]int, cars []model.CarStatus, own string) BoardView {
	rows := make([][]Cell, len(roads))
	for y, row := range roads {
		rows[y] = make([]Cell, len(row))
		for x, v := range row {
			rows[y][x].Wall = v == model.CellWall
		}
	}

	views := make([]CarView, 0, len(cars))
	for _, c := range cars {
		if c.Y >= 0 && c.Y < len(rows) && c.X >= 0 && c.X < len(rows[c.Y]) {
			rows[c.Y][c.X] = Cell{Car: c.Name, Arrow: arrows[c.Direction], Own: c.Name == own}
		}
		direction := string(c.Direction)
		if c.Reverting {
			direction += " (going back in history)"
		}
		views = append(views, CarView{
			Name:      c.Name,
			Position:  fmt.Sprintf("(%d,%d)", c.X, c.Y),
			Direction: direction,
		})
	}
	return BoardView{Rows: rows, Cars: views}
}

// Size returns the board width as text
func (b BoardView) Size() string {
	return strconv.Itoa(len(b.Rows))
}
