package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectionTurns(t *testing.T) {
	tests := []struct {
		from  Direction
		left  Direction
		right Direction
		back  Direction
	}{
		{North, West, East, South},
		{East, North, South, West},
		{South, East, West, North},
		{West, South, North, East},
	}

	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			assert.Equal(t, tt.left, tt.from.TurnLeft())
			assert.Equal(t, tt.right, tt.from.TurnRight())
			assert.Equal(t, tt.back, tt.from.Rotate())
			assert.Equal(t, tt.from, tt.from.TurnLeft().TurnRight())
		})
	}
}

func TestDirectionValid(t *testing.T) {
	assert.True(t, North.Valid())
	assert.False(t, Direction("UP").Valid())
	assert.False(t, Direction("").Valid())
}

func TestPositionOrderingAndRange(t *testing.T) {
	assert.True(t, Position{X: 1, Y: 4}.Less(Position{X: 2, Y: 1}))
	assert.True(t, Position{X: 2, Y: 1}.Less(Position{X: 2, Y: 3}))
	assert.False(t, Position{X: 2, Y: 3}.Less(Position{X: 2, Y: 3}))

	assert.True(t, Position{X: 1, Y: 1}.InRange(4))
	assert.True(t, Position{X: 4, Y: 4}.InRange(4))
	assert.False(t, Position{X: 0, Y: 2}.InRange(4))
	assert.False(t, Position{X: 2, Y: 5}.InRange(4))
	assert.Equal(t, "(3,2)", Position{X: 3, Y: 2}.String())
}

func TestParseCarType(t *testing.T) {
	tests := []struct {
		in      string
		want    CarType
		wantErr bool
	}{
		{"NORMAL", CarTypeNormal, false},
		{"racer", CarTypeRacer, false},
		{" monster_truck ", CarTypeMonsterTruck, false},
		{"", CarTypeNormal, false},
		{"tank", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCarType(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCarType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMoveFilterMatches(t *testing.T) {
	event := CarMoveEvent{Car: "bolt", GameID: 2, Type: MoveForward, Distance: 1}

	assert.True(t, MoveFilter{}.Matches(event))
	assert.True(t, MoveFilter{Cars: []string{"brick", "bolt"}}.Matches(event))
	assert.False(t, MoveFilter{Cars: []string{"brick"}}.Matches(event))
	assert.True(t, MoveFilter{GameIDs: []GameID{1, 2}}.Matches(event))
	assert.False(t, MoveFilter{GameIDs: []GameID{1}}.Matches(event))
	assert.False(t, MoveFilter{Cars: []string{"bolt"}, GameIDs: []GameID{3}}.Matches(event))
}

func TestGameHasCar(t *testing.T) {
	g := &Game{Cars: []string{"bolt", "brick"}}
	assert.True(t, g.HasCar("brick"))
	assert.False(t, g.HasCar("ghost"))
}

func TestMovedPayloadDistance(t *testing.T) {
	p := ObjectMovedPayload{From: Position{X: 1, Y: 4}, To: Position{X: 1, Y: 2}}
	assert.Equal(t, 2, p.Distance())
}
