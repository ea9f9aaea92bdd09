package model

import "strings"

// CarType is the class of a car. It decides toughness and movement range.
type CarType string

const (
	CarTypeNormal       CarType = "NORMAL"
	CarTypeRacer        CarType = "RACER"
	CarTypeMonsterTruck CarType = "MONSTER_TRUCK"
)

// ParseCarType parses a car type case-insensitively
func ParseCarType(s string) (CarType, error) {
	switch t := CarType(strings.ToUpper(strings.TrimSpace(s))); t {
	case CarTypeNormal, CarTypeRacer, CarTypeMonsterTruck:
		return t, nil
	case "":
		return CarTypeNormal, nil
	}
	return "", ErrInvalidCarType
}

// Car is a persisted car
type Car struct {
	Name    string
	Type    CarType
	Crashed bool
	Used    bool
}

// CarStatus is the live state of a car in a running game.
// Coordinates are 0-indexed.
type CarStatus struct {
	Name      string
	X         int
	Y         int
	Direction Direction
	Reverting bool
}
