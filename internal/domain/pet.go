package domain

import (
	"fmt"
	"time"
)

type Location string

const (
	LocationInside  Location = "inside"
	LocationOutside Location = "outside"
	LocationUnknown Location = "unknown"
)

// ParseLocation accepts the spellings users type on the command line.
func ParseLocation(s string) (Location, error) {
	switch normalize(s) {
	case "inside", "in", "1":
		return LocationInside, nil
	case "outside", "out", "2":
		return LocationOutside, nil
	default:
		return "", fmt.Errorf("invalid location %q: use 'inside' or 'outside'", s)
	}
}

type PetClass string

const (
	ClassIndoor  PetClass = "indoor"
	ClassOutdoor PetClass = "outdoor"
)

func ParsePetClass(s string) (PetClass, error) {
	switch normalize(s) {
	case "indoor", "in":
		return ClassIndoor, nil
	case "outdoor", "out":
		return ClassOutdoor, nil
	default:
		return "", fmt.Errorf("invalid pet class %q: use 'indoor' or 'outdoor'", s)
	}
}

type Pet struct {
	ID       int64
	Name     string
	Location Location
	Indoor   bool
	Since    time.Time
}
