package domain

import (
	"fmt"
	"time"
)

type HistoryKind string

const (
	HistoryFeeding  HistoryKind = "feeding"
	HistoryDrinking HistoryKind = "drinking"
	HistoryActivity HistoryKind = "activity"
)

func ParseHistoryKind(s string) (HistoryKind, error) {
	switch normalize(s) {
	case "feeding":
		return HistoryFeeding, nil
	case "drinking":
		return HistoryDrinking, nil
	case "activity":
		return HistoryActivity, nil
	default:
		return "", fmt.Errorf("invalid history kind %q: use 'feeding', 'drinking' or 'activity'", s)
	}
}

// HistoryRecord is one timestamped event for a pet. Amount is grams for
// feeding, millilitres for drinking and zero for activity; Event carries
// the movement direction ("entry"/"exit") for activity records.
type HistoryRecord struct {
	PetID    int64
	Kind     HistoryKind
	At       time.Time
	DeviceID int64
	Amount   float64
	Event    string
}
