package domain

import (
	"fmt"
	"regexp"
	"strings"
)

type LockMode string

const (
	LockModeUnlocked LockMode = "unlocked"
	LockModeLocked   LockMode = "locked"
	LockModeLockIn   LockMode = "lock-in"
	LockModeLockOut  LockMode = "lock-out"
)

func ParseLockMode(s string) (LockMode, error) {
	switch normalize(s) {
	case "unlocked", "unlock":
		return LockModeUnlocked, nil
	case "locked", "lock":
		return LockModeLocked, nil
	case "lock-in", "lockin", "keep-in":
		return LockModeLockIn, nil
	case "lock-out", "lockout", "keep-out":
		return LockModeLockOut, nil
	default:
		return "", fmt.Errorf("invalid lock mode %q: use 'unlocked', 'locked', 'lock-in' or 'lock-out'", s)
	}
}

// Curfew is a daily lock window on a flap. Times are wall-clock HH:MM.
type Curfew struct {
	Enabled    bool
	LockTime   string
	UnlockTime string
}

var clockTimeRe = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)

func ValidateClockTime(t string) error {
	if !clockTimeRe.MatchString(t) {
		return fmt.Errorf("invalid time %q: use HH:MM format (e.g. 22:00)", t)
	}
	return nil
}

type Device struct {
	ID           int64
	Name         string
	SerialNumber string
	Online       bool
	Battery      float64
	LockMode     LockMode
	Curfew       *Curfew
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
