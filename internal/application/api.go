package application

import (
	"context"

	"pethub/internal/auth"
	"pethub/internal/domain"
	"pethub/internal/timerange"
)

// API is the typed surface of the vendor session. Every operation takes
// already-resolved identifiers; name resolution happens in the dispatcher.
type API interface {
	SetToken(token string)
	ListPets(ctx context.Context) ([]domain.Pet, error)
	ListDevices(ctx context.Context) ([]domain.Device, error)
	SetPetLocation(ctx context.Context, petID int64, location domain.Location) error
	SetPetClass(ctx context.Context, petID int64, class domain.PetClass) error
	SetLockMode(ctx context.Context, deviceID int64, mode domain.LockMode) error
	SetCurfew(ctx context.Context, deviceID int64, lockTime, unlockTime string) error
	DisableCurfew(ctx context.Context, deviceID int64) error
	GetHistory(ctx context.Context, petID int64, kind domain.HistoryKind, r timerange.Range) ([]domain.HistoryRecord, error)
}

// TokenSource hands out credentials and owns their persistence.
type TokenSource interface {
	Acquire(ctx context.Context) (auth.Credential, error)
	Reauthenticate(ctx context.Context) (auth.Credential, error)
	Logout() error
}
