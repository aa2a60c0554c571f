// Package application orchestrates one command per invocation: acquire a
// credential, resolve the target, parse the range if any, then make
// exactly one vendor call. It produces typed results and structured
// errors; rendering belongs to the front ends.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"pethub/internal/auth"
	"pethub/internal/domain"
	"pethub/internal/resolve"
	"pethub/internal/timerange"
)

type Dispatcher struct {
	api    API
	tokens TokenSource
	logger *slog.Logger

	now  func() time.Time
	cred *auth.Credential
}

func NewDispatcher(api API, tokens TokenSource, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{api: api, tokens: tokens, logger: logger, now: time.Now}
}

// StatusReport bundles everything the status view shows.
type StatusReport struct {
	Pets    []domain.Pet
	Devices []domain.Device
}

// ActionResult confirms a mutating command against a resolved target.
type ActionResult struct {
	TargetID   int64
	TargetName string
	Action     string
	Detail     string
}

type HistoryReport struct {
	PetID   int64
	PetName string
	Kind    domain.HistoryKind
	Range   timerange.Range
	Records []domain.HistoryRecord
	Summary HistorySummary
}

type HistorySummary struct {
	Events       int
	Total        float64
	DailyAverage float64
	Entries      int
	Exits        int
}

type ListOptions struct {
	Location string // optional filter: inside/outside
	Sort     string // name (default) or location
}

func (d *Dispatcher) ListPets(ctx context.Context, opts ListOptions) ([]domain.Pet, error) {
	var filter domain.Location
	if opts.Location != "" {
		loc, err := domain.ParseLocation(opts.Location)
		if err != nil {
			return nil, err
		}
		filter = loc
	}
	if opts.Sort != "" && opts.Sort != "name" && opts.Sort != "location" {
		return nil, fmt.Errorf("invalid sort %q: use 'name' or 'location'", opts.Sort)
	}

	var pets []domain.Pet
	err := d.run(ctx, func(ctx context.Context) error {
		var err error
		pets, err = d.api.ListPets(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	if filter != "" {
		filtered := pets[:0]
		for _, p := range pets {
			if p.Location == filter {
				filtered = append(filtered, p)
			}
		}
		pets = filtered
	}

	switch opts.Sort {
	case "location":
		sort.SliceStable(pets, func(i, j int) bool { return pets[i].Location < pets[j].Location })
	default:
		sort.SliceStable(pets, func(i, j int) bool {
			return strings.ToLower(pets[i].Name) < strings.ToLower(pets[j].Name)
		})
	}
	return pets, nil
}

func (d *Dispatcher) ListDevices(ctx context.Context) ([]domain.Device, error) {
	var devices []domain.Device
	err := d.run(ctx, func(ctx context.Context) error {
		var err error
		devices, err = d.api.ListDevices(ctx)
		return err
	})
	return devices, err
}

func (d *Dispatcher) Status(ctx context.Context) (*StatusReport, error) {
	var report StatusReport
	err := d.run(ctx, func(ctx context.Context) error {
		pets, err := d.api.ListPets(ctx)
		if err != nil {
			return err
		}
		devices, err := d.api.ListDevices(ctx)
		if err != nil {
			return err
		}
		report = StatusReport{Pets: pets, Devices: devices}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (d *Dispatcher) SetPetLocation(ctx context.Context, target, location string) (*ActionResult, error) {
	loc, err := domain.ParseLocation(location)
	if err != nil {
		return nil, err
	}

	var result *ActionResult
	err = d.run(ctx, func(ctx context.Context) error {
		pet, err := d.resolvePet(ctx, target)
		if err != nil {
			return err
		}
		if err := d.api.SetPetLocation(ctx, pet.ID, loc); err != nil {
			return err
		}
		result = &ActionResult{TargetID: pet.ID, TargetName: pet.Name, Action: "set-location", Detail: string(loc)}
		return nil
	})
	return result, err
}

func (d *Dispatcher) SetPetClass(ctx context.Context, target, class string) (*ActionResult, error) {
	cls, err := domain.ParsePetClass(class)
	if err != nil {
		return nil, err
	}

	var result *ActionResult
	err = d.run(ctx, func(ctx context.Context) error {
		pet, err := d.resolvePet(ctx, target)
		if err != nil {
			return err
		}
		if err := d.api.SetPetClass(ctx, pet.ID, cls); err != nil {
			return err
		}
		result = &ActionResult{TargetID: pet.ID, TargetName: pet.Name, Action: "set-class", Detail: string(cls)}
		return nil
	})
	return result, err
}

func (d *Dispatcher) SetLockMode(ctx context.Context, target string, mode domain.LockMode) (*ActionResult, error) {
	var result *ActionResult
	err := d.run(ctx, func(ctx context.Context) error {
		device, err := d.resolveDevice(ctx, target)
		if err != nil {
			return err
		}
		if err := d.api.SetLockMode(ctx, device.ID, mode); err != nil {
			return err
		}
		result = &ActionResult{TargetID: device.ID, TargetName: device.Name, Action: "set-lock-mode", Detail: string(mode)}
		return nil
	})
	return result, err
}

func (d *Dispatcher) SetCurfew(ctx context.Context, target, lockTime, unlockTime string) (*ActionResult, error) {
	if err := domain.ValidateClockTime(lockTime); err != nil {
		return nil, err
	}
	if err := domain.ValidateClockTime(unlockTime); err != nil {
		return nil, err
	}

	var result *ActionResult
	err := d.run(ctx, func(ctx context.Context) error {
		device, err := d.resolveDevice(ctx, target)
		if err != nil {
			return err
		}
		if err := d.api.SetCurfew(ctx, device.ID, lockTime, unlockTime); err != nil {
			return err
		}
		result = &ActionResult{
			TargetID:   device.ID,
			TargetName: device.Name,
			Action:     "set-curfew",
			Detail:     fmt.Sprintf("%s - %s", lockTime, unlockTime),
		}
		return nil
	})
	return result, err
}

func (d *Dispatcher) DisableCurfew(ctx context.Context, target string) (*ActionResult, error) {
	var result *ActionResult
	err := d.run(ctx, func(ctx context.Context) error {
		device, err := d.resolveDevice(ctx, target)
		if err != nil {
			return err
		}
		if err := d.api.DisableCurfew(ctx, device.ID); err != nil {
			return err
		}
		result = &ActionResult{TargetID: device.ID, TargetName: device.Name, Action: "disable-curfew"}
		return nil
	})
	return result, err
}

func (d *Dispatcher) History(ctx context.Context, target string, kind domain.HistoryKind, rangeExpr string) (*HistoryReport, error) {
	var report *HistoryReport
	err := d.run(ctx, func(ctx context.Context) error {
		pet, err := d.resolvePet(ctx, target)
		if err != nil {
			return err
		}
		r, err := timerange.Parse(rangeExpr, d.now())
		if err != nil {
			return err
		}
		records, err := d.api.GetHistory(ctx, pet.ID, kind, r)
		if err != nil {
			return err
		}
		report = &HistoryReport{
			PetID:   pet.ID,
			PetName: pet.Name,
			Kind:    kind,
			Range:   r,
			Records: records,
			Summary: summarize(records, r),
		}
		return nil
	})
	return report, err
}

// Logout drops the persisted token and forgets the in-memory credential.
func (d *Dispatcher) Logout() error {
	d.cred = nil
	return d.tokens.Logout()
}

// run wraps one command invocation. If the vendor rejects the token the
// credential is dropped, one re-authentication is performed and the
// operation is retried exactly once; nothing else is ever retried here.
func (d *Dispatcher) run(ctx context.Context, op func(context.Context) error) error {
	if err := d.ensureCredential(ctx); err != nil {
		return err
	}

	err := op(ctx)
	if err == nil || !isAuthRejected(err) {
		return err
	}

	d.logger.Info("token rejected, re-authenticating", "source", d.cred.Source)
	d.cred = nil
	cred, authErr := d.tokens.Reauthenticate(ctx)
	if authErr != nil {
		return authErr
	}
	d.cred = &cred
	d.api.SetToken(cred.Token)
	return op(ctx)
}

func (d *Dispatcher) ensureCredential(ctx context.Context) error {
	if d.cred != nil {
		return nil
	}
	cred, err := d.tokens.Acquire(ctx)
	if err != nil {
		return err
	}
	d.cred = &cred
	d.api.SetToken(cred.Token)
	d.logger.Debug("credential acquired", "source", cred.Source)
	return nil
}

func (d *Dispatcher) resolvePet(ctx context.Context, query string) (resolve.Candidate, error) {
	pets, err := d.api.ListPets(ctx)
	if err != nil {
		return resolve.Candidate{}, err
	}
	candidates := make([]resolve.Candidate, len(pets))
	for i, p := range pets {
		candidates[i] = resolve.Candidate{ID: p.ID, Name: p.Name}
	}
	cand, err := resolve.Resolve(query, candidates)
	if err != nil {
		return resolve.Candidate{}, fmt.Errorf("pet: %w", err)
	}
	return cand, nil
}

func (d *Dispatcher) resolveDevice(ctx context.Context, query string) (resolve.Candidate, error) {
	devices, err := d.api.ListDevices(ctx)
	if err != nil {
		return resolve.Candidate{}, err
	}
	candidates := make([]resolve.Candidate, len(devices))
	for i, dev := range devices {
		candidates[i] = resolve.Candidate{ID: dev.ID, Name: dev.Name}
	}
	cand, err := resolve.Resolve(query, candidates)
	if err != nil {
		return resolve.Candidate{}, fmt.Errorf("device: %w", err)
	}
	return cand, nil
}

func summarize(records []domain.HistoryRecord, r timerange.Range) HistorySummary {
	s := HistorySummary{Events: len(records)}
	for _, rec := range records {
		s.Total += rec.Amount
		switch rec.Event {
		case "entry":
			s.Entries++
		case "exit":
			s.Exits++
		}
	}
	s.DailyAverage = s.Total / float64(r.Days())
	return s
}

type authRejecter interface {
	AuthRejected() bool
}

func isAuthRejected(err error) bool {
	var ar authRejecter
	return errors.As(err, &ar) && ar.AuthRejected()
}
