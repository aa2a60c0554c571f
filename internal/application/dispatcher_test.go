package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"pethub/internal/application"
	"pethub/internal/auth"
	"pethub/internal/domain"
	"pethub/internal/resolve"
	"pethub/internal/timerange"
)

type apiAuthError struct{}

func (apiAuthError) Error() string      { return "401 unauthorized" }
func (apiAuthError) AuthRejected() bool { return true }

// fakeAPI rejects every call until SetToken installs goodToken, and
// counts calls so tests can assert what was (not) issued.
type fakeAPI struct {
	pets      []domain.Pet
	devices   []domain.Device
	records   []domain.HistoryRecord
	goodToken string
	token     string

	listPetsCalls    int
	listDevicesCalls int
	mutationCalls    int
	historyCalls     int
}

func (f *fakeAPI) SetToken(token string) { f.token = token }

func (f *fakeAPI) check() error {
	if f.token != f.goodToken {
		return apiAuthError{}
	}
	return nil
}

func (f *fakeAPI) ListPets(_ context.Context) ([]domain.Pet, error) {
	f.listPetsCalls++
	if err := f.check(); err != nil {
		return nil, err
	}
	return f.pets, nil
}

func (f *fakeAPI) ListDevices(_ context.Context) ([]domain.Device, error) {
	f.listDevicesCalls++
	if err := f.check(); err != nil {
		return nil, err
	}
	return f.devices, nil
}

func (f *fakeAPI) SetPetLocation(_ context.Context, _ int64, _ domain.Location) error {
	f.mutationCalls++
	return f.check()
}

func (f *fakeAPI) SetPetClass(_ context.Context, _ int64, _ domain.PetClass) error {
	f.mutationCalls++
	return f.check()
}

func (f *fakeAPI) SetLockMode(_ context.Context, _ int64, _ domain.LockMode) error {
	f.mutationCalls++
	return f.check()
}

func (f *fakeAPI) SetCurfew(_ context.Context, _ int64, _, _ string) error {
	f.mutationCalls++
	return f.check()
}

func (f *fakeAPI) DisableCurfew(_ context.Context, _ int64) error {
	f.mutationCalls++
	return f.check()
}

func (f *fakeAPI) GetHistory(_ context.Context, _ int64, _ domain.HistoryKind, _ timerange.Range) ([]domain.HistoryRecord, error) {
	f.historyCalls++
	if err := f.check(); err != nil {
		return nil, err
	}
	return f.records, nil
}

type fakeTokens struct {
	acquireToken string
	reauthToken  string
	acquireErr   error
	reauthErr    error

	acquires int
	reauths  int
	logouts  int
}

func (f *fakeTokens) Acquire(_ context.Context) (auth.Credential, error) {
	f.acquires++
	if f.acquireErr != nil {
		return auth.Credential{}, f.acquireErr
	}
	return auth.Credential{Token: f.acquireToken, Source: auth.SourceFile}, nil
}

func (f *fakeTokens) Reauthenticate(_ context.Context) (auth.Credential, error) {
	f.reauths++
	if f.reauthErr != nil {
		return auth.Credential{}, f.reauthErr
	}
	return auth.Credential{Token: f.reauthToken, Source: auth.SourceLogin}, nil
}

func (f *fakeTokens) Logout() error {
	f.logouts++
	return nil
}

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func testPets() []domain.Pet {
	return []domain.Pet{
		{ID: 123, Name: "Fluffy", Location: domain.LocationInside},
		{ID: 456, Name: "Flint", Location: domain.LocationOutside},
	}
}

func testDevices() []domain.Device {
	return []domain.Device{
		{ID: 10, Name: "Back Door", LockMode: domain.LockModeUnlocked},
		{ID: 11, Name: "Cat Flap", LockMode: domain.LockModeLocked},
	}
}

func TestSetPetLocation_NoMatchNeverMutates(t *testing.T) {
	api := &fakeAPI{pets: testPets(), goodToken: "good"}
	tokens := &fakeTokens{acquireToken: "good"}
	d := application.NewDispatcher(api, tokens, testLogger)

	_, err := d.SetPetLocation(context.Background(), "Rex", "inside")

	var nf *resolve.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error is %T, want *NotFoundError", err)
	}
	if api.mutationCalls != 0 {
		t.Errorf("mutation calls: got %d, want 0", api.mutationCalls)
	}
}

func TestSetPetLocation_AmbiguousNeverMutates(t *testing.T) {
	api := &fakeAPI{pets: testPets(), goodToken: "good"}
	tokens := &fakeTokens{acquireToken: "good"}
	d := application.NewDispatcher(api, tokens, testLogger)

	_, err := d.SetPetLocation(context.Background(), "Fl", "inside")

	var ae *resolve.AmbiguousError
	if !errors.As(err, &ae) {
		t.Fatalf("error is %T, want *AmbiguousError", err)
	}
	if len(ae.Matches) != 2 {
		t.Errorf("matches: got %d, want 2", len(ae.Matches))
	}
	if api.mutationCalls != 0 {
		t.Errorf("mutation calls: got %d, want 0", api.mutationCalls)
	}
}

func TestSetPetLocation_InvalidLocationBeforeAuth(t *testing.T) {
	api := &fakeAPI{pets: testPets(), goodToken: "good"}
	tokens := &fakeTokens{acquireToken: "good"}
	d := application.NewDispatcher(api, tokens, testLogger)

	_, err := d.SetPetLocation(context.Background(), "Fluffy", "upstairs")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if tokens.acquires != 0 {
		t.Errorf("acquires: got %d, want 0 (validation precedes auth)", tokens.acquires)
	}
}

func TestSetPetLocation_Succeeds(t *testing.T) {
	api := &fakeAPI{pets: testPets(), goodToken: "good"}
	tokens := &fakeTokens{acquireToken: "good"}
	d := application.NewDispatcher(api, tokens, testLogger)

	result, err := d.SetPetLocation(context.Background(), "Fluffy", "outside")
	if err != nil {
		t.Fatalf("SetPetLocation error: %v", err)
	}
	if result.TargetID != 123 || result.Detail != "outside" {
		t.Errorf("result: %+v", result)
	}
	if api.mutationCalls != 1 {
		t.Errorf("mutation calls: got %d, want 1", api.mutationCalls)
	}
}

func TestRun_SingleReauthRetry(t *testing.T) {
	api := &fakeAPI{pets: testPets(), goodToken: "good"}
	tokens := &fakeTokens{acquireToken: "stale", reauthToken: "good"}
	d := application.NewDispatcher(api, tokens, testLogger)

	result, err := d.SetPetLocation(context.Background(), "Fluffy", "inside")
	if err != nil {
		t.Fatalf("expected retry to succeed, got: %v", err)
	}
	if result.TargetName != "Fluffy" {
		t.Errorf("result: %+v", result)
	}
	if tokens.reauths != 1 {
		t.Errorf("reauths: got %d, want 1", tokens.reauths)
	}
}

func TestRun_RetriesAtMostOnce(t *testing.T) {
	// Backend keeps rejecting even the fresh token.
	api := &fakeAPI{pets: testPets(), goodToken: "unreachable"}
	tokens := &fakeTokens{acquireToken: "stale", reauthToken: "still-stale"}
	d := application.NewDispatcher(api, tokens, testLogger)

	_, err := d.SetPetLocation(context.Background(), "Fluffy", "inside")
	if err == nil {
		t.Fatal("expected error from consistently failing backend")
	}
	if tokens.reauths != 1 {
		t.Errorf("reauths: got %d, want exactly 1", tokens.reauths)
	}
}

func TestRun_AuthAcquireFailureIsFatal(t *testing.T) {
	api := &fakeAPI{goodToken: "good"}
	tokens := &fakeTokens{acquireErr: &auth.AuthError{Reason: "login declined"}}
	d := application.NewDispatcher(api, tokens, testLogger)

	_, err := d.ListPets(context.Background(), application.ListOptions{})

	var ae *auth.AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("error is %T, want *AuthError", err)
	}
	if api.listPetsCalls != 0 {
		t.Error("no API call should be issued without a credential")
	}
}

func TestRun_CredentialReusedAcrossCommands(t *testing.T) {
	api := &fakeAPI{pets: testPets(), devices: testDevices(), goodToken: "good"}
	tokens := &fakeTokens{acquireToken: "good"}
	d := application.NewDispatcher(api, tokens, testLogger)

	if _, err := d.ListPets(context.Background(), application.ListOptions{}); err != nil {
		t.Fatalf("ListPets error: %v", err)
	}
	if _, err := d.ListDevices(context.Background()); err != nil {
		t.Fatalf("ListDevices error: %v", err)
	}
	if tokens.acquires != 1 {
		t.Errorf("acquires: got %d, want 1 (credential reused)", tokens.acquires)
	}
}

func TestHistory_BadRangeStopsBeforeFetch(t *testing.T) {
	api := &fakeAPI{pets: testPets(), goodToken: "good"}
	tokens := &fakeTokens{acquireToken: "good"}
	d := application.NewDispatcher(api, tokens, testLogger)

	_, err := d.History(context.Background(), "Fluffy", domain.HistoryFeeding, "fortnight")

	var pe *timerange.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error is %T, want *ParseError", err)
	}
	if api.historyCalls != 0 {
		t.Errorf("history calls: got %d, want 0", api.historyCalls)
	}
}

func TestHistory_Summarizes(t *testing.T) {
	api := &fakeAPI{pets: testPets(), goodToken: "good"}
	tokens := &fakeTokens{acquireToken: "good"}
	api.records = []domain.HistoryRecord{
		{PetID: 123, Kind: domain.HistoryFeeding, Amount: 30},
		{PetID: 123, Kind: domain.HistoryFeeding, Amount: 40},
	}
	d := application.NewDispatcher(api, tokens, testLogger)

	report, err := d.History(context.Background(), "123", domain.HistoryFeeding, "week")
	if err != nil {
		t.Fatalf("History error: %v", err)
	}
	if report.PetName != "Fluffy" {
		t.Errorf("pet name: got %q", report.PetName)
	}
	if report.Summary.Events != 2 || report.Summary.Total != 70 {
		t.Errorf("summary: %+v", report.Summary)
	}
	if report.Summary.DailyAverage != 10 {
		t.Errorf("daily average: got %v, want 10", report.Summary.DailyAverage)
	}
}

func TestSetCurfew_ValidatesTimes(t *testing.T) {
	api := &fakeAPI{devices: testDevices(), goodToken: "good"}
	tokens := &fakeTokens{acquireToken: "good"}
	d := application.NewDispatcher(api, tokens, testLogger)

	_, err := d.SetCurfew(context.Background(), "Back Door", "25:00", "06:00")
	if err == nil {
		t.Fatal("expected error for 25:00")
	}
	if api.mutationCalls != 0 {
		t.Errorf("mutation calls: got %d, want 0", api.mutationCalls)
	}

	result, err := d.SetCurfew(context.Background(), "Back Door", "22:00", "06:00")
	if err != nil {
		t.Fatalf("SetCurfew error: %v", err)
	}
	if result.Detail != "22:00 - 06:00" {
		t.Errorf("detail: %q", result.Detail)
	}
}

func TestListPets_FilterAndSort(t *testing.T) {
	api := &fakeAPI{goodToken: "good"}
	tokens := &fakeTokens{acquireToken: "good"}
	api.pets = []domain.Pet{
		{ID: 1, Name: "Ziggy", Location: domain.LocationInside},
		{ID: 2, Name: "Arlo", Location: domain.LocationOutside},
		{ID: 3, Name: "Momo", Location: domain.LocationInside},
	}
	d := application.NewDispatcher(api, tokens, testLogger)

	pets, err := d.ListPets(context.Background(), application.ListOptions{Location: "inside"})
	if err != nil {
		t.Fatalf("ListPets error: %v", err)
	}
	if len(pets) != 2 {
		t.Fatalf("filtered pets: got %d, want 2", len(pets))
	}
	if pets[0].Name != "Momo" || pets[1].Name != "Ziggy" {
		t.Errorf("sort order: %s, %s", pets[0].Name, pets[1].Name)
	}

	_, err = d.ListPets(context.Background(), application.ListOptions{Sort: "battery"})
	if err == nil {
		t.Error("expected error for invalid sort key")
	}
}

func TestLogout(t *testing.T) {
	api := &fakeAPI{goodToken: "good"}
	tokens := &fakeTokens{acquireToken: "good"}
	d := application.NewDispatcher(api, tokens, testLogger)

	if err := d.Logout(); err != nil {
		t.Fatalf("Logout error: %v", err)
	}
	if tokens.logouts != 1 {
		t.Errorf("logouts: got %d, want 1", tokens.logouts)
	}
}
