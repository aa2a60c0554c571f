// Package surehub is the HTTP client for the pet-monitoring vendor API.
// It exposes one typed operation per vendor capability and never resolves
// names itself; callers hand it already-resolved identifiers.
package surehub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"pethub/internal/domain"
	"pethub/internal/timerange"
)

const (
	defaultBaseURL = "https://app.api.surehub.io/api"
	userAgent      = "pethub"
)

// Vendor wire codes.
const (
	codeUnlocked = 0
	codeLockIn   = 1
	codeLockOut  = 2
	codeLocked   = 3

	codeInside  = 1
	codeOutside = 2

	profileIndoor  = 6
	profileOutdoor = 2
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	// Session device ID sent with the login exchange.
	deviceID string
	token    string
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		deviceID:   uuid.NewString(),
	}
}

// SetToken installs the bearer token used for all subsequent calls.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Login exchanges account credentials for a bearer token. It does not
// install the token; that stays the caller's decision.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body := map[string]string{
		"email_address": email,
		"password":      password,
		"device_id":     c.deviceID,
	}

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &resp); err != nil {
		return "", fmt.Errorf("logging in: %w", err)
	}
	if resp.Data.Token == "" {
		return "", &APIError{Kind: KindMalformed, Message: "login response carried no token"}
	}
	return resp.Data.Token, nil
}

func (c *Client) ListPets(ctx context.Context) ([]domain.Pet, error) {
	start, err := c.getStart(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching pets: %w", err)
	}

	pets := make([]domain.Pet, 0, len(start.Data.Pets))
	for _, p := range start.Data.Pets {
		pets = append(pets, p.toDomain())
	}
	return pets, nil
}

func (c *Client) ListDevices(ctx context.Context) ([]domain.Device, error) {
	start, err := c.getStart(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching devices: %w", err)
	}

	devices := make([]domain.Device, 0, len(start.Data.Devices))
	for _, d := range start.Data.Devices {
		devices = append(devices, d.toDomain())
	}
	return devices, nil
}

func (c *Client) SetPetLocation(ctx context.Context, petID int64, location domain.Location) error {
	code, err := locationCode(location)
	if err != nil {
		return err
	}

	body := map[string]any{
		"where": code,
		"since": time.Now().UTC().Format(time.RFC3339),
	}
	path := fmt.Sprintf("/pet/%d/position", petID)
	if err := c.do(ctx, http.MethodPost, path, nil, body, nil); err != nil {
		return fmt.Errorf("setting pet %d location: %w", petID, err)
	}
	return nil
}

func (c *Client) SetPetClass(ctx context.Context, petID int64, class domain.PetClass) error {
	profile := profileOutdoor
	if class == domain.ClassIndoor {
		profile = profileIndoor
	}

	body := map[string]any{"profile": profile}
	path := fmt.Sprintf("/pet/%d/tag", petID)
	if err := c.do(ctx, http.MethodPut, path, nil, body, nil); err != nil {
		return fmt.Errorf("setting pet %d class: %w", petID, err)
	}
	return nil
}

func (c *Client) SetLockMode(ctx context.Context, deviceID int64, mode domain.LockMode) error {
	code, err := lockModeCode(mode)
	if err != nil {
		return err
	}

	body := map[string]any{"locking": code}
	path := fmt.Sprintf("/device/%d/control", deviceID)
	if err := c.do(ctx, http.MethodPut, path, nil, body, nil); err != nil {
		return fmt.Errorf("setting device %d lock mode: %w", deviceID, err)
	}
	return nil
}

func (c *Client) SetCurfew(ctx context.Context, deviceID int64, lockTime, unlockTime string) error {
	body := map[string]any{
		"curfew": []curfewJSON{{Enabled: true, LockTime: lockTime, UnlockTime: unlockTime}},
	}
	path := fmt.Sprintf("/device/%d/control", deviceID)
	if err := c.do(ctx, http.MethodPut, path, nil, body, nil); err != nil {
		return fmt.Errorf("setting device %d curfew: %w", deviceID, err)
	}
	return nil
}

// DisableCurfew clears the curfew list; the vendor treats an empty list
// as "no curfew".
func (c *Client) DisableCurfew(ctx context.Context, deviceID int64) error {
	body := map[string]any{"curfew": []curfewJSON{}}
	path := fmt.Sprintf("/device/%d/control", deviceID)
	if err := c.do(ctx, http.MethodPut, path, nil, body, nil); err != nil {
		return fmt.Errorf("disabling device %d curfew: %w", deviceID, err)
	}
	return nil
}

// GetHistory fetches the daily dashboard rollups for one pet and flattens
// them into records of the requested kind, bounded by r.
func (c *Client) GetHistory(ctx context.Context, petID int64, kind domain.HistoryKind, r timerange.Range) ([]domain.HistoryRecord, error) {
	query := url.Values{}
	query.Set("Pet_Id", strconv.FormatInt(petID, 10))
	query.Set("From", r.Start.Format(time.RFC3339))
	query.Set("dayshistory", strconv.Itoa(r.Days()))

	var resp dashboardResponse
	if err := c.do(ctx, http.MethodGet, "/dashboard/pet", query, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching %s history: %w", kind, err)
	}

	var records []domain.HistoryRecord
	for _, pd := range resp.Data {
		if pd.PetID != petID {
			continue
		}
		switch kind {
		case domain.HistoryFeeding:
			records = append(records, consumptionRecords(petID, kind, pd.Feeding)...)
		case domain.HistoryDrinking:
			records = append(records, consumptionRecords(petID, kind, pd.Drinking)...)
		case domain.HistoryActivity:
			records = append(records, movementRecords(petID, pd.Movement)...)
		}
	}

	// The dashboard returns whole days; trim to the requested bounds.
	bounded := records[:0]
	for _, rec := range records {
		if rec.At.Before(r.Start) || rec.At.After(r.End) {
			continue
		}
		bounded = append(bounded, rec)
	}
	return bounded, nil
}

type curfewJSON struct {
	Enabled    bool   `json:"enabled"`
	LockTime   string `json:"lock_time"`
	UnlockTime string `json:"unlock_time"`
}

type startResponse struct {
	Data struct {
		Pets    []petJSON    `json:"pets"`
		Devices []deviceJSON `json:"devices"`
	} `json:"data"`
}

type petJSON struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Position *struct {
		Where *int   `json:"where"`
		Since string `json:"since"`
	} `json:"position"`
	Tag *struct {
		Profile int `json:"profile"`
	} `json:"tag"`
}

func (p petJSON) toDomain() domain.Pet {
	pet := domain.Pet{
		ID:       p.ID,
		Name:     p.Name,
		Location: domain.LocationUnknown,
	}
	if p.Position != nil && p.Position.Where != nil {
		switch *p.Position.Where {
		case codeInside:
			pet.Location = domain.LocationInside
		case codeOutside:
			pet.Location = domain.LocationOutside
		}
		if since, err := time.Parse(time.RFC3339, p.Position.Since); err == nil {
			pet.Since = since
		}
	}
	if p.Tag != nil {
		pet.Indoor = p.Tag.Profile == profileIndoor
	}
	return pet
}

type deviceJSON struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	SerialNumber string `json:"serial_number"`
	Status       *struct {
		Online  *bool    `json:"online"`
		Battery *float64 `json:"battery"`
		Locking *struct {
			Mode   int          `json:"mode"`
			Curfew []curfewJSON `json:"curfew"`
		} `json:"locking"`
	} `json:"status"`
}

func (d deviceJSON) toDomain() domain.Device {
	dev := domain.Device{
		ID:           d.ID,
		Name:         d.Name,
		SerialNumber: d.SerialNumber,
		LockMode:     domain.LockModeUnlocked,
	}
	if d.Status == nil {
		return dev
	}
	if d.Status.Online != nil {
		dev.Online = *d.Status.Online
	}
	if d.Status.Battery != nil {
		dev.Battery = *d.Status.Battery
	}
	if d.Status.Locking != nil {
		dev.LockMode = lockModeFromCode(d.Status.Locking.Mode)
		if len(d.Status.Locking.Curfew) > 0 {
			cw := d.Status.Locking.Curfew[0]
			dev.Curfew = &domain.Curfew{
				Enabled:    cw.Enabled,
				LockTime:   cw.LockTime,
				UnlockTime: cw.UnlockTime,
			}
		}
	}
	return dev
}

type dashboardResponse struct {
	Data []struct {
		PetID    int64            `json:"pet_id"`
		Feeding  *consumptionJSON `json:"feeding"`
		Drinking *consumptionJSON `json:"drinking"`
		Movement *movementJSON    `json:"movement"`
	} `json:"data"`
}

type consumptionJSON struct {
	DeviceIDs []int64 `json:"device_ids"`
	Activity  []struct {
		Date             string  `json:"date"`
		TotalConsumption float64 `json:"total_consumption"`
	} `json:"activity"`
}

type movementJSON struct {
	DeviceIDs []int64 `json:"device_ids"`
	Activity  []struct {
		Date        string `json:"date"`
		TimeOutside string `json:"time_outside"`
	} `json:"activity"`
}

func consumptionRecords(petID int64, kind domain.HistoryKind, src *consumptionJSON) []domain.HistoryRecord {
	if src == nil {
		return nil
	}
	var deviceID int64
	if len(src.DeviceIDs) > 0 {
		deviceID = src.DeviceIDs[0]
	}

	var records []domain.HistoryRecord
	for _, day := range src.Activity {
		if day.TotalConsumption <= 0 {
			continue
		}
		date, err := time.Parse(time.RFC3339, day.Date)
		if err != nil {
			continue
		}
		// Daily rollups carry no time of day; anchor mid-day.
		records = append(records, domain.HistoryRecord{
			PetID:    petID,
			Kind:     kind,
			At:       date.Add(12 * time.Hour),
			DeviceID: deviceID,
			Amount:   day.TotalConsumption,
		})
	}
	return records
}

// movementRecords expands each day's time-outside total into an exit/entry
// pair, the same synthesis the dashboard UI applies.
func movementRecords(petID int64, src *movementJSON) []domain.HistoryRecord {
	if src == nil {
		return nil
	}
	var deviceID int64
	if len(src.DeviceIDs) > 0 {
		deviceID = src.DeviceIDs[0]
	}

	var records []domain.HistoryRecord
	for _, day := range src.Activity {
		date, err := time.Parse(time.RFC3339, day.Date)
		if err != nil {
			continue
		}
		outside := parseClockDuration(day.TimeOutside)
		if outside <= 0 {
			continue
		}
		exit := date.Add(8 * time.Hour)
		records = append(records,
			domain.HistoryRecord{PetID: petID, Kind: domain.HistoryActivity, At: exit, DeviceID: deviceID, Event: "exit"},
			domain.HistoryRecord{PetID: petID, Kind: domain.HistoryActivity, At: exit.Add(outside), DeviceID: deviceID, Event: "entry"},
		)
	}
	return records
}

func parseClockDuration(s string) time.Duration {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	sec, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return 0
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second
}

func (c *Client) getStart(ctx context.Context) (*startResponse, error) {
	var resp startResponse
	if err := c.do(ctx, http.MethodGet, "/me/start", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &APIError{Kind: KindValidation, Message: "encoding request body", Err: err}
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return &APIError{Kind: KindNetwork, Message: "creating request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug("api request", "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Kind: KindNetwork, Message: "sending request", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Kind: KindNetwork, Message: "reading response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			Kind:    kindForStatus(resp.StatusCode),
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("%s %s failed: %s", method, path, strings.TrimSpace(string(respBody))),
		}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return &APIError{Kind: KindMalformed, Message: "decoding response", Err: err}
		}
	}
	return nil
}

func locationCode(loc domain.Location) (int, error) {
	switch loc {
	case domain.LocationInside:
		return codeInside, nil
	case domain.LocationOutside:
		return codeOutside, nil
	default:
		return 0, &APIError{Kind: KindValidation, Message: fmt.Sprintf("location %q cannot be sent to the API", loc)}
	}
}

func lockModeCode(mode domain.LockMode) (int, error) {
	switch mode {
	case domain.LockModeUnlocked:
		return codeUnlocked, nil
	case domain.LockModeLockIn:
		return codeLockIn, nil
	case domain.LockModeLockOut:
		return codeLockOut, nil
	case domain.LockModeLocked:
		return codeLocked, nil
	default:
		return 0, &APIError{Kind: KindValidation, Message: fmt.Sprintf("lock mode %q cannot be sent to the API", mode)}
	}
}

func lockModeFromCode(code int) domain.LockMode {
	switch code {
	case codeLockIn:
		return domain.LockModeLockIn
	case codeLockOut:
		return domain.LockModeLockOut
	case codeLocked:
		return domain.LockModeLocked
	default:
		return domain.LockModeUnlocked
	}
}
