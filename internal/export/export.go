// Package export writes pets, devices and history records to CSV or JSON
// files for use outside the CLI.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"pethub/internal/domain"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch s {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("invalid export format %q: use 'csv' or 'json'", s)
	}
}

// Data bundles everything one export run collected.
type Data struct {
	ExportedAt time.Time              `json:"exported_at"`
	Pets       []domain.Pet           `json:"pets,omitempty"`
	Devices    []domain.Device        `json:"devices,omitempty"`
	Records    []domain.HistoryRecord `json:"records,omitempty"`
}

// Filename builds a timestamped default output name, e.g.
// pethub_export_20260828_140501.csv.
func Filename(format Format, now time.Time) string {
	return fmt.Sprintf("pethub_export_%s.%s", now.Format("20060102_150405"), format)
}

func WriteJSON(w io.Writer, data *Data) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("writing JSON export: %w", err)
	}
	return nil
}

// WriteCSV writes one section per populated collection, separated by a
// blank line. Each section carries its own header row.
func WriteCSV(w io.Writer, data *Data) error {
	first := true
	sep := func() {
		if !first {
			fmt.Fprintln(w)
		}
		first = false
	}

	if len(data.Pets) > 0 {
		sep()
		if err := writePetsCSV(w, data.Pets); err != nil {
			return err
		}
	}
	if len(data.Devices) > 0 {
		sep()
		if err := writeDevicesCSV(w, data.Devices); err != nil {
			return err
		}
	}
	if len(data.Records) > 0 {
		sep()
		if err := writeRecordsCSV(w, data.Records); err != nil {
			return err
		}
	}
	return nil
}

func writePetsCSV(w io.Writer, pets []domain.Pet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"pet_id", "name", "location", "indoor", "since"}); err != nil {
		return fmt.Errorf("writing pet CSV header: %w", err)
	}
	for _, p := range pets {
		since := ""
		if !p.Since.IsZero() {
			since = p.Since.Format(time.RFC3339)
		}
		row := []string{
			strconv.FormatInt(p.ID, 10),
			p.Name,
			string(p.Location),
			strconv.FormatBool(p.Indoor),
			since,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing pet row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeDevicesCSV(w io.Writer, devices []domain.Device) error {
	cw := csv.NewWriter(w)
	header := []string{"device_id", "name", "serial_number", "online", "battery_level", "lock_state", "curfew"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing device CSV header: %w", err)
	}
	for _, d := range devices {
		curfew := ""
		if d.Curfew != nil && d.Curfew.Enabled {
			curfew = d.Curfew.LockTime + "-" + d.Curfew.UnlockTime
		}
		row := []string{
			strconv.FormatInt(d.ID, 10),
			d.Name,
			d.SerialNumber,
			strconv.FormatBool(d.Online),
			strconv.FormatFloat(d.Battery, 'f', 0, 64),
			string(d.LockMode),
			curfew,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing device row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeRecordsCSV(w io.Writer, records []domain.HistoryRecord) error {
	cw := csv.NewWriter(w)
	header := []string{"data_type", "pet_id", "timestamp", "device_id", "amount", "event"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing history CSV header: %w", err)
	}
	for _, rec := range records {
		deviceID := ""
		if rec.DeviceID != 0 {
			deviceID = strconv.FormatInt(rec.DeviceID, 10)
		}
		amount := ""
		if rec.Amount != 0 {
			amount = strconv.FormatFloat(rec.Amount, 'f', 1, 64)
		}
		row := []string{
			string(rec.Kind),
			strconv.FormatInt(rec.PetID, 10),
			rec.At.Format(time.RFC3339),
			deviceID,
			amount,
			rec.Event,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing history row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
