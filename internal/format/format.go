// Package format renders command results as text tables or JSON. It is
// the only place that knows about terminals; the application layer hands
// it typed payloads and never prints.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/gosuri/uitable"

	"pethub/internal/application"
	"pethub/internal/domain"
)

var (
	insideStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	outsideStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	unknownStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	lockedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	unlockedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	partialStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	offlineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	headerStyle   = lipgloss.NewStyle().Bold(true)
)

type Renderer struct {
	out    io.Writer
	errOut io.Writer
	asJSON bool
}

func NewRenderer(out, errOut io.Writer, asJSON bool) *Renderer {
	return &Renderer{out: out, errOut: errOut, asJSON: asJSON}
}

type petView struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Location string    `json:"location"`
	Indoor   bool      `json:"indoor"`
	Since    time.Time `json:"since,omitempty"`
}

type deviceView struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	SerialNumber string  `json:"serial_number,omitempty"`
	Online       bool    `json:"online"`
	Battery      float64 `json:"battery"`
	LockMode     string  `json:"lock_mode"`
	Curfew       *struct {
		Enabled    bool   `json:"enabled"`
		LockTime   string `json:"lock_time"`
		UnlockTime string `json:"unlock_time"`
	} `json:"curfew,omitempty"`
}

func toPetView(p domain.Pet) petView {
	return petView{ID: p.ID, Name: p.Name, Location: string(p.Location), Indoor: p.Indoor, Since: p.Since}
}

func toDeviceView(d domain.Device) deviceView {
	v := deviceView{
		ID:           d.ID,
		Name:         d.Name,
		SerialNumber: d.SerialNumber,
		Online:       d.Online,
		Battery:      d.Battery,
		LockMode:     string(d.LockMode),
	}
	if d.Curfew != nil {
		v.Curfew = &struct {
			Enabled    bool   `json:"enabled"`
			LockTime   string `json:"lock_time"`
			UnlockTime string `json:"unlock_time"`
		}{d.Curfew.Enabled, d.Curfew.LockTime, d.Curfew.UnlockTime}
	}
	return v
}

func (r *Renderer) Pets(pets []domain.Pet) error {
	if r.asJSON {
		views := make([]petView, len(pets))
		for i, p := range pets {
			views[i] = toPetView(p)
		}
		return r.encode(map[string]any{"pets": views})
	}

	if len(pets) == 0 {
		fmt.Fprintln(r.out, "no pets")
		return nil
	}
	table := uitable.New()
	table.MaxColWidth = 40
	table.AddRow(headerStyle.Render("ID"), headerStyle.Render("NAME"),
		headerStyle.Render("LOCATION"), headerStyle.Render("SINCE"))
	for _, p := range pets {
		table.AddRow(p.ID, p.Name, locationBadge(p.Location), formatSince(p.Since))
	}
	fmt.Fprintln(r.out, table)
	return nil
}

func (r *Renderer) Devices(devices []domain.Device) error {
	if r.asJSON {
		views := make([]deviceView, len(devices))
		for i, d := range devices {
			views[i] = toDeviceView(d)
		}
		return r.encode(map[string]any{"devices": views})
	}

	if len(devices) == 0 {
		fmt.Fprintln(r.out, "no devices")
		return nil
	}
	table := uitable.New()
	table.MaxColWidth = 40
	table.AddRow(headerStyle.Render("ID"), headerStyle.Render("NAME"),
		headerStyle.Render("STATUS"), headerStyle.Render("BATTERY"),
		headerStyle.Render("LOCK"), headerStyle.Render("CURFEW"))
	for _, d := range devices {
		table.AddRow(d.ID, d.Name, onlineBadge(d.Online), formatBattery(d.Battery),
			lockBadge(d.LockMode), formatCurfew(d.Curfew))
	}
	fmt.Fprintln(r.out, table)
	return nil
}

func (r *Renderer) Status(report *application.StatusReport) error {
	if r.asJSON {
		pets := make([]petView, len(report.Pets))
		for i, p := range report.Pets {
			pets[i] = toPetView(p)
		}
		devices := make([]deviceView, len(report.Devices))
		for i, d := range report.Devices {
			devices[i] = toDeviceView(d)
		}
		return r.encode(map[string]any{"pets": pets, "devices": devices})
	}

	fmt.Fprintln(r.out, headerStyle.Render("Pets"))
	if err := r.Pets(report.Pets); err != nil {
		return err
	}
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, headerStyle.Render("Devices"))
	return r.Devices(report.Devices)
}

func (r *Renderer) Action(result *application.ActionResult) error {
	if r.asJSON {
		return r.encode(map[string]any{
			"target_id":   result.TargetID,
			"target_name": result.TargetName,
			"action":      result.Action,
			"detail":      result.Detail,
		})
	}
	if result.Detail != "" {
		fmt.Fprintf(r.out, "%s (ID %d): %s %s\n", result.TargetName, result.TargetID, result.Action, result.Detail)
	} else {
		fmt.Fprintf(r.out, "%s (ID %d): %s\n", result.TargetName, result.TargetID, result.Action)
	}
	return nil
}

func (r *Renderer) History(report *application.HistoryReport) error {
	if r.asJSON {
		type recordView struct {
			At       time.Time `json:"at"`
			DeviceID int64     `json:"device_id,omitempty"`
			Amount   float64   `json:"amount,omitempty"`
			Event    string    `json:"event,omitempty"`
		}
		records := make([]recordView, len(report.Records))
		for i, rec := range report.Records {
			records[i] = recordView{At: rec.At, DeviceID: rec.DeviceID, Amount: rec.Amount, Event: rec.Event}
		}
		return r.encode(map[string]any{
			"pet_id":   report.PetID,
			"pet_name": report.PetName,
			"kind":     string(report.Kind),
			"from":     report.Range.Start,
			"to":       report.Range.End,
			"records":  records,
			"summary": map[string]any{
				"events":        report.Summary.Events,
				"total":         report.Summary.Total,
				"daily_average": report.Summary.DailyAverage,
				"entries":       report.Summary.Entries,
				"exits":         report.Summary.Exits,
			},
		})
	}

	fmt.Fprintf(r.out, "%s history for %s (ID %d), %s to %s\n",
		report.Kind, report.PetName, report.PetID,
		report.Range.Start.Format("2006-01-02"), report.Range.End.Format("2006-01-02"))

	if len(report.Records) == 0 {
		fmt.Fprintln(r.out, "no records in range")
		return nil
	}

	table := uitable.New()
	switch report.Kind {
	case domain.HistoryActivity:
		table.AddRow(headerStyle.Render("TIME"), headerStyle.Render("EVENT"))
		for _, rec := range report.Records {
			table.AddRow(rec.At.Format("2006-01-02 15:04"), rec.Event)
		}
	default:
		table.AddRow(headerStyle.Render("TIME"), headerStyle.Render("AMOUNT"), headerStyle.Render("DEVICE"))
		for _, rec := range report.Records {
			table.AddRow(rec.At.Format("2006-01-02 15:04"), fmt.Sprintf("%.1f", rec.Amount), rec.DeviceID)
		}
	}
	fmt.Fprintln(r.out, table)

	switch report.Kind {
	case domain.HistoryActivity:
		fmt.Fprintf(r.out, "%d events (%d exits, %d entries)\n",
			report.Summary.Events, report.Summary.Exits, report.Summary.Entries)
	default:
		fmt.Fprintf(r.out, "%d events, %.1f total, %.1f per day\n",
			report.Summary.Events, report.Summary.Total, report.Summary.DailyAverage)
	}
	return nil
}

// Message prints a plain confirmation line, or wraps it for JSON mode.
func (r *Renderer) Message(msg string) error {
	if r.asJSON {
		return r.encode(map[string]any{"message": msg})
	}
	fmt.Fprintln(r.out, msg)
	return nil
}

func (r *Renderer) encode(payload any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func locationBadge(loc domain.Location) string {
	switch loc {
	case domain.LocationInside:
		return insideStyle.Render("inside")
	case domain.LocationOutside:
		return outsideStyle.Render("outside")
	default:
		return unknownStyle.Render("unknown")
	}
}

func lockBadge(mode domain.LockMode) string {
	switch mode {
	case domain.LockModeUnlocked:
		return unlockedStyle.Render("unlocked")
	case domain.LockModeLocked:
		return lockedStyle.Render("locked")
	default:
		return partialStyle.Render(string(mode))
	}
}

func onlineBadge(online bool) string {
	if online {
		return unlockedStyle.Render("online")
	}
	return offlineStyle.Render("offline")
}

func formatBattery(level float64) string {
	if level <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", level)
}

func formatCurfew(c *domain.Curfew) string {
	if c == nil || !c.Enabled {
		return "-"
	}
	return fmt.Sprintf("%s - %s", c.LockTime, c.UnlockTime)
}

func formatSince(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}
