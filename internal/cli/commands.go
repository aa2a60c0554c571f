package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pethub/internal/application"
	"pethub/internal/domain"
	"pethub/internal/export"
)

func (a *App) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show all pets and devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := a.dispatcher.Status(cmd.Context())
			if err != nil {
				return err
			}
			return a.renderer.Status(report)
		},
	}
}

func (a *App) listCommand() *cobra.Command {
	var location, sortKey string
	cmd := &cobra.Command{
		Use:   "list [pets|devices]",
		Short: "List pets or devices",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			what := "pets"
			if len(args) == 1 {
				what = args[0]
			}
			switch what {
			case "pets":
				pets, err := a.dispatcher.ListPets(cmd.Context(), application.ListOptions{
					Location: location,
					Sort:     sortKey,
				})
				if err != nil {
					return err
				}
				return a.renderer.Pets(pets)
			case "devices":
				devices, err := a.dispatcher.ListDevices(cmd.Context())
				if err != nil {
					return err
				}
				return a.renderer.Devices(devices)
			default:
				return fmt.Errorf("unknown list target %q: use 'pets' or 'devices'", what)
			}
		},
	}
	cmd.Flags().StringVar(&location, "location", "", "only pets at this location (inside/outside)")
	cmd.Flags().StringVar(&sortKey, "sort", "", "sort key: name (default) or location")
	return cmd
}

func (a *App) setLocationCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-location <pet> <inside|outside>",
		Short: "Correct where a pet is recorded to be",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.dispatcher.SetPetLocation(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return a.renderer.Action(result)
		},
	}
}

func (a *App) setClassCommand(use, class, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <pet>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.dispatcher.SetPetClass(cmd.Context(), args[0], class)
			if err != nil {
				return err
			}
			return a.renderer.Action(result)
		},
	}
}

func (a *App) lockCommand(use string, mode domain.LockMode, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <device>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.dispatcher.SetLockMode(cmd.Context(), args[0], mode)
			if err != nil {
				return err
			}
			return a.renderer.Action(result)
		},
	}
}

func (a *App) curfewCommand() *cobra.Command {
	var disable bool
	cmd := &cobra.Command{
		Use:   "set-curfew <device> [lock-time unlock-time]",
		Short: "Set or disable a device curfew (times are HH:MM)",
		Args:  cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if disable {
				if len(args) != 1 {
					return fmt.Errorf("--disable takes only the device argument")
				}
				result, err := a.dispatcher.DisableCurfew(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.renderer.Action(result)
			}
			if len(args) != 3 {
				return fmt.Errorf("usage: set-curfew <device> <lock-time> <unlock-time>")
			}
			result, err := a.dispatcher.SetCurfew(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			return a.renderer.Action(result)
		},
	}
	cmd.Flags().BoolVar(&disable, "disable", false, "remove the curfew instead of setting one")
	return cmd
}

func (a *App) historyCommand(use string, kind domain.HistoryKind, short string) *cobra.Command {
	var rangeExpr string
	cmd := &cobra.Command{
		Use:   use + " <pet>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := a.dispatcher.History(cmd.Context(), args[0], kind, rangeExpr)
			if err != nil {
				return err
			}
			return a.renderer.History(report)
		},
	}
	cmd.Flags().StringVar(&rangeExpr, "range", "week",
		"time range: today, week, month or YYYY-MM-DD,YYYY-MM-DD")
	return cmd
}

func (a *App) exportCommand() *cobra.Command {
	var (
		formatName string
		types      []string
		pet        string
		rangeExpr  string
		output     string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export pets, devices or history to a CSV or JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := export.ParseFormat(formatName)
			if err != nil {
				return err
			}

			data := &export.Data{ExportedAt: time.Now()}
			for _, t := range types {
				switch strings.TrimSpace(t) {
				case "pets":
					pets, err := a.dispatcher.ListPets(cmd.Context(), application.ListOptions{})
					if err != nil {
						return err
					}
					data.Pets = pets
				case "devices":
					devices, err := a.dispatcher.ListDevices(cmd.Context())
					if err != nil {
						return err
					}
					data.Devices = devices
				case "feeding", "drinking", "activity":
					if pet == "" {
						return fmt.Errorf("exporting %s history requires --pet", t)
					}
					kind, err := domain.ParseHistoryKind(t)
					if err != nil {
						return err
					}
					report, err := a.dispatcher.History(cmd.Context(), pet, kind, rangeExpr)
					if err != nil {
						return err
					}
					data.Records = append(data.Records, report.Records...)
				default:
					return fmt.Errorf("unknown export type %q: use pets, devices, feeding, drinking or activity", t)
				}
			}

			path := output
			if path == "" {
				path = export.Filename(f, time.Now())
			}
			file, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("creating export file: %w", err)
			}
			defer file.Close()

			switch f {
			case export.FormatCSV:
				err = export.WriteCSV(file, data)
			case export.FormatJSON:
				err = export.WriteJSON(file, data)
			}
			if err != nil {
				return err
			}
			if err := file.Close(); err != nil {
				return fmt.Errorf("finalizing export file: %w", err)
			}
			return a.renderer.Message("exported to " + path)
		},
	}
	cmd.Flags().StringVar(&formatName, "format", "csv", "output format: csv or json")
	cmd.Flags().StringSliceVar(&types, "types", []string{"pets", "devices"},
		"data to export: pets, devices, feeding, drinking, activity")
	cmd.Flags().StringVar(&pet, "pet", "", "pet name or ID (required for history types)")
	cmd.Flags().StringVar(&rangeExpr, "range", "week",
		"time range for history types: today, week, month or YYYY-MM-DD,YYYY-MM-DD")
	cmd.Flags().StringVar(&output, "output", "", "output file (default pethub_export_<timestamp>.<ext>)")
	return cmd
}

func (a *App) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the saved login token",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := a.dispatcher.Logout(); err != nil {
				return err
			}
			return a.renderer.Message("logged out")
		},
	}
}
