package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"pethub/internal/application"
	"pethub/internal/domain"
)

var (
	menuTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	menuKeyStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	menuDimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type menuItem struct {
	key   string
	label string
}

var menuItems = []menuItem{
	{"st", "status of all pets and devices"},
	{"ls", "list pets"},
	{"loc", "set a pet's location"},
	{"lock", "change a flap's lock mode"},
	{"curfew", "set or disable a curfew"},
	{"history", "feeding, drinking or activity history"},
	{"logout", "remove the saved token"},
	{"exit", "quit"},
}

// runInteractive is the menu loop used when no subcommand is given. Errors
// from individual actions are rendered and the loop continues; only EOF on
// stdin or "exit" ends it.
func (a *App) runInteractive(ctx context.Context) error {
	in := bufio.NewReader(os.Stdin)

	fmt.Fprintln(a.out, menuTitleStyle.Render("pethub"))
	for {
		a.printMenu()
		choice, err := readLine(in, a.out, "> ")
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		switch strings.ToLower(choice) {
		case "st":
			a.menuAction(func() error {
				report, err := a.dispatcher.Status(ctx)
				if err != nil {
					return err
				}
				return a.renderer.Status(report)
			})
		case "ls":
			a.menuAction(func() error {
				pets, err := a.dispatcher.ListPets(ctx, application.ListOptions{})
				if err != nil {
					return err
				}
				return a.renderer.Pets(pets)
			})
		case "loc":
			a.menuSetLocation(ctx, in)
		case "lock":
			a.menuLock(ctx, in)
		case "curfew":
			a.menuCurfew(ctx, in)
		case "history":
			a.menuHistory(ctx, in)
		case "logout":
			a.menuAction(func() error {
				if err := a.dispatcher.Logout(); err != nil {
					return err
				}
				return a.renderer.Message("logged out")
			})
		case "exit", "quit", "q":
			return nil
		case "":
			// blank line, redraw the menu
		default:
			fmt.Fprintf(a.out, "unknown choice %q\n", choice)
		}
	}
}

func (a *App) printMenu() {
	fmt.Fprintln(a.out)
	for _, item := range menuItems {
		fmt.Fprintf(a.out, "  %s  %s\n",
			menuKeyStyle.Render(fmt.Sprintf("%-7s", item.key)),
			menuDimStyle.Render(item.label))
	}
}

// menuAction runs one dispatcher call and renders its error in place so
// the loop survives failures.
func (a *App) menuAction(action func() error) {
	if err := action(); err != nil {
		a.renderer.Error(err)
	}
}

func (a *App) menuSetLocation(ctx context.Context, in *bufio.Reader) {
	a.menuAction(func() error {
		pet, err := readLine(in, a.out, "pet (name or ID): ")
		if err != nil {
			return err
		}
		location, err := readLine(in, a.out, "location (inside/outside): ")
		if err != nil {
			return err
		}
		result, err := a.dispatcher.SetPetLocation(ctx, pet, location)
		if err != nil {
			return err
		}
		return a.renderer.Action(result)
	})
}

func (a *App) menuLock(ctx context.Context, in *bufio.Reader) {
	a.menuAction(func() error {
		device, err := readLine(in, a.out, "device (name or ID): ")
		if err != nil {
			return err
		}
		modeStr, err := readLine(in, a.out, "mode (unlocked/locked/lock-in/lock-out): ")
		if err != nil {
			return err
		}
		mode, err := domain.ParseLockMode(modeStr)
		if err != nil {
			return err
		}
		result, err := a.dispatcher.SetLockMode(ctx, device, mode)
		if err != nil {
			return err
		}
		return a.renderer.Action(result)
	})
}

func (a *App) menuCurfew(ctx context.Context, in *bufio.Reader) {
	a.menuAction(func() error {
		device, err := readLine(in, a.out, "device (name or ID): ")
		if err != nil {
			return err
		}
		lockTime, err := readLine(in, a.out, "lock time HH:MM (empty to disable): ")
		if err != nil {
			return err
		}
		if lockTime == "" {
			result, err := a.dispatcher.DisableCurfew(ctx, device)
			if err != nil {
				return err
			}
			return a.renderer.Action(result)
		}
		unlockTime, err := readLine(in, a.out, "unlock time HH:MM: ")
		if err != nil {
			return err
		}
		result, err := a.dispatcher.SetCurfew(ctx, device, lockTime, unlockTime)
		if err != nil {
			return err
		}
		return a.renderer.Action(result)
	})
}

func (a *App) menuHistory(ctx context.Context, in *bufio.Reader) {
	a.menuAction(func() error {
		pet, err := readLine(in, a.out, "pet (name or ID): ")
		if err != nil {
			return err
		}
		kindStr, err := readLine(in, a.out, "kind (feeding/drinking/activity): ")
		if err != nil {
			return err
		}
		kind, err := domain.ParseHistoryKind(kindStr)
		if err != nil {
			return err
		}
		rangeExpr, err := readLine(in, a.out, "range (today/week/month/YYYY-MM-DD,YYYY-MM-DD) [week]: ")
		if err != nil {
			return err
		}
		if rangeExpr == "" {
			rangeExpr = "week"
		}
		report, err := a.dispatcher.History(ctx, pet, kind, rangeExpr)
		if err != nil {
			return err
		}
		return a.renderer.History(report)
	})
}

func readLine(in *bufio.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
