// Package cli holds the two front ends: the cobra subcommand tree for
// headless use and the interactive menu that runs when no subcommand is
// given. Both delegate to the application dispatcher and render through
// the format package.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"pethub/config"
	"pethub/internal/application"
	"pethub/internal/auth"
	"pethub/internal/format"
	"pethub/internal/infra/surehub"
)

type App struct {
	out    io.Writer
	errOut io.Writer

	configPath string
	asJSON     bool
	verbose    bool

	cfg        *config.Config
	logger     *slog.Logger
	dispatcher *application.Dispatcher
	renderer   *format.Renderer
}

func NewApp() *App {
	return &App{out: os.Stdout, errOut: os.Stderr}
}

// Execute runs the CLI and returns the process exit code. Ctrl-C cancels
// the context of whatever command is in flight.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := NewApp()
	root := app.rootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		if app.renderer != nil {
			app.renderer.Error(err)
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		return 1
	}
	return 0
}

func (a *App) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "pethub",
		Short: "Command-line client for the SureHub pet-monitoring API",
		Long: `pethub controls pet flaps and feeders through the SureHub cloud API:
check where your pets are, lock and unlock doors, manage curfews and
pull feeding, drinking and activity history.

Run without a subcommand for the interactive menu.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runInteractive(cmd.Context())
		},
	}

	a.addGlobalFlags(root.PersistentFlags())

	root.AddCommand(
		a.statusCommand(),
		a.listCommand(),
		a.setLocationCommand(),
		a.setClassCommand("set-indoor", "indoor", "Mark a pet as an indoor-only pet"),
		a.setClassCommand("set-outdoor", "outdoor", "Mark a pet as an outdoor pet"),
		a.lockCommand("lock", "locked", "Lock a flap in both directions"),
		a.lockCommand("unlock", "unlocked", "Unlock a flap"),
		a.lockCommand("lock-in", "lock-in", "Let pets in but not out"),
		a.lockCommand("lock-out", "lock-out", "Let pets out but not in"),
		a.curfewCommand(),
		a.historyCommand("feeding-history", "feeding", "Show feeding history for a pet"),
		a.historyCommand("drinking-history", "drinking", "Show drinking history for a pet"),
		a.historyCommand("activity-history", "activity", "Show activity history for a pet"),
		a.exportCommand(),
		a.logoutCommand(),
	)

	return root
}

func (a *App) addGlobalFlags(flags *pflag.FlagSet) {
	flags.StringVar(&a.configPath, "config", "", "path to config file (default ~/.pethub.yaml)")
	flags.BoolVar(&a.asJSON, "json", false, "render output as JSON")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
}

// init wires the whole stack once the global flags are parsed. A missing
// config file at the default path is fine; an explicit --config that does
// not load is an error.
func (a *App) init() error {
	var cfg *config.Config
	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	} else {
		loaded, err := config.Load(config.DefaultPath())
		switch {
		case err == nil:
			cfg = loaded
		case errors.Is(err, fs.ErrNotExist):
			cfg = config.Default()
		default:
			return err
		}
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}
	a.cfg = cfg
	a.logger = setupLogger(cfg.Log, a.errOut)
	a.renderer = format.NewRenderer(a.out, a.errOut, a.asJSON)

	timeout, err := time.ParseDuration(cfg.API.Timeout)
	if err != nil {
		a.logger.Warn("invalid api timeout, using default", "error", err, "value", cfg.API.Timeout)
		timeout = 15 * time.Second
	}

	client := surehub.NewClient(cfg.API.BaseURL, timeout, a.logger)

	tokenPath := cfg.Auth.TokenFile
	if tokenPath == "" {
		tokenPath, err = auth.DefaultTokenPath()
		if err != nil {
			return err
		}
	}
	store := auth.NewStore(tokenPath, client, newTerminalPrompter(), a.logger)

	a.dispatcher = application.NewDispatcher(client, store, a.logger)
	return nil
}

func setupLogger(cfg config.LogConfig, out io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler)
}
