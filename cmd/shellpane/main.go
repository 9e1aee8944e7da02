// Package main is the entry point for shellpane.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dshills/shellpane/internal/app"
	"github.com/dshills/shellpane/internal/config"
	"github.com/dshills/shellpane/internal/logging"
	"github.com/dshills/shellpane/internal/renderer/backend"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var errNotTerminal = errors.New("stdin is not a terminal")

// flags holds the command line settings that override the configuration.
type flags struct {
	configPath string
	dir        string
	shell      string
	logLevel   string
	logFile    string
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "shellpane [directory]",
		Short: "A file manager with an embedded shell",
		Long: `shellpane shows a directory listing next to a live shell.
Ctrl+T moves the keyboard between the two panes; the shell follows the
browser into every directory it enters.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.dir == "" && len(args) == 1 {
				f.dir = args[0]
			}
			return runApp(cmd.Context(), f)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.configPath, "config", "c", "", "configuration file (default "+config.DefaultPath()+")")
	fl.StringVarP(&f.dir, "dir", "d", "", "starting directory (default the working directory)")
	fl.StringVar(&f.shell, "shell", "", "shell program (default $SHELL)")
	fl.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn or error")
	fl.StringVar(&f.logFile, "log-file", "", "append logs to this file")
	return cmd
}

func runApp(ctx context.Context, f flags) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errNotTerminal
	}

	cfg, err := loadConfig(f, nil)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogConfig())
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	defer logger.Close()

	screen, err := backend.NewTerminal()
	if err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	application, err := app.New(app.Options{
		Config:  cfg,
		Dir:     f.dir,
		Backend: screen,
		Watch:   true,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	if err := application.Run(ctx); err != nil {
		logger.Error("run failed", "error", err)
		return err
	}
	return nil
}

// loadConfig reads the configuration file and environment, applies the
// flags on top and validates the result. A nil env reads the process
// environment.
func loadConfig(f flags, env []string) (*config.Config, error) {
	path := f.configPath
	if path == "" {
		path = config.DefaultPath()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg, err := config.Load(config.LoadOptions{Path: path, Env: env})
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if f.shell != "" {
		cfg.Shell.Program = f.shell
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
	if f.logFile != "" {
		cfg.Logging.File = f.logFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}
