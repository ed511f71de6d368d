package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/Makepad-fr/tada/internal/cli"
	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/logging"
	"github.com/Makepad-fr/tada/internal/metrics"
	"github.com/Makepad-fr/tada/internal/store/jsonstore"
	"github.com/Makepad-fr/tada/internal/todos"
	"github.com/Makepad-fr/tada/internal/ui"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	// Root flags (apply to every subcommand)
	fs := flag.NewFlagSet("todo", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	groupPending := fs.Bool("group", false, "group output by pending/done")
	theme := fs.String("theme", "", "color theme (default $TADA_THEME or classic)")
	noColor := fs.Bool("no-color", false, "disable ANSI colors")
	if err := fs.Parse(argv); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			cli.PrintHelp()
			return 0
		}
		ui.Fail(err.Error())
		return 2
	}

	// help needs neither configuration nor storage.
	args := fs.Args()
	if len(args) == 0 {
		cli.PrintHelp()
		return 2
	}
	if isHelp(args[0]) {
		cli.PrintHelp()
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		ui.Fail(err.Error())
		return 1
	}
	if *theme == "" {
		*theme = cfg.Theme
	}
	ui.SetColorForcing(false, *noColor || cfg.NoColor)
	if err := ui.SetTheme(*theme); err != nil {
		ui.Fail(err.Error())
		return 2
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		ui.Fail(err.Error())
		return 1
	}
	defer func() { _ = logger.Sync() }()

	backend, err := openBackend(cfg)
	if err != nil {
		logger.Error("open storage", zap.String("backend", cfg.Backend), zap.Error(err))
		ui.Fail(fmt.Sprintf("open %s storage: %v", cfg.Backend, err))
		return 1
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Warn("close storage", zap.Error(err))
		}
	}()

	rec := metrics.New("tada")
	store := todos.New(
		jsonstore.New(backend, jsonstore.WithKey(cfg.Key)),
		todos.WithLogger(logger.With(zap.String("backend", cfg.Backend))),
		todos.WithObserver(rec),
	)
	if err := store.Hydrate(); err != nil {
		if store.Loaded() {
			ui.Warn("starting with an empty list: " + err.Error())
		} else {
			ui.Warn("could not read the stored list, changes will not be saved: " + err.Error())
		}
	}

	code := cli.Run(store, args, cli.Options{
		Group:       *groupPending,
		Width:       80,
		HistoryFile: cfg.HistoryFile,
	})

	if cfg.MetricsFile != "" {
		if err := rec.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn("write metrics", zap.String("path", cfg.MetricsFile), zap.Error(err))
		}
	}
	if code != 0 {
		fmt.Fprintln(ui.Err)
	}
	return code
}

func isHelp(arg string) bool {
	switch arg {
	case "help", "-h", "--help":
		return true
	}
	return false
}
