package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/snowzach/rotatefilehook"

	"github.com/drewmcarthur/guard-patrol/internal/config"
	"github.com/drewmcarthur/guard-patrol/internal/patrol"
	"github.com/drewmcarthur/guard-patrol/internal/repository"
)

var (
	log = logrus.New()

	configPath string
	inputPath  string
	serve      bool
	trace      bool
	noStore    bool
	workers    int
)

func init() {
	const (
		defaultConfigPath = "patrol.json"
		configUsage       = "config file path"
		defaultInputPath  = "input.txt"
		inputUsage        = "grid file to solve"
	)
	flag.StringVar(&configPath, "config", defaultConfigPath, configUsage)
	flag.StringVar(&configPath, "c", defaultConfigPath, configUsage+" (shorthand)")
	flag.StringVar(&inputPath, "input", defaultInputPath, inputUsage)
	flag.StringVar(&inputPath, "i", defaultInputPath, inputUsage+" (shorthand)")
	flag.BoolVar(&serve, "serve", false, "serve the HTTP API instead of solving a file")
	flag.BoolVar(&trace, "trace", false, "print the grid with the patrol path marked")
	flag.BoolVar(&noStore, "no-store", false, "do not persist runs")
	flag.IntVar(&workers, "workers", 0, "obstruction search workers (overrides config)")
}

func setupLogging(cfg *config.Config) error {
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	if cfg.Development() && level < logrus.DebugLevel {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)

	if cfg.Development() {
		log.SetFormatter(&logrus.TextFormatter{ForceColors: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	if cfg.Log.File != "" {
		hook, err := rotatefilehook.NewRotateFileHook(rotatefilehook.RotateFileConfig{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAgeDays,
			Level:      level,
			Formatter:  &logrus.JSONFormatter{},
		})
		if err != nil {
			return fmt.Errorf("unable to open log file %s: %w", cfg.Log.File, err)
		}
		log.AddHook(hook)
	}

	patrol.Log = log
	return nil
}

func run(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if err := setupLogging(cfg); err != nil {
		return err
	}

	log.Debug("starting up, mode = ", cfg.Mode)
	log.WithFields(cfg.Fields()).Debug("config")

	app := &application{
		log:     log,
		workers: cfg.Workers,
		ws:      config.NewWebSocket(),
	}

	if cfg.Store.Enabled() && !noStore {
		store, err := repository.Open(ctx, cfg.Store)
		if err != nil {
			return fmt.Errorf("unable to open %s store: %w", cfg.Store.Driver, err)
		}
		defer store.Close()
		app.store = store
	}

	if serve {
		return app.serve(ctx, cfg.Addr, cfg.ShutdownTimeout.Duration)
	}

	if flag.NArg() > 0 {
		inputPath = flag.Arg(0)
	}
	return app.solve(ctx, inputPath, trace, os.Stdout)
}

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	flag.Parse()

	if err := run(ctx); err != nil {
		log.Error(err)
		stop()
		os.Exit(1)
	}
}
