package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/site"
	"git.home.luguber.info/inful/sitebuilder/internal/watch"
)

var CLI struct {
	Config  string `short:"c" help:"Site configuration file path" default:"site.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct{} `cmd:"" help:"Build the site once and exit"`

	Watch struct{} `cmd:"" help:"Build the site and rebuild incrementally on changes"`
}

func main() {
	_ = godotenv.Load()

	kctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch kctx.Command() {
	case "build":
		if err := runBuild(ctx, logger); err != nil {
			slog.Error("Build failed", "error", err)
			os.Exit(1)
		}
	case "watch":
		if err := runWatch(ctx, logger); err != nil {
			slog.Error("Watch session failed", "error", err)
			os.Exit(1)
		}
	default:
		kctx.FatalIfErrorf(fmt.Errorf("unknown command %q", kctx.Command()))
	}
}

func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(CLI.Config); os.IsNotExist(err) {
		slog.Debug("No configuration file, using defaults", "path", CLI.Config)
		return config.Default(), nil
	}
	return config.Load(CLI.Config)
}

func runBuild(ctx context.Context, logger *slog.Logger) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	s := site.New(cfg, site.WithLogger(logger))
	defer s.Close()
	s.RegisterDefaults()

	report, err := s.Build(ctx)
	if err != nil {
		return err
	}

	fmt.Println(report.Summary())
	if report.Failed() {
		os.Exit(1)
	}
	return nil
}

// runWatch runs full-build + watch sessions in a loop. A config change (or
// a collaborator's restart request) tears the session down and starts a
// fresh one from configuration.
func runWatch(ctx context.Context, logger *slog.Logger) error {
	for {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		s := site.New(cfg, site.WithLogger(logger))
		s.RegisterDefaults()

		report, err := s.Build(ctx)
		if err != nil {
			s.Close()
			return err
		}
		fmt.Println(report.Summary())

		sourceRoot, err := filepath.Abs(cfg.Source)
		if err != nil {
			s.Close()
			return err
		}
		configPath, _ := filepath.Abs(CLI.Config)

		w, err := watch.New(s, watch.Config{
			SourceRoot:  sourceRoot,
			ConfigPath:  configPath,
			QuietWindow: cfg.DebounceWindow(),
		})
		if err != nil {
			s.Close()
			return err
		}
		w = w.WithLogger(logger)

		slog.Info("Watching for changes", "source", sourceRoot)
		err = w.Run(ctx)
		_ = w.Close()
		s.Close()

		if errors.Is(err, watch.ErrRestart) {
			slog.Info("Restarting build session")
			continue
		}
		return err
	}
}
