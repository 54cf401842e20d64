package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/spawndirector/internal/config"
	"github.com/udisondev/spawndirector/internal/data"
	"github.com/udisondev/spawndirector/internal/db"
	"github.com/udisondev/spawndirector/internal/director"
	"github.com/udisondev/spawndirector/internal/spawn"
	"github.com/udisondev/spawndirector/internal/world"
)

const ConfigPath = "config/spawndirector.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

// reloader is implemented by profile sources backed by a file.
type reloader interface {
	Reload() error
}

func run(ctx context.Context) error {
	cfgPath := config.Path(ConfigPath)
	cfg, err := config.LoadDirector(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))

	slog.Info("spawn director starting",
		"config", cfgPath,
		"log_level", cfg.LogLevel,
		"profile_source", cfg.ProfileSource)

	var repo spawn.ConfigRepository
	switch cfg.ProfileSource {
	case config.SourceFile:
		fileRepo, err := data.LoadFile(cfg.ProfilesFile)
		if err != nil {
			return fmt.Errorf("loading spawn catalog: %w", err)
		}
		repo = fileRepo
	default:
		if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database migrations applied")

		database, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()
		slog.Info("database connected")

		repo = db.NewSpawnConfigRepository(database.Pool())
	}

	capPolicy, err := director.ParseCapPolicy(cfg.CapPolicy)
	if err != nil {
		return fmt.Errorf("cap_policy: %w", err)
	}
	loc, err := cfg.World.Location()
	if err != nil {
		return err
	}

	opts := director.DefaultOptions()
	opts.CapPolicy = capPolicy
	opts.PrefixOnEmptyHit = cfg.Mutations.PrefixOnEmptyHit
	opts.Seed = cfg.Seed
	opts.SubmitTimeout = cfg.SubmitTimeout
	opts.InboxSize = cfg.WorkerInboxSize
	opts.MaxRestarts = cfg.MaxWorkerRestarts
	if opts.MaxRestarts == 0 {
		opts.MaxRestarts = -1 // в конфиге 0 означает "не перезапускать"
	}

	w := world.New()
	w.SetPopulation(cfg.World.Population)
	bands := world.Bands{Low: cfg.World.BandLow, Medium: cfg.World.BandMedium, High: cfg.World.BandHigh}

	d := director.New(
		repo,
		world.NewSpawner(w, opts.Clock),
		world.NewContextProvider(w, opts.Clock, bands, loc),
		opts,
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := d.Start(gctx); err != nil {
			return fmt.Errorf("spawn director: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		slog.Info("starting scheduling loop", "interval", cfg.TickInterval)
		return runTicks(gctx, d, w, cfg.TickInterval)
	})

	if cfg.ReloadInterval > 0 {
		g.Go(func() error {
			slog.Info("starting reload loop", "interval", cfg.ReloadInterval)
			return runReloads(gctx, d, repo, cfg.ReloadInterval)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("director error: %w", err)
	}
	return nil
}

// runTicks offers a scheduling opportunity to every area each interval.
func runTicks(ctx context.Context, d *director.Director, w *world.World, interval time.Duration) error {
	select {
	case <-d.Ready():
	case <-ctx.Done():
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			results, err := d.Tick(ctx)
			if err != nil {
				return nil
			}
			spawned := 0
			for _, r := range results {
				if r.Spawned() {
					spawned++
				}
			}
			slog.Debug("scheduling tick",
				"areas", len(results),
				"waves", spawned,
				"creatures", w.CreatureCount())
		}
	}
}

// runReloads periodically re-reads the profile source and pushes it to the director.
func runReloads(ctx context.Context, d *director.Director, repo spawn.ConfigRepository, interval time.Duration) error {
	select {
	case <-d.Ready():
	case <-ctx.Done():
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if r, ok := repo.(reloader); ok {
				if err := r.Reload(); err != nil {
					slog.Warn("spawn catalog reload failed, keeping previous", "error", err)
					continue
				}
			}
			if err := d.ReloadAll(ctx); err != nil {
				slog.Warn("profile reload incomplete", "error", err)
			}
		}
	}
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
