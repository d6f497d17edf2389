// puffd: puff detection service for VapeFi
// Scores landmark frames streamed by the browser and records every detection
// with the rewards backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/vapefi/puffd/internal/config"
	"github.com/vapefi/puffd/internal/httpc"
	"github.com/vapefi/puffd/internal/log"
	"github.com/vapefi/puffd/pkg/debug"
	"github.com/vapefi/puffd/pkg/gateway"
	"github.com/vapefi/puffd/pkg/rewards"
	"github.com/vapefi/puffd/pkg/tracking"
	"github.com/vapefi/puffd/pkg/tracking/detection"
	"github.com/vapefi/puffd/pkg/web"
)

var version = "dev"

func main() {
	cfg := config.Default()
	cfg.LoadEnv()

	flag.StringVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	flag.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable request logging and per-frame traces")
	flag.StringVar(&cfg.StaticDir, "static", cfg.StaticDir, "Directory served at / (empty to disable)")
	flag.IntVar(&cfg.MaxSessions, "max-sessions", cfg.MaxSessions, "Maximum concurrent tracking sessions")
	flag.StringVar(&cfg.Preset, "preset", cfg.Preset, "Tracking preset ("+strings.Join(tracking.PresetNames(), ", ")+")")
	flag.StringVar(&cfg.ThresholdsFile, "thresholds", cfg.ThresholdsFile, "YAML tracking config overlaid on the defaults")
	flag.IntVar(&cfg.QueueSize, "queue", cfg.QueueSize, "Rewards queue size")
	flag.Parse()

	log.Init(cfg.LogLevel)
	debug.SetEnabled(cfg.Debug)
	debug.SetTracking(cfg.Debug)
	if debug.Enabled() {
		log.Info("debug mode enabled", "tracking", debug.Tracking())
	}

	if err := run(cfg); err != nil {
		log.Error("puffd failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	if err := cfg.Load(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	sink, err := newSink(cfg)
	if err != nil {
		return err
	}
	dispatcher := rewards.NewDispatcher(sink, cfg.QueueSize)
	defer func() {
		if err := dispatcher.Close(); err != nil {
			log.Warn("rewards drain", "error", err)
		}
	}()

	srv := web.NewServer(web.Options{
		Port:      cfg.Port,
		StaticDir: cfg.StaticDir,
		Version:   version,
		Debug:     cfg.Debug,
		Tracking:  cfg.Tracking,
		Queue:     dispatcher,
	})
	srv.Mount(gateway.New(gateway.Config{
		Tracking:     cfg.Tracking,
		MaxSessions:  cfg.MaxSessions,
		StreamBuffer: detection.DefaultStreamBuffer,
	}, dispatcher, srv))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("puffd starting",
		"version", version,
		"preset", cfg.Preset,
		"port", cfg.Port,
		"detect_threshold", cfg.Tracking.Thresholds.Detect,
		"cooldown", cfg.Tracking.Cooldown,
		"sink", sinkName(cfg))

	if err := srv.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("puffd stopped")
	return nil
}

// newSink records to Supabase when configured, in memory otherwise.
func newSink(cfg config.Config) (rewards.Sink, error) {
	if cfg.SupabaseURL == "" {
		log.Warn("SUPABASE_URL not set, puffs are counted in memory only")
		return rewards.NewMemorySink(), nil
	}
	return rewards.NewSupabaseSink(rewards.SupabaseConfig{
		URL:        cfg.SupabaseURL,
		Key:        cfg.SupabaseKey,
		Table:      cfg.PuffsTable,
		HTTPClient: httpc.Client,
	})
}

func sinkName(cfg config.Config) string {
	if cfg.SupabaseURL == "" {
		return "memory"
	}
	return "supabase"
}
