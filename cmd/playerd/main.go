// Package main provides the player daemon entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/CoderFake/playerd/internal/api"
	"github.com/CoderFake/playerd/internal/app/audio"
	"github.com/CoderFake/playerd/internal/app/player"
	"github.com/CoderFake/playerd/internal/app/telemetry"
	"github.com/CoderFake/playerd/internal/infra/catalog"
	"github.com/CoderFake/playerd/internal/infra/config"
	"github.com/CoderFake/playerd/internal/infra/logger"
	"github.com/CoderFake/playerd/internal/infra/prefstore"
)

var (
	app        = kingpin.New("playerd", "Playback session engine")
	configPath = app.Flag("config", "Path to config file").Default("config/playerd.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	// list-tracks command
	listTracksCmd = app.Command("list-tracks", "List catalog tracks and exit")
)

func init() {
	// start command (default)
	app.Command("start", "Start the player (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{Level: "info"}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.File = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if command == listTracksCmd.FullCommand() {
		printTracks(cfg)
		return
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Player error: %v", err)
		os.Exit(1)
	}
}

// run executes the main daemon logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	engine := audio.NewClockEngine(audio.ClockConfig{
		TickInterval:  time.Duration(cfg.Audio.TickIntervalMs) * time.Millisecond,
		BlockAutoplay: cfg.Audio.AutoplayPolicy == "block",
	})
	adapter := audio.NewAdapter(engine)

	store, closeStore, err := newPrefStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to create preference store: %w", err)
	}
	defer closeStore()

	reporter, err := newReporter(cfg)
	if err != nil {
		return fmt.Errorf("failed to create telemetry reporter: %w", err)
	}
	emitter := telemetry.New(reporter, telemetry.Config{
		Device: cfg.Session.DeviceClass,
		Buffer: cfg.Telemetry.Buffer,
	})
	defer emitter.Close()

	session := player.New(adapter, store, emitter)
	provider := catalog.NewStaticProvider(cfg.CatalogTracks())
	srv := api.NewServer(session, provider)

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Router(),
	}

	serverErrCh := make(chan error, 1)
	go func() {
		zlog.Info().Msgf("Starting server: addr=%s tracks=%d", cfg.Server.Addr, len(cfg.Tracks))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Close the session first so its event channel terminates and the API
	// server can flush subscribers.
	session.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown event forwarding: %v", err)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Player stopped")
	return nil
}

// newPrefStore creates the configured preference store and a cleanup func.
func newPrefStore(cfg *config.Config) (prefstore.Store, func(), error) {
	switch cfg.Prefs.Backend {
	case "redis":
		store, err := prefstore.NewRedisStore(prefstore.RedisConfig{
			Addr:     cfg.Prefs.Redis.Addr,
			Password: cfg.Prefs.Redis.Password,
			DB:       cfg.Prefs.Redis.DB,
			Key:      cfg.Prefs.Redis.Key,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return prefstore.NewFileStore(cfg.Prefs.Path), func() {}, nil
	}
}

// newReporter creates the play-event reporter. An empty endpoint disables
// reporting.
func newReporter(cfg *config.Config) (telemetry.Reporter, error) {
	if cfg.Telemetry.Endpoint == "" {
		zlog.Info().Msg("Telemetry endpoint not configured, play events will be dropped")
		return &telemetry.NopReporter{}, nil
	}
	return telemetry.NewHTTPReporter(telemetry.HTTPConfig{
		Endpoint: cfg.Telemetry.Endpoint,
		Timeout:  time.Duration(cfg.Telemetry.TimeoutMs) * time.Millisecond,
	})
}

// printTracks prints the configured catalog.
func printTracks(cfg *config.Config) {
	fmt.Println("Catalog Tracks:")
	for _, t := range cfg.CatalogTracks() {
		marker := " "
		if !t.Playable() {
			marker = "!"
		}
		fmt.Printf("  %s %-20s %s - %s (%.0fs)\n", marker, t.ID, t.Artist, t.Title, t.DurationSec)
	}
}
