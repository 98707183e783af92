package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/emmihealth/planpipe/internal/analytics"
	"github.com/emmihealth/planpipe/internal/api"
	"github.com/emmihealth/planpipe/internal/genai"
	"github.com/emmihealth/planpipe/internal/generation"
	"github.com/emmihealth/planpipe/internal/lockfile"
	"github.com/emmihealth/planpipe/internal/messaging"
	"github.com/emmihealth/planpipe/internal/prompt"
	"github.com/emmihealth/planpipe/internal/scheduler"
	"github.com/emmihealth/planpipe/internal/store"
	"github.com/emmihealth/planpipe/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for planpipe state data
	DefaultStateDir = "/var/lib/planpipe"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "planpipe.db"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	lock, err := lockfile.AcquireLock(*flags.stateDir)
	if err != nil {
		slog.Error("Failed to acquire state lock, is another planpipe running?", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			slog.Error("Failed to release state lock", "error", err)
		}
	}()

	slog.Info("Bootstrapping planpipe with configured modules")
	if err := run(flags); err != nil {
		slog.Error("planpipe failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("planpipe exited successfully")
}

func run(flags Flags) error {
	st, err := openStore(flags)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Error("Failed to close store", "error", err)
		}
	}()

	var genaiOpts []genai.Option
	if *flags.openaiKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*flags.openaiKey))
	}
	model, err := genai.NewClient(genaiOpts...)
	if err != nil {
		return err
	}

	composer := prompt.NewComposer(composerOptions(flags)...)

	genOpts := []generation.Option{
		withOptionalMessaging(),
		withOptionalTracker(),
	}
	generator := generation.NewGenerator(st, composer, model, genOpts...)

	pool := generation.NewWorkerPool(*flags.workers, generation.DefaultQueueSize)
	defer pool.Stop()

	if *flags.sweeperEnabled {
		sched := scheduler.NewScheduler()
		defer sched.Stop()
		sweeper := scheduler.NewSweeper(st, scheduler.DefaultStaleAfter)
		if err := sweeper.Register(sched, *flags.sweepCron); err != nil {
			return err
		}
		slog.Info("Stale generation sweeper enabled", "schedule", *flags.sweepCron)
	} else {
		slog.Warn("Stale generation sweeper disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	server := api.NewServer(st, generator, pool, apiOpts...)
	return server.Run(ctx)
}

// openStore picks the backend from the DSN shape.
func openStore(flags Flags) (store.Store, error) {
	dsn := *flags.dbDSN
	if store.DetectDSNType(dsn) == "postgres" {
		slog.Debug("Using Postgres store", "dsn_set", dsn != "")
		return store.NewPostgresStore(store.WithPostgresDSN(dsn))
	}
	slog.Debug("Using SQLite store", "sqlite_path", dsn)
	return store.NewSQLiteStore(store.WithSQLiteDSN(dsn))
}

func composerOptions(flags Flags) []prompt.Option {
	var opts []prompt.Option
	if *flags.frontendBaseURL != "" {
		opts = append(opts, prompt.WithBaseURL(*flags.frontendBaseURL))
	}
	return opts
}

// withOptionalMessaging wires Twilio SMS when credentials are configured and
// falls back to the no-op service otherwise.
func withOptionalMessaging() generation.Option {
	svc, err := messaging.NewTwilioService()
	if err != nil {
		slog.Warn("Twilio not configured, plan notifications disabled", "error", err)
		return generation.WithMessaging(messaging.NopService{})
	}
	return generation.WithMessaging(svc)
}

// withOptionalTracker wires Mixpanel when a project token is configured and
// falls back to the no-op tracker otherwise.
func withOptionalTracker() generation.Option {
	tracker, err := analytics.NewMixpanel()
	if err != nil {
		slog.Warn("Mixpanel not configured, analytics disabled", "error", err)
		return generation.WithTracker(analytics.NopTracker{})
	}
	return generation.WithTracker(tracker)
}

// Config holds environment configuration
type Config struct {
	DatabaseURL     string
	StateDir        string
	OpenAIKey       string
	APIAddr         string
	FrontendBaseURL string
	SweepCron       string
}

// Flags holds command line flag values
type Flags struct {
	stateDir        *string
	dbDSN           *string
	openaiKey       *string
	apiAddr         *string
	frontendBaseURL *string
	sweepCron       *string
	workers         *int
	sweeperEnabled  *bool
}

// initializeLogger sets up structured logging with debug level
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		StateDir:        os.Getenv("PLANPIPE_STATE_DIR"),
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		APIAddr:         os.Getenv("API_ADDR"),
		FrontendBaseURL: os.Getenv("FRONTEND_BASE_URL"),
		SweepCron:       os.Getenv("SWEEP_SCHEDULE"),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No PLANPIPE_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	} else {
		slog.Debug("PLANPIPE_STATE_DIR found in environment", "state_dir", config.StateDir)
	}

	// If no database URL is provided, default to SQLite in the state directory
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"PLANPIPE_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"API_ADDR", config.APIAddr,
		"FRONTEND_BASE_URL", config.FrontendBaseURL,
		"SWEEP_SCHEDULE", config.SweepCron)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	if config.SweepCron == "" {
		config.SweepCron = scheduler.DefaultSweepSchedule
	}
	flags := Flags{
		stateDir:        flag.String("state-dir", config.StateDir, "state directory for planpipe data (overrides $PLANPIPE_STATE_DIR)"),
		dbDSN:           flag.String("db-dsn", config.DatabaseURL, "database DSN for the plan store (overrides $DATABASE_URL)"),
		openaiKey:       flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		apiAddr:         flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		frontendBaseURL: flag.String("frontend-base-url", config.FrontendBaseURL, "frontend base URL used in plan links (overrides $FRONTEND_BASE_URL)"),
		sweepCron:       flag.String("sweep-cron", config.SweepCron, "cron schedule for the stale generation sweeper (overrides $SWEEP_SCHEDULE)"),
		workers:         flag.Int("workers", generation.DefaultWorkers, "number of concurrent generation workers"),
		sweeperEnabled:  flag.Bool("sweeper", util.ParseBoolEnv("SWEEPER_ENABLED", true), "enable the stale generation sweeper (overrides $SWEEPER_ENABLED)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"openaiKeySet", *flags.openaiKey != "",
		"apiAddr", *flags.apiAddr,
		"frontendBaseURL", *flags.frontendBaseURL,
		"sweepCron", *flags.sweepCron,
		"workers", *flags.workers,
		"sweeperEnabled", *flags.sweeperEnabled)

	// Update database DSN if not explicitly set but state directory is provided
	if *flags.dbDSN == config.DatabaseURL && config.DatabaseURL == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "dsn_updated", true, "old_state_dir", config.StateDir, "new_state_dir", *flags.stateDir)
	}

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	if err := os.MkdirAll(*flags.stateDir, store.DefaultDirPermissions); err != nil {
		slog.Error("Failed to create state directory", "error", err, "state_dir", *flags.stateDir)
		return err
	}
	if store.DetectDSNType(*flags.dbDSN) == "sqlite" {
		dbDir := filepath.Dir(*flags.dbDSN)
		slog.Debug("Creating directory for file-based database", "db_dir", dbDir)
		if err := os.MkdirAll(dbDir, store.DefaultDirPermissions); err != nil {
			slog.Error("Failed to create database directory", "error", err, "db_dir", dbDir)
			return err
		}
	}
	return nil
}
