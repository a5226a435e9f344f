package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"railway.tracker.org/internal/app"
	"railway.tracker.org/internal/appconf"
	"railway.tracker.org/internal/backend"
	"railway.tracker.org/internal/logging"
	"railway.tracker.org/internal/notify"
	"railway.tracker.org/internal/restapi"
	"railway.tracker.org/internal/settings"
	"railway.tracker.org/internal/store"
	"railway.tracker.org/internal/tracker"
)

func main() {
	// a missing .env file is fine, the environment and flags still apply
	_ = godotenv.Load()

	cfg, err := parseConfig(os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := logging.NewStructuredLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logging.LogError(logger, "server stopped", err)
		os.Exit(1)
	}
}

// parseConfig reads flags, falling back to RAILWAY_* environment variables
// for anything not given on the command line.
func parseConfig(args []string, getenv func(string) string) (appconf.Config, error) {
	env := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}
	envInt := func(key string, def int) int {
		if v, err := strconv.Atoi(getenv(key)); err == nil {
			return v
		}
		return def
	}

	var cfg appconf.Config
	var envFlag, apiKeysFlag, logLevelFlag string

	fs := flag.NewFlagSet("api", flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "port", envInt("RAILWAY_PORT", 4000), "API server port")
	fs.StringVar(&envFlag, "env", env("RAILWAY_ENV", "development"), "Environment (development|test|production)")
	fs.StringVar(&apiKeysFlag, "api-keys", env("RAILWAY_API_KEYS", "test"), "Comma Separated API Keys (test, etc)")
	fs.IntVar(&cfg.RateLimit, "rate-limit", envInt("RAILWAY_RATE_LIMIT", 100), "Requests per second per API key, 0 disables limiting")
	fs.StringVar(&cfg.BackendURL, "backend-url", env("RAILWAY_BACKEND_URL", backend.DefaultBaseURL), "Base URL of the journey planner")
	fs.StringVar(&cfg.StorePath, "store-path", env("RAILWAY_STORE_PATH", "bookmarks.json"), "File bookmarks are kept in")
	fs.StringVar(&cfg.SettingsPath, "settings-path", env("RAILWAY_SETTINGS_PATH", "settings.db"), "SQLite database for user settings")
	fs.StringVar(&cfg.Language, "language", env("RAILWAY_LANGUAGE", ""), "Default language of journey data")
	fs.StringVar(&logLevelFlag, "log-level", env("RAILWAY_LOG_LEVEL", "info"), "Log level (debug|info|warn|error)")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	cfg.Env = appconf.EnvFlagToEnvironment(envFlag)
	cfg.LogLevel = appconf.ParseLogLevel(logLevelFlag)
	for _, key := range strings.Split(apiKeysFlag, ",") {
		if key = strings.TrimSpace(key); key != "" {
			cfg.ApiKeys = append(cfg.ApiKeys, key)
		}
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return cfg, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if len(cfg.ApiKeys) == 0 {
		return cfg, errors.New("at least one API key is required")
	}
	return cfg, nil
}

func run(cfg appconf.Config, logger *slog.Logger) error {
	client, err := backend.NewHTTPClient(backend.Config{
		BaseURL:       cfg.BackendURL,
		RatePerSecond: backend.DefaultRatePerSec,
	}, nil, logger)
	if err != nil {
		return err
	}

	bookmarks, err := store.Open(cfg.StorePath, logger)
	if err != nil {
		return err
	}

	prefs, err := settings.Open(settings.Config{
		Path:     cfg.SettingsPath,
		Env:      cfg.Env,
		Language: cfg.Language,
	}, logger)
	if err != nil {
		return err
	}
	defer logging.SafeCloseWithLogging(prefs, logger, "settings_database")

	recorder := notify.NewRecorder(100)
	manager, err := tracker.InitManager(tracker.Config{}, tracker.Deps{
		Backend:  backend.WithTimeout(client, backend.Config{}),
		Store:    bookmarks,
		Settings: prefs,
		Sink:     notify.Multi{notify.LogSink{Logger: logger}, recorder},
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer manager.Shutdown()

	application := &app.Application{
		Config:        cfg,
		Logger:        logger,
		Tracker:       manager,
		Settings:      prefs,
		Notifications: recorder,
	}
	api := restapi.NewRestAPI(application)
	defer api.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      routes(application, api),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: backend.DefaultTimeout + 10*time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "env", cfg.Env.String())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.LogOperation(logger, "server_shutdown_started")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
