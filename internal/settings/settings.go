// Package settings keeps user preferences in a small SQLite key/value table.
package settings

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
	"railway.tracker.org/internal/appconf"
	"railway.tracker.org/internal/logging"
)

const (
	KeyLanguage       = "language"
	KeyDeleteOld      = "delete_old"
	KeyDeleteOldAfter = "delete_old_after"
)

var (
	ErrUnknownKey   = errors.New("unknown setting")
	ErrInvalidValue = errors.New("invalid setting value")
)

type definition struct {
	def      string
	validate func(string) error
}

var definitions = map[string]definition{
	KeyLanguage: {def: "en", validate: validateLanguage},
	KeyDeleteOld: {def: "false", validate: func(v string) error {
		_, err := strconv.ParseBool(v)
		return err
	}},
	KeyDeleteOldAfter: {def: "24h", validate: func(v string) error {
		d, err := time.ParseDuration(v)
		if err == nil && d <= 0 {
			err = fmt.Errorf("duration must be positive")
		}
		return err
	}},
}

func validateLanguage(v string) error {
	if len(v) < 2 || len(v) > 3 {
		return fmt.Errorf("invalid language code %q", v)
	}
	return nil
}

type Config struct {
	Path string
	Env  appconf.Environment
	// Language overrides the default of the language setting.
	Language string
}

type Settings struct {
	db       *sqlx.DB
	logger   *slog.Logger
	defaults map[string]string
}

type row struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

// Open connects to the settings database and creates its table.
func Open(config Config, logger *slog.Logger) (*Settings, error) {
	if config.Env == appconf.Test && config.Path != ":memory:" {
		return nil, fmt.Errorf("settings database must be in memory for tests, got %q", config.Path)
	}
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sqlx.Open("sqlite", config.Path)
	if err != nil {
		return nil, fmt.Errorf("error opening settings database: %w", err)
	}
	// an in-memory database exists per connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error creating settings table: %w", err)
	}

	defaults := map[string]string{}
	for key, d := range definitions {
		defaults[key] = d.def
	}
	if config.Language != "" {
		if err := validateLanguage(config.Language); err != nil {
			_ = db.Close()
			return nil, err
		}
		defaults[KeyLanguage] = config.Language
	}

	return &Settings{
		db:       db,
		logger:   logging.Component(logger, "settings"),
		defaults: defaults,
	}, nil
}

func (s *Settings) Close() error {
	return s.db.Close()
}

// Get returns the stored value of key or its default.
func (s *Settings) Get(key string) (string, error) {
	def, ok := s.defaults[key]
	if !ok {
		return "", unknownKey(key)
	}

	var value string
	err := s.db.Get(&value, "SELECT value FROM settings WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return def, nil
	}
	if err != nil {
		return "", fmt.Errorf("error reading setting %s: %w", key, err)
	}
	return value, nil
}

// Set validates and stores value.
func (s *Settings) Set(key, value string) error {
	d, ok := definitions[key]
	if !ok {
		return unknownKey(key)
	}
	if err := d.validate(value); err != nil {
		return fmt.Errorf("%w for %s: %v", ErrInvalidValue, key, err)
	}

	_, err := s.db.Exec(`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("error writing setting %s: %w", key, err)
	}

	logging.LogOperation(s.logger, "setting_changed", slog.String("key", key), slog.String("value", value))
	return nil
}

// All returns every setting with defaults filled in.
func (s *Settings) All() (map[string]string, error) {
	rows := []row{}
	if err := s.db.Select(&rows, "SELECT key, value FROM settings"); err != nil {
		return nil, fmt.Errorf("error reading settings: %w", err)
	}

	out := make(map[string]string, len(s.defaults))
	for key, def := range s.defaults {
		out[key] = def
	}
	for _, r := range rows {
		if _, known := s.defaults[r.Key]; known {
			out[r.Key] = r.Value
		}
	}
	return out, nil
}

func unknownKey(key string) error {
	return fmt.Errorf("%w %q, expected one of: %s", ErrUnknownKey, key, strings.Join(Keys(), ", "))
}

// Keys lists the known setting names.
func Keys() []string {
	keys := make([]string, 0, len(definitions))
	for key := range definitions {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Language is the language journey data is requested in. Read errors fall
// back to the default.
func (s *Settings) Language() string {
	value, err := s.Get(KeyLanguage)
	if err != nil {
		logging.LogError(s.logger, "failed to read language setting", err)
		return s.defaults[KeyLanguage]
	}
	return value
}

// DeleteOld reports whether past bookmarks are removed automatically.
func (s *Settings) DeleteOld() bool {
	value, err := s.Get(KeyDeleteOld)
	if err != nil {
		logging.LogError(s.logger, "failed to read delete_old setting", err)
		return false
	}
	on, _ := strconv.ParseBool(value)
	return on
}

// DeleteOldAfter is how long after arrival a bookmark is kept.
func (s *Settings) DeleteOldAfter() time.Duration {
	value, err := s.Get(KeyDeleteOldAfter)
	if err == nil {
		if d, perr := time.ParseDuration(value); perr == nil {
			return d
		}
	}
	d, _ := time.ParseDuration(definitions[KeyDeleteOldAfter].def)
	return d
}
