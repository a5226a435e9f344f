package appconf

import (
	"log/slog"
	"strings"
)

type Environment int

const (
	Development Environment = iota
	Test
	Production
)

func (e Environment) String() string {
	switch e {
	case Test:
		return "test"
	case Production:
		return "production"
	default:
		return "development"
	}
}

// EnvFlagToEnvironment maps the -env flag value to an Environment.
// Unknown values fall back to Development.
func EnvFlagToEnvironment(env string) Environment {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "test":
		return Test
	case "production", "prod":
		return Production
	default:
		return Development
	}
}

// Config holds the daemon settings read from flags and the environment.
type Config struct {
	Port         int
	Env          Environment
	ApiKeys      []string
	RateLimit    int // requests per second per API key
	BackendURL   string
	StorePath    string
	SettingsPath string
	Language     string
	LogLevel     slog.Level
}

// ParseLogLevel turns a flag value such as "debug" into a slog level.
func ParseLogLevel(raw string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return slog.LevelInfo
	}
	return level
}
