// Package config loads mocktalk settings from defaults, a YAML file, .env
// and environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Gemini   GeminiConfig
	Speech   SpeechConfig
	History  HistoryConfig
	Sessions SessionsConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port           int
	AllowedOrigins string
}

// Origins splits AllowedOrigins on commas.
func (s ServerConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(s.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

type GeminiConfig struct {
	Backend string
	BaseURL string
	Model   string
	Timeout time.Duration
	APIKey  string
}

type SpeechConfig struct {
	Enabled bool
	BaseURL string
	Lang    string
}

type HistoryConfig struct {
	Backend string
	Path    string
}

type SessionsConfig struct {
	Backend   string
	RedisAddr string
	TTL       time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

const (
	defaultHistoryFile = "interview_history.json"
	sqliteHistoryFile  = "history.db"
)

func defaults() Config {
	dataDir := defaultDataDir()
	return Config{
		Server: ServerConfig{
			Port:           8501,
			AllowedOrigins: "http://localhost:8501",
		},
		Gemini: GeminiConfig{
			Backend: "rest",
			BaseURL: "https://generativelanguage.googleapis.com",
			Model:   "gemini-2.5-flash",
			Timeout: 60 * time.Second,
		},
		Speech: SpeechConfig{
			Enabled: true,
			BaseURL: "https://translate.google.com",
			Lang:    "en",
		},
		History: HistoryConfig{
			Backend: "json",
			Path:    filepath.Join(dataDir, defaultHistoryFile),
		},
		Sessions: SessionsConfig{
			Backend:   "memory",
			RedisAddr: "localhost:6379",
			TTL:       2 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Error reports a configuration problem that stops the program before it
// serves any traffic.
type Error struct {
	Key string
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %s", e.Key, e.Msg)
}

// Load reads configuration from the YAML file at
// $XDG_CONFIG_HOME/mocktalk/config.yaml, a .env file in the working
// directory, environment variables (MOCKTALK_*) and the secrets file.
// Variables already present in the environment win over .env entries.
//
// The Gemini API key is not required here; callers that talk to the
// generator check it with RequireAPIKey.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "[WARN] could not read .env: %v\n", err)
	}
	return loadWith(newPlatformBackend(), secretsFile{path: secretsFilePath()})
}

// secretStore abstracts the secrets file for testing.
type secretStore interface {
	Get(service, account string) (string, error)
}

func loadWith(b ConfigBackend, secrets secretStore) (Config, error) {
	cfg := defaults()
	defaultHistory := cfg.History.Path

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if cfg.Gemini.APIKey == "" {
		cfg.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.Gemini.APIKey == "" {
		if key, err := secrets.Get("mocktalk", "gemini_api_key"); err == nil && key != "" {
			cfg.Gemini.APIKey = key
		}
	}

	if cfg.History.Backend == "sqlite" && cfg.History.Path == defaultHistory {
		cfg.History.Path = filepath.Join(filepath.Dir(defaultHistory), sqliteHistoryFile)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the enumerated settings.
func (c Config) Validate() error {
	checks := []struct {
		key     string
		val     string
		allowed []string
	}{
		{"gemini.backend", c.Gemini.Backend, []string{"rest", "sdk"}},
		{"history.backend", c.History.Backend, []string{"json", "sqlite"}},
		{"sessions.backend", c.Sessions.Backend, []string{"memory", "redis"}},
		{"log.format", c.Log.Format, []string{"console", "json"}},
	}
	for _, ch := range checks {
		ok := false
		for _, a := range ch.allowed {
			if ch.val == a {
				ok = true
			}
		}
		if !ok {
			return &Error{Key: ch.key, Msg: fmt.Sprintf("unsupported value %q (want one of %s)", ch.val, strings.Join(ch.allowed, ", "))}
		}
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return &Error{Key: "server.port", Msg: fmt.Sprintf("port %d out of range", c.Server.Port)}
	}
	return nil
}

// RequireAPIKey fails when no Gemini API key was found anywhere.
func (c Config) RequireAPIKey() error {
	if c.Gemini.APIKey != "" {
		return nil
	}
	return &Error{
		Key: "gemini.api_key",
		Msg: "missing Gemini API key. Set MOCKTALK_GEMINI_API_KEY or GEMINI_API_KEY, " +
			"or add it to " + secretsFilePath() + ` as {"mocktalk": {"gemini_api_key": "..."}}`,
	}
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "mocktalk-data"
		}
	}
	return filepath.Join(dir, "mocktalk")
}
