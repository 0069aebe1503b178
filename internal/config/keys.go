package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kBool
	kDuration
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "MOCKTALK_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.allowed_origins", typ: kString, env: "MOCKTALK_SERVER_ALLOWED_ORIGINS",
		apply:   func(cfg *Config, v any) { cfg.Server.AllowedOrigins = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.AllowedOrigins },
	},
	{
		key: "gemini.backend", typ: kString, env: "MOCKTALK_GEMINI_BACKEND",
		apply:   func(cfg *Config, v any) { cfg.Gemini.Backend = v.(string) },
		extract: func(cfg Config) any { return cfg.Gemini.Backend },
	},
	{
		key: "gemini.base_url", typ: kString, env: "MOCKTALK_GEMINI_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Gemini.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Gemini.BaseURL },
	},
	{
		key: "gemini.model", typ: kString, env: "MOCKTALK_GEMINI_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Gemini.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Gemini.Model },
	},
	{
		key: "gemini.timeout", typ: kDuration, env: "MOCKTALK_GEMINI_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Gemini.Timeout = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Gemini.Timeout },
	},
	{
		key: "gemini.api_key", typ: kString, env: "MOCKTALK_GEMINI_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Gemini.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Gemini.APIKey },
	},
	{
		key: "speech.enabled", typ: kBool, env: "MOCKTALK_SPEECH_ENABLED",
		apply:   func(cfg *Config, v any) { cfg.Speech.Enabled = v.(bool) },
		extract: func(cfg Config) any { return cfg.Speech.Enabled },
	},
	{
		key: "speech.base_url", typ: kString, env: "MOCKTALK_SPEECH_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Speech.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Speech.BaseURL },
	},
	{
		key: "speech.lang", typ: kString, env: "MOCKTALK_SPEECH_LANG",
		apply:   func(cfg *Config, v any) { cfg.Speech.Lang = v.(string) },
		extract: func(cfg Config) any { return cfg.Speech.Lang },
	},
	{
		key: "history.backend", typ: kString, env: "MOCKTALK_HISTORY_BACKEND",
		apply:   func(cfg *Config, v any) { cfg.History.Backend = v.(string) },
		extract: func(cfg Config) any { return cfg.History.Backend },
	},
	{
		key: "history.path", typ: kString, env: "MOCKTALK_HISTORY_PATH",
		apply:   func(cfg *Config, v any) { cfg.History.Path = v.(string) },
		extract: func(cfg Config) any { return cfg.History.Path },
	},
	{
		key: "sessions.backend", typ: kString, env: "MOCKTALK_SESSIONS_BACKEND",
		apply:   func(cfg *Config, v any) { cfg.Sessions.Backend = v.(string) },
		extract: func(cfg Config) any { return cfg.Sessions.Backend },
	},
	{
		key: "sessions.redis_addr", typ: kString, env: "MOCKTALK_SESSIONS_REDIS_ADDR",
		apply:   func(cfg *Config, v any) { cfg.Sessions.RedisAddr = v.(string) },
		extract: func(cfg Config) any { return cfg.Sessions.RedisAddr },
	},
	{
		key: "sessions.ttl", typ: kDuration, env: "MOCKTALK_SESSIONS_TTL",
		apply:   func(cfg *Config, v any) { cfg.Sessions.TTL = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Sessions.TTL },
	},
	{
		key: "log.level", typ: kString, env: "MOCKTALK_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: "log.format", typ: kString, env: "MOCKTALK_LOG_FORMAT",
		apply:   func(cfg *Config, v any) { cfg.Log.Format = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Format },
	},
}

// parse converts a raw string for s. Bools and durations are always
// stored as strings.
func (s keySpec) parse(raw string) (any, error) {
	switch s.typ {
	case kInt:
		return strconv.Atoi(raw)
	case kBool:
		return strconv.ParseBool(raw)
	case kDuration:
		return time.ParseDuration(raw)
	default:
		return raw, nil
	}
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		default:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if !ok || v == "" {
				continue
			}
			parsed, err := s.parse(v)
			if err != nil {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse config key %s=%q: %v. Using default value.\n", s.key, v, err)
				continue
			}
			s.apply(cfg, parsed)
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		v, err := s.parse(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] could not parse env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			continue
		}
		s.apply(cfg, v)
	}
}
