package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ScheduleEntry fires Agent every day at At (HH:MM, server local time).
type ScheduleEntry struct {
	At    string `yaml:"at"`
	Agent string `yaml:"agent"`
}

// Config holds application configuration. Values come from built-in defaults,
// then an optional YAML file, then environment variables.
type Config struct {
	Addr      string `yaml:"addr"`       // CRM_ADDR, default ":8080"
	DBDriver  string `yaml:"db_driver"`  // CRM_DB_DRIVER, "sqlite" or "postgres"
	DBPath    string `yaml:"db"`         // CRM_DB, default "crm.db"
	AuthToken string `yaml:"auth_token"` // CRM_AUTH_TOKEN, optional

	LogLevel  string `yaml:"log_level"`  // CRM_LOG_LEVEL, default "info"
	LogFormat string `yaml:"log_format"` // CRM_LOG_FORMAT, "json" or "console"

	OpenAIKey        string        `yaml:"openai_api_key"`      // OPENAI_API_KEY
	OpenAIModel      string        `yaml:"openai_model"`        // CRM_OPENAI_MODEL
	OpenAIBaseURL    string        `yaml:"openai_base_url"`     // CRM_OPENAI_BASE_URL
	LLMTimeout       time.Duration `yaml:"llm_timeout"`         // CRM_LLM_TIMEOUT
	LLMRatePerMinute int           `yaml:"llm_rate_per_minute"` // CRM_LLM_RATE_PER_MINUTE

	NATSURL string `yaml:"nats_url"` // CRM_NATS_URL, optional

	SchedulerEnabled bool            `yaml:"scheduler"`      // CRM_SCHEDULER
	AgentSchedule    []ScheduleEntry `yaml:"agent_schedule"` // CRM_AGENT_SCHEDULE
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Addr:             ":8080",
		DBDriver:         "sqlite",
		DBPath:           "crm.db",
		LogLevel:         "info",
		LogFormat:        "json",
		OpenAIModel:      "gpt-4o-mini",
		LLMTimeout:       30 * time.Second,
		LLMRatePerMinute: 20,
		AgentSchedule: []ScheduleEntry{
			{At: "08:00", Agent: "daily_briefing"},
			{At: "17:00", Agent: "insight"},
		},
	}
}

// Load reads configuration. If path is empty, CRM_CONFIG is consulted; a
// missing path means no file is read.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path == "" {
		path = os.Getenv("CRM_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	switch cfg.DBDriver {
	case "sqlite", "postgres":
	default:
		return Config{}, fmt.Errorf("unsupported db driver %q", cfg.DBDriver)
	}
	for _, e := range cfg.AgentSchedule {
		if _, _, err := ParseClock(e.At); err != nil {
			return Config{}, fmt.Errorf("agent schedule: %w", err)
		}
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.Addr = envOr("CRM_ADDR", cfg.Addr)
	cfg.DBDriver = envOr("CRM_DB_DRIVER", cfg.DBDriver)
	cfg.DBPath = envOr("CRM_DB", cfg.DBPath)
	cfg.AuthToken = envOr("CRM_AUTH_TOKEN", cfg.AuthToken)
	cfg.LogLevel = envOr("CRM_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envOr("CRM_LOG_FORMAT", cfg.LogFormat)
	cfg.OpenAIKey = envOr("OPENAI_API_KEY", cfg.OpenAIKey)
	cfg.OpenAIModel = envOr("CRM_OPENAI_MODEL", cfg.OpenAIModel)
	cfg.OpenAIBaseURL = envOr("CRM_OPENAI_BASE_URL", cfg.OpenAIBaseURL)
	cfg.NATSURL = envOr("CRM_NATS_URL", cfg.NATSURL)

	if v := os.Getenv("CRM_LLM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CRM_LLM_TIMEOUT: %w", err)
		}
		cfg.LLMTimeout = d
	}
	if v := os.Getenv("CRM_LLM_RATE_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CRM_LLM_RATE_PER_MINUTE: %w", err)
		}
		cfg.LLMRatePerMinute = n
	}
	if v := os.Getenv("CRM_SCHEDULER"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CRM_SCHEDULER: %w", err)
		}
		cfg.SchedulerEnabled = b
	}
	if v := os.Getenv("CRM_AGENT_SCHEDULE"); v != "" {
		entries, err := ParseSchedule(v)
		if err != nil {
			return fmt.Errorf("CRM_AGENT_SCHEDULE: %w", err)
		}
		cfg.AgentSchedule = entries
	}
	return nil
}

// ParseSchedule parses "HH:MM=agent;HH:MM=agent".
func ParseSchedule(s string) ([]ScheduleEntry, error) {
	var entries []ScheduleEntry
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		at, agent, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(agent) == "" {
			return nil, fmt.Errorf("invalid entry %q, want HH:MM=agent", part)
		}
		at = strings.TrimSpace(at)
		if _, _, err := ParseClock(at); err != nil {
			return nil, err
		}
		entries = append(entries, ScheduleEntry{At: at, Agent: strings.TrimSpace(agent)})
	}
	return entries, nil
}

// ParseClock parses a 24h "HH:MM" time of day.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q", s)
	}
	return t.Hour(), t.Minute(), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
