/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/friendsincode/matchday/internal/priority"
	"github.com/friendsincode/matchday/internal/scheduling"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment   string
	HTTPBind      string
	HTTPPort      int
	DBBackend     DatabaseBackend
	DBDSN         string
	JWTSigningKey string // Empty disables API authentication
	MetricsBind   string

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64

	// Event fan-out: memory, redis or nats
	EventBus      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	NATSURL       string
	NATSToken     string
	InstanceID    string

	// Outbound webhooks for scheduling events
	WebhookURLs   []string
	WebhookSecret string
	WebhookEvents []string

	// Logging
	LogFile      string
	LogMaxSizeMB int

	// Timezone names the zone in which "today" is read. Location is its parsed form.
	Timezone string
	Location *time.Location

	// Scheduling engine
	ActivityOrder      priority.Direction
	MatchOrder         priority.Direction
	LeadDays           int
	HorizonDays        int
	MinGapDays         int
	NormalDayLimit     int
	DesignatedDayLimit int
	DesignatedDaysRule string         // MATCHDAY_DESIGNATED_DAYS (RRULE or weekday list)
	DesignatedDays     []time.Weekday // parsed from DesignatedDaysRule
	MaxBatchSize       int            // calendar batches; 0 disables the bound
	MaxActivityBatch   int            // duration batches; 0 disables the bound
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:   getEnvAny([]string{"MATCHDAY_ENV"}, "development"),
		HTTPBind:      getEnvAny([]string{"MATCHDAY_HTTP_BIND"}, "0.0.0.0"),
		HTTPPort:      getEnvIntAny([]string{"MATCHDAY_HTTP_PORT"}, 8080),
		DBBackend:     DatabaseBackend(getEnvAny([]string{"MATCHDAY_DB_BACKEND"}, string(DatabaseSQLite))),
		DBDSN:         getEnvAny([]string{"MATCHDAY_DB_DSN"}, "matchday.db"),
		JWTSigningKey: getEnvAny([]string{"MATCHDAY_JWT_SIGNING_KEY"}, ""),
		MetricsBind:   getEnvAny([]string{"MATCHDAY_METRICS_BIND"}, "127.0.0.1:9000"),

		TracingEnabled:    getEnvBoolAny([]string{"MATCHDAY_TRACING_ENABLED"}, false),
		OTLPEndpoint:      getEnvAny([]string{"MATCHDAY_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT"}, "localhost:4317"),
		TracingSampleRate: getEnvFloatAny([]string{"MATCHDAY_TRACING_SAMPLE_RATE"}, 1.0),

		EventBus:      strings.ToLower(getEnvAny([]string{"MATCHDAY_EVENT_BUS"}, "memory")),
		RedisAddr:     getEnvAny([]string{"MATCHDAY_REDIS_ADDR", "REDIS_ADDR"}, "localhost:6379"),
		RedisPassword: getEnvAny([]string{"MATCHDAY_REDIS_PASSWORD", "REDIS_PASSWORD"}, ""),
		RedisDB:       getEnvIntAny([]string{"MATCHDAY_REDIS_DB", "REDIS_DB"}, 0),
		NATSURL:       getEnvAny([]string{"MATCHDAY_NATS_URL", "NATS_URL"}, "nats://127.0.0.1:4222"),
		NATSToken:     getEnvAny([]string{"MATCHDAY_NATS_TOKEN", "NATS_TOKEN"}, ""),
		InstanceID:    getEnvAny([]string{"MATCHDAY_INSTANCE_ID"}, ""),

		WebhookURLs:   splitList(getEnvAny([]string{"MATCHDAY_WEBHOOK_URLS"}, "")),
		WebhookSecret: getEnvAny([]string{"MATCHDAY_WEBHOOK_SECRET"}, ""),
		WebhookEvents: splitList(getEnvAny([]string{"MATCHDAY_WEBHOOK_EVENTS"}, "")),

		LogFile:      getEnvAny([]string{"MATCHDAY_LOG_FILE"}, ""),
		LogMaxSizeMB: getEnvIntAny([]string{"MATCHDAY_LOG_MAX_SIZE_MB"}, 100),

		Timezone: getEnvAny([]string{"MATCHDAY_TIMEZONE"}, "UTC"),

		LeadDays:           getEnvIntAny([]string{"MATCHDAY_LEAD_DAYS"}, scheduling.DefaultLeadDays),
		HorizonDays:        getEnvIntAny([]string{"MATCHDAY_HORIZON_DAYS"}, scheduling.DefaultHorizonDays),
		MinGapDays:         getEnvIntAny([]string{"MATCHDAY_MIN_GAP_DAYS"}, scheduling.DefaultMinGapDays),
		NormalDayLimit:     getEnvIntAny([]string{"MATCHDAY_NORMAL_DAY_LIMIT"}, 1),
		DesignatedDayLimit: getEnvIntAny([]string{"MATCHDAY_DESIGNATED_DAY_LIMIT"}, 2),
		DesignatedDaysRule: getEnvAny([]string{"MATCHDAY_DESIGNATED_DAYS"}, scheduling.DefaultDesignatedDays),
		MaxBatchSize:       getEnvIntAny([]string{"MATCHDAY_MAX_BATCH_SIZE"}, scheduling.DefaultSeasonLength),
		MaxActivityBatch:   getEnvIntAny([]string{"MATCHDAY_MAX_ACTIVITY_BATCH"}, 0),
	}

	var err error
	if cfg.ActivityOrder, err = priority.ParseDirection(getEnvAny([]string{"MATCHDAY_ACTIVITY_ORDER"}, string(priority.Ascending))); err != nil {
		return nil, fmt.Errorf("MATCHDAY_ACTIVITY_ORDER: %w", err)
	}
	if cfg.MatchOrder, err = priority.ParseDirection(getEnvAny([]string{"MATCHDAY_MATCH_ORDER"}, string(priority.Descending))); err != nil {
		return nil, fmt.Errorf("MATCHDAY_MATCH_ORDER: %w", err)
	}
	if cfg.DesignatedDays, err = scheduling.ParseDesignatedDays(cfg.DesignatedDaysRule); err != nil {
		return nil, fmt.Errorf("MATCHDAY_DESIGNATED_DAYS: %w", err)
	}
	if cfg.Location, err = time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("MATCHDAY_TIMEZONE: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DBBackend != DatabasePostgres && c.DBBackend != DatabaseMySQL && c.DBBackend != DatabaseSQLite {
		return fmt.Errorf("unsupported database backend %q", c.DBBackend)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("MATCHDAY_DB_DSN must be provided")
	}

	switch c.EventBus {
	case "memory", "redis", "nats":
	default:
		return fmt.Errorf("unsupported event bus %q", c.EventBus)
	}

	if c.TracingSampleRate < 0 || c.TracingSampleRate > 1 {
		return fmt.Errorf("MATCHDAY_TRACING_SAMPLE_RATE must be between 0 and 1")
	}

	for name, v := range map[string]int{
		"MATCHDAY_LEAD_DAYS":            c.LeadDays,
		"MATCHDAY_HORIZON_DAYS":         c.HorizonDays,
		"MATCHDAY_MIN_GAP_DAYS":         c.MinGapDays,
		"MATCHDAY_NORMAL_DAY_LIMIT":     c.NormalDayLimit,
		"MATCHDAY_DESIGNATED_DAY_LIMIT": c.DesignatedDayLimit,
		"MATCHDAY_MAX_BATCH_SIZE":       c.MaxBatchSize,
		"MATCHDAY_MAX_ACTIVITY_BATCH":   c.MaxActivityBatch,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}

	for _, ev := range c.WebhookEvents {
		switch ev {
		case "schedule.completed", "schedule.rejected", "staging.changed":
		default:
			return fmt.Errorf("MATCHDAY_WEBHOOK_EVENTS: unknown event %q", ev)
		}
	}

	if strings.EqualFold(c.Environment, "production") && c.JWTSigningKey == "" {
		return fmt.Errorf("MATCHDAY_JWT_SIGNING_KEY must be provided in production")
	}
	return nil
}

// AuthEnabled reports whether API requests must carry a bearer token.
func (c *Config) AuthEnabled() bool {
	return c.JWTSigningKey != ""
}

// Engine derives the two schedulers from the configuration.
func (c *Config) Engine() (scheduling.DurationScheduler, scheduling.MatchScheduler) {
	activities := scheduling.DurationScheduler{
		Order:    c.ActivityOrder,
		MaxBatch: c.MaxActivityBatch,
	}
	matches := scheduling.MatchScheduler{
		Finder: scheduling.CalendarSlotFinder{
			HorizonDays: c.HorizonDays,
			LeadDays:    c.LeadDays,
			MinGapDays:  c.MinGapDays,
			Capacity: scheduling.CapacityRule{
				NormalLimit:     c.NormalDayLimit,
				DesignatedLimit: c.DesignatedDayLimit,
				DesignatedDays:  c.DesignatedDays,
			},
		},
		Order:    c.MatchOrder,
		MaxBatch: c.MaxBatchSize,
	}
	return activities, matches
}

// splitList splits a comma separated value, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvAny returns the first non-empty environment variable value from keys, or def if none set.
func getEnvAny(keys []string, def string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

// getEnvIntAny returns the first set integer environment variable value from keys, or def.
func getEnvIntAny(keys []string, def int) int {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				return parsed
			}
		}
	}
	return def
}

// getEnvBoolAny returns the first set boolean environment variable value from keys, or def.
func getEnvBoolAny(keys []string, def bool) bool {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "true" || v == "1" || v == "yes" {
				return true
			}
			if v == "false" || v == "0" || v == "no" {
				return false
			}
		}
	}
	return def
}

// getEnvFloatAny returns the first set float environment variable value from keys, or def.
func getEnvFloatAny(keys []string, def float64) float64 {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				return parsed
			}
		}
	}
	return def
}
