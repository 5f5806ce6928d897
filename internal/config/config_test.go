package config

import (
	"reflect"
	"testing"
	"time"

	"github.com/friendsincode/matchday/internal/priority"
	"github.com/friendsincode/matchday/internal/scheduling"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.DBBackend != DatabaseSQLite {
		t.Errorf("DBBackend = %q, want sqlite", cfg.DBBackend)
	}
	if cfg.ActivityOrder != priority.Ascending || cfg.MatchOrder != priority.Descending {
		t.Errorf("orders = %s/%s, want ascending/descending", cfg.ActivityOrder, cfg.MatchOrder)
	}
	if cfg.LeadDays != 2 || cfg.HorizonDays != 30 || cfg.MinGapDays != 2 {
		t.Errorf("lead/horizon/gap = %d/%d/%d, want 2/30/2", cfg.LeadDays, cfg.HorizonDays, cfg.MinGapDays)
	}
	if cfg.MaxBatchSize != 74 {
		t.Errorf("MaxBatchSize = %d, want 74", cfg.MaxBatchSize)
	}
	if !reflect.DeepEqual(cfg.DesignatedDays, []time.Weekday{time.Sunday}) {
		t.Errorf("DesignatedDays = %v, want [Sunday]", cfg.DesignatedDays)
	}
	if cfg.AuthEnabled() {
		t.Error("AuthEnabled() = true without a signing key")
	}
}

func TestLoadReadsEngineEnvKeys(t *testing.T) {
	t.Setenv("MATCHDAY_MATCH_ORDER", "asc")
	t.Setenv("MATCHDAY_HORIZON_DAYS", "14")
	t.Setenv("MATCHDAY_DESIGNATED_DAYS", "FREQ=WEEKLY;BYDAY=SA,SU")
	t.Setenv("MATCHDAY_DESIGNATED_DAY_LIMIT", "3")
	t.Setenv("MATCHDAY_JWT_SIGNING_KEY", "supersecret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("AuthEnabled() = false with a signing key")
	}

	_, matches := cfg.Engine()
	if matches.Order != priority.Ascending {
		t.Errorf("Order = %s, want ascending", matches.Order)
	}
	if matches.Finder.HorizonDays != 14 {
		t.Errorf("HorizonDays = %d, want 14", matches.Finder.HorizonDays)
	}
	want := scheduling.CapacityRule{
		NormalLimit:     1,
		DesignatedLimit: 3,
		DesignatedDays:  []time.Weekday{time.Saturday, time.Sunday},
	}
	if !reflect.DeepEqual(matches.Finder.Capacity, want) {
		t.Errorf("Capacity = %+v, want %+v", matches.Finder.Capacity, want)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown backend", "MATCHDAY_DB_BACKEND", "oracle"},
		{"unknown bus", "MATCHDAY_EVENT_BUS", "kafka"},
		{"bad order", "MATCHDAY_ACTIVITY_ORDER", "random"},
		{"negative horizon", "MATCHDAY_HORIZON_DAYS", "-1"},
		{"bad designated days", "MATCHDAY_DESIGNATED_DAYS", "funday"},
		{"bad timezone", "MATCHDAY_TIMEZONE", "Mars/Olympus"},
		{"sample rate out of range", "MATCHDAY_TRACING_SAMPLE_RATE", "2"},
		{"unknown webhook event", "MATCHDAY_WEBHOOK_EVENTS", "schedule.completed,show.start"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Fatalf("Load() with %s=%s succeeded, want error", tt.key, tt.val)
			}
		})
	}
}

func TestLoadProductionRequiresSigningKey(t *testing.T) {
	t.Setenv("MATCHDAY_ENV", "production")
	if _, err := Load(); err == nil {
		t.Fatal("expected production config load to fail without a JWT signing key")
	}

	t.Setenv("MATCHDAY_JWT_SIGNING_KEY", "supersecret")
	if _, err := Load(); err != nil {
		t.Fatalf("expected production config load with key to succeed: %v", err)
	}
}

func TestLoadWebhookLists(t *testing.T) {
	t.Setenv("MATCHDAY_WEBHOOK_URLS", " https://a.example/hook, ,https://b.example/hook")
	t.Setenv("MATCHDAY_WEBHOOK_EVENTS", "schedule.rejected")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	wantURLs := []string{"https://a.example/hook", "https://b.example/hook"}
	if !reflect.DeepEqual(cfg.WebhookURLs, wantURLs) {
		t.Errorf("WebhookURLs = %v, want %v", cfg.WebhookURLs, wantURLs)
	}
	if !reflect.DeepEqual(cfg.WebhookEvents, []string{"schedule.rejected"}) {
		t.Errorf("WebhookEvents = %v", cfg.WebhookEvents)
	}
}
