package telemetry

import (
	"os"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

const alertsPath = "../../deploy/prometheus/alerts.yml"

type alertRule struct {
	Alert       string            `yaml:"alert"`
	Expr        string            `yaml:"expr"`
	For         string            `yaml:"for"`
	Labels      map[string]string `yaml:"labels"`
	Annotations map[string]string `yaml:"annotations"`
}

type alertGroup struct {
	Name  string      `yaml:"name"`
	Rules []alertRule `yaml:"rules"`
}

type alertsConfig struct {
	Groups []alertGroup `yaml:"groups"`
}

func loadAlerts(t *testing.T) (alertsConfig, string) {
	t.Helper()
	data, err := os.ReadFile(alertsPath)
	if err != nil {
		t.Skipf("Skipping test: alerts file not found at %s", alertsPath)
	}
	var config alertsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		t.Fatalf("Invalid YAML in alerts.yml: %v", err)
	}
	return config, string(data)
}

// TestAlertsFileValid verifies the Prometheus alerts configuration is valid YAML.
func TestAlertsFileValid(t *testing.T) {
	config, _ := loadAlerts(t)
	if len(config.Groups) == 0 {
		t.Fatal("alerts.yml 'groups' is empty or invalid")
	}
}

// TestCriticalAlertsPresent verifies critical alerts are defined.
func TestCriticalAlertsPresent(t *testing.T) {
	_, content := loadAlerts(t)

	for _, alertName := range []string{
		"HighAPIErrorRate",
		"SchedulingInvariantViolated",
		"HighMatchRejectionRate",
		"DatabaseDown",
	} {
		if !strings.Contains(content, alertName) {
			t.Errorf("Critical alert '%s' not found in alerts.yml", alertName)
		}
	}
}

// TestAlertLabels verifies alerts have required labels.
func TestAlertLabels(t *testing.T) {
	config, _ := loadAlerts(t)

	for _, group := range config.Groups {
		for _, alert := range group.Rules {
			if alert.Alert == "" {
				continue
			}
			if _, ok := alert.Labels["severity"]; !ok {
				t.Errorf("Alert '%s' missing 'severity' label", alert.Alert)
			}
			if _, ok := alert.Annotations["summary"]; !ok {
				t.Errorf("Alert '%s' missing 'summary' annotation", alert.Alert)
			}
		}
	}
}

// TestMetricsExist verifies metrics used in alerts are declared in metrics.go.
func TestMetricsExist(t *testing.T) {
	data, err := os.ReadFile("metrics.go")
	if err != nil {
		t.Fatalf("Failed to read metrics.go: %v", err)
	}
	content := string(data)

	for _, metric := range []string{
		"matchday_api_request_duration_seconds",
		"matchday_api_requests_total",
		"matchday_schedule_runs_total",
		"matchday_candidates_placed_total",
		"matchday_matches_rejected_total",
		"matchday_staged_candidates",
		"matchday_database_connections_active",
		"matchday_events_dropped_total",
		"matchday_webhook_deliveries_total",
	} {
		if !strings.Contains(content, metric) {
			t.Errorf("Expected metric '%s' not found in metrics.go", metric)
		}
	}
}
