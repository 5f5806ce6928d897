package db

import (
	"testing"

	"github.com/friendsincode/matchday/internal/config"
	"github.com/friendsincode/matchday/internal/models"
	"github.com/friendsincode/matchday/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestConnectAndMigrateSQLite(t *testing.T) {
	database, err := Connect(&config.Config{DBBackend: config.DatabaseSQLite, DBDSN: ":memory:"})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { _ = Close(database) })

	if err := Migrate(database); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	for _, table := range []string{"staged_activities", "staged_matches"} {
		if !database.Migrator().HasTable(table) {
			t.Errorf("HasTable(%q) = false, want true", table)
		}
	}

	row := models.StagedActivity{ID: "a1", Position: 1, Name: "A", Priority: 1, Duration: 10, Resources: []string{"R1"}}
	if err := database.Create(&row).Error; err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	var got models.StagedActivity
	if err := database.First(&got, "id = ?", "a1").Error; err != nil {
		t.Fatalf("First() error = %v", err)
	}
	if len(got.Resources) != 1 || got.Resources[0] != "R1" {
		t.Errorf("Resources = %v, want [R1]", got.Resources)
	}
	if n := testutil.CollectAndCount(telemetry.DatabaseQueryDuration); n < 2 {
		t.Errorf("query duration series = %d, want create and query observed", n)
	}

	UpdateConnectionMetrics(database)
	if v := testutil.ToFloat64(telemetry.DatabaseConnectionsActive); v < 1 {
		t.Errorf("DatabaseConnectionsActive = %v, want at least 1", v)
	}
}

func TestConnectRejectsUnknownBackend(t *testing.T) {
	if _, err := Connect(&config.Config{DBBackend: "oracle", DBDSN: "x"}); err == nil {
		t.Fatal("Connect() with unknown backend succeeded, want error")
	}
}
