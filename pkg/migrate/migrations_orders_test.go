package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chowlabs/chow-backend/pkg/migrate"
)

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_orders.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no orders migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CHECK (shipment_attempts >= 0)",
		"CHECK (logistics_loss_paise >= 0)",
		"restock_handled boolean NOT NULL DEFAULT false",
		"version integer NOT NULL DEFAULT 1",
		"DROP TABLE IF EXISTS orders",
	}
	for _, want := range checks {
		if !strings.Contains(content, want) {
			t.Fatalf("orders migration missing %q", want)
		}
	}
}

func TestItemsMigrationGuardsStock(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_items.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no items migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}

	if !strings.Contains(string(data), "CHECK (stock_qty >= 0)") {
		t.Fatalf("items migration missing non-negative stock check")
	}
}

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations dir invalid: %v", err)
	}
}
