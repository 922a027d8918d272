package config

import (
	"os"
	"path/filepath"
	"testing"
)

const testConfigYaml = `
api:
  address: "127.0.0.1"
  port: 3000

database:
  path: "data/spotcost.db"
  backup_retention_days: 30

elenia:
  username: "someone@example.com"
  password: "hunter2"

combine:
  year: 2024
  spot_margin: 0.5
  timezone: "Europe/Helsinki"

refresh:
  run_at: "0 4 * * *"

logging:
  console_level: "DEBUG"
  db_attrs_format: "text"
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(testConfigYaml), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	t.Run("explicit values", func(t *testing.T) {
		if c.Api.Port != 3000 {
			t.Errorf("expected port 3000, got %d", c.Api.Port)
		}
		if c.Database.Path != "data/spotcost.db" {
			t.Errorf("unexpected database path %q", c.Database.Path)
		}
		if c.Elenia.Username != "someone@example.com" {
			t.Errorf("unexpected username %q", c.Elenia.Username)
		}
		if c.Combine.GetYear() != 2024 {
			t.Errorf("expected year 2024, got %d", c.Combine.GetYear())
		}
		if c.Combine.SpotMargin != 0.5 {
			t.Errorf("expected spot margin 0.5, got %f", c.Combine.SpotMargin)
		}
		if c.Refresh.GetRunAt() != "0 4 * * *" {
			t.Errorf("unexpected refresh spec %q", c.Refresh.GetRunAt())
		}
		if c.Database.GetBackupRetentionDays() != 30 {
			t.Errorf("expected 30 backup retention days, got %d", c.Database.GetBackupRetentionDays())
		}
	})

	t.Run("defaults", func(t *testing.T) {
		if c.Combine.GetOffsetSuffix() != "+0200" {
			t.Errorf("expected default offset suffix, got %q", c.Combine.GetOffsetSuffix())
		}
		if c.Combine.GetDownloadsDir() != "downloads" {
			t.Errorf("expected default downloads dir, got %q", c.Combine.GetDownloadsDir())
		}
		if c.Vattenfall.GetVatRate() != 0.255 {
			t.Errorf("expected default VAT rate, got %f", c.Vattenfall.GetVatRate())
		}
		if c.Logging.GetDbMaxEntries() != 10000 {
			t.Errorf("expected default max log entries, got %d", c.Logging.GetDbMaxEntries())
		}
	})

	t.Run("derived paths", func(t *testing.T) {
		if got := c.Combine.ConsumptionFile(); got != filepath.Join("downloads", "consumption_data.json") {
			t.Errorf("unexpected consumption file %q", got)
		}
		if got := c.Combine.PriceFile(); got != filepath.Join("downloads", "spot_prices_2024.csv") {
			t.Errorf("unexpected price file %q", got)
		}
	})
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
