package combine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testConsumptionDoc = `{
	"months": [
		{
			"hourly_values": [
				{"t": "2024-01-01T00:00:00+02:00", "v": 1500},
				{"t": "2024-01-01T01:00:00+02:00", "v": 250},
				{"t": "2024-01-01T05:00:00+02:00", "v": 900}
			]
		}
	]
}`

const testPriceFeed = `timeStamp;value
2024-01-01 01:00:00;38,91
2024-01-01 00:00:00;45,30
2024-01-01 02:00:00;n/a
`

func writeTestFeeds(t *testing.T, dir string) (consumptionPath, pricePath string) {
	t.Helper()
	consumptionPath = filepath.Join(dir, "consumption_data.json")
	pricePath = filepath.Join(dir, "spot_prices_2024.csv")
	if err := os.WriteFile(consumptionPath, []byte(testConsumptionDoc), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(pricePath, []byte(testPriceFeed), 0644); err != nil {
		t.Fatal(err)
	}
	return consumptionPath, pricePath
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	consumptionPath, pricePath := writeTestFeeds(t, dir)
	outputPath := filepath.Join(dir, "processed", "combined_data.csv")

	cfg := Config{
		ConsumptionPath: consumptionPath,
		PricePath:       pricePath,
		OutputPath:      outputPath,
		Margin:          0.5,
		Keyer:           testKeyer,
	}

	result, err := Run(cfg)
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}

	// The 05:00 reading has no price, the 02:00 price has no valid value.
	if len(result.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(result.Records))
	}
	if result.SkippedPriceRows != 1 {
		t.Errorf("expected 1 skipped price row, got %d", result.SkippedPriceRows)
	}
	if result.SkippedConsumptionRows != 0 {
		t.Errorf("expected 0 skipped consumption rows, got %d", result.SkippedConsumptionRows)
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	expected := strings.Join([]string{
		"timestamp,consumption_kWh,price_cents_per_kWh,cost_euros",
		"2024-01-01T00:00:00+0200,1.500,45.30,0.687000",
		"2024-01-01T01:00:00+0200,0.250,38.91,0.098525",
		"",
	}, "\n")
	if string(data) != expected {
		t.Errorf("output mismatch\nexpected:\n%s\ngot:\n%s", expected, string(data))
	}
}

func TestRunIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	consumptionPath, pricePath := writeTestFeeds(t, dir)
	outputPath := filepath.Join(dir, "combined_data.csv")

	cfg := Config{
		ConsumptionPath: consumptionPath,
		PricePath:       pricePath,
		OutputPath:      outputPath,
		Margin:          0.5,
		Keyer:           testKeyer,
	}

	if _, err := Run(cfg); err != nil {
		t.Fatal(err)
	}
	first, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Run(cfg); err != nil {
		t.Fatal(err)
	}
	second, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatal(err)
	}

	if string(first) != string(second) {
		t.Error("two runs over identical inputs produced different bytes")
	}
}

func TestRunEmptyJoinIsValid(t *testing.T) {
	dir := t.TempDir()
	consumptionPath, pricePath := writeTestFeeds(t, dir)

	// Price feed covering a completely different range.
	if err := os.WriteFile(pricePath, []byte("timeStamp;value\n2030-01-01 00:00:00;1,00\n"), 0644); err != nil {
		t.Fatal(err)
	}

	outputPath := filepath.Join(dir, "combined_data.csv")
	result, err := Run(Config{
		ConsumptionPath: consumptionPath,
		PricePath:       pricePath,
		OutputPath:      outputPath,
		Keyer:           testKeyer,
	})
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}
	if len(result.Records) != 0 {
		t.Errorf("expected no records, got %d", len(result.Records))
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "timestamp,consumption_kWh,price_cents_per_kWh,cost_euros\n" {
		t.Errorf("expected header-only output, got %q", string(data))
	}
}

func TestRunLeavesOutputUntouchedOnFailure(t *testing.T) {
	dir := t.TempDir()
	_, pricePath := writeTestFeeds(t, dir)
	outputPath := filepath.Join(dir, "combined_data.csv")

	previous := "timestamp,consumption_kWh,price_cents_per_kWh,cost_euros\nold,1.000,1.00,0.010000\n"
	if err := os.WriteFile(outputPath, []byte(previous), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Run(Config{
		ConsumptionPath: filepath.Join(dir, "does_not_exist.json"),
		PricePath:       pricePath,
		OutputPath:      outputPath,
		Keyer:           testKeyer,
	})
	if err == nil {
		t.Fatal("expected error for missing consumption feed")
	}
	if !strings.Contains(err.Error(), "read consumption feed") {
		t.Errorf("error should name the failed stage, got: %v", err)
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != previous {
		t.Error("failed run modified the previous output artifact")
	}
}

func TestRunStageErrors(t *testing.T) {
	dir := t.TempDir()
	consumptionPath, pricePath := writeTestFeeds(t, dir)

	t.Run("unreadable price feed", func(t *testing.T) {
		_, err := Run(Config{
			ConsumptionPath: consumptionPath,
			PricePath:       filepath.Join(dir, "missing.csv"),
			OutputPath:      filepath.Join(dir, "out.csv"),
			Keyer:           testKeyer,
		})
		if err == nil || !strings.Contains(err.Error(), "read price feed") {
			t.Errorf("expected read price feed error, got: %v", err)
		}
	})

	t.Run("malformed consumption document", func(t *testing.T) {
		badPath := filepath.Join(dir, "bad.json")
		if err := os.WriteFile(badPath, []byte("{broken"), 0644); err != nil {
			t.Fatal(err)
		}
		_, err := Run(Config{
			ConsumptionPath: badPath,
			PricePath:       pricePath,
			OutputPath:      filepath.Join(dir, "out.csv"),
			Keyer:           testKeyer,
		})
		if err == nil || !strings.Contains(err.Error(), "parse consumption feed") {
			t.Errorf("expected parse consumption feed error, got: %v", err)
		}
	})
}
