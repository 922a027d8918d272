// Package combine joins hourly meter readings against day-ahead spot prices
// and emits the cost-annotated combined table. Both feeds are keyed by the
// same canonical timestamp scheme; only hours present in both survive.
package combine

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jkoski/spotcost-go/hours"
)

type Config struct {
	ConsumptionPath string
	PricePath       string
	OutputPath      string
	Margin          float64 // supplier markup in cents/kWh, cost only
	Keyer           hours.Keyer
}

type Result struct {
	Records                []Record
	SkippedPriceRows       int
	SkippedConsumptionRows int
}

// Run executes one full combine cycle: read and normalize both feeds, join,
// order and atomically replace the output artifact. Either the new table is
// fully written or the previous one is left untouched. An empty join result
// is valid and produces a header-only file.
func Run(cfg Config) (Result, error) {
	consumptionFile, err := os.Open(cfg.ConsumptionPath)
	if err != nil {
		return Result{}, fmt.Errorf("read consumption feed: %w", err)
	}
	values, skippedConsumption, err := ParseConsumptionFeed(consumptionFile, cfg.Keyer)
	consumptionFile.Close()
	if err != nil {
		return Result{}, fmt.Errorf("parse consumption feed: %w", err)
	}

	priceFile, err := os.Open(cfg.PricePath)
	if err != nil {
		return Result{}, fmt.Errorf("read price feed: %w", err)
	}
	prices, skippedPrices, err := ParsePriceFeed(priceFile, cfg.Keyer)
	priceFile.Close()
	if err != nil {
		return Result{}, fmt.Errorf("parse price feed: %w", err)
	}

	records := Join(values, prices, cfg.Margin)
	SortRecords(records)

	if err := replaceOutput(cfg.OutputPath, records); err != nil {
		return Result{}, fmt.Errorf("write combined table: %w", err)
	}

	return Result{
		Records:                records,
		SkippedPriceRows:       skippedPrices,
		SkippedConsumptionRows: skippedConsumption,
	}, nil
}

// replaceOutput writes to a temp file in the destination directory and
// renames over the old artifact, so readers never observe a partial table.
func replaceOutput(path string, records []Record) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".combined-*.csv")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if err := WriteCSV(tmp, records); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace output file: %w", err)
	}

	return nil
}
