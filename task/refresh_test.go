package task

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jkoski/spotcost-go/config"
	"github.com/jkoski/spotcost-go/database"
	"github.com/jkoski/spotcost-go/hours"
	"github.com/jkoski/spotcost-go/types"
)

type stubConsumption struct {
	calls atomic.Int32
	delay time.Duration
	doc   []byte
	err   error
}

func (s *stubConsumption) GetConsumptionYear(ctx context.Context, year int) ([]byte, error) {
	s.calls.Add(1)
	time.Sleep(s.delay)
	return s.doc, s.err
}

type stubPrices struct {
	prices []types.SpotPrice
	err    error
}

func (s *stubPrices) GetSpotPrices(ctx context.Context, year int) ([]types.SpotPrice, error) {
	return s.prices, s.err
}

func testSetup(t *testing.T, consumption *stubConsumption, prices *stubPrices) (*Refresher, *database.Database, *config.AppConfig) {
	t.Helper()
	dir := t.TempDir()

	year := 2024
	downloads := filepath.Join(dir, "downloads")
	output := filepath.Join(dir, "processed", "combined_data.csv")
	cnfg := &config.AppConfig{
		Database: config.AppConfigDatabase{Path: filepath.Join(dir, "test.db")},
		Combine: config.AppConfigCombine{
			Year:         &year,
			SpotMargin:   0.5,
			DownloadsDir: &downloads,
			OutputPath:   &output,
		},
	}

	db, err := database.New(context.Background(), cnfg.Database.Path)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(db.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db.SetLogger(logger)
	keyer := hours.MustKeyer(hours.DefaultZone, hours.DefaultSuffix)

	return NewRefresher(logger, db, consumption, prices, keyer, cnfg), db, cnfg
}

func validStubs() (*stubConsumption, *stubPrices) {
	consumption := &stubConsumption{
		doc: []byte(`{"months": [{"hourly_values": [
			{"t": "2024-01-01T00:00:00+02:00", "v": 1500},
			{"t": "2024-01-01T01:00:00+02:00", "v": 250}
		]}]}`),
	}
	prices := &stubPrices{
		prices: []types.SpotPrice{
			{At: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), Cents: 45.30},
			{At: time.Date(2024, time.January, 1, 1, 0, 0, 0, time.UTC), Cents: 38.91},
		},
	}
	return consumption, prices
}

func TestRefresherRun(t *testing.T) {
	consumption, prices := validStubs()
	refresher, db, cnfg := testSetup(t, consumption, prices)

	result, err := refresher.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}
	if result.Records != 2 {
		t.Errorf("expected 2 records, got %d", result.Records)
	}

	data, err := os.ReadFile(cnfg.Combine.GetOutputPath())
	if err != nil {
		t.Fatalf("reading output artifact: %v", err)
	}
	if !strings.Contains(string(data), "2024-01-01T00:00:00+0200,1.500,45.30,0.687000") {
		t.Errorf("unexpected artifact contents:\n%s", string(data))
	}

	rows, err := db.GetCombinedForDay(context.Background(), "2024-01-01")
	if err != nil {
		t.Fatalf("reading database mirror: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("expected 2 mirrored rows, got %d", len(rows))
	}

	run, err := db.GetLastSuccessfulRefresh(context.Background())
	if err != nil {
		t.Fatalf("reading refresh run: %v", err)
	}
	if run.RecordCount != 2 || !run.Succeeded {
		t.Errorf("unexpected refresh run row: %+v", run)
	}
}

func TestRefresherSingleFlight(t *testing.T) {
	consumption, prices := validStubs()
	consumption.delay = 100 * time.Millisecond
	refresher, _, _ := testSetup(t, consumption, prices)

	const parallel = 5
	var wg sync.WaitGroup
	errs := make([]error, parallel)
	results := make([]RefreshResult, parallel)

	for i := 0; i < parallel; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = refresher.Run(context.Background())
		}(i)
	}
	wg.Wait()

	for i := 0; i < parallel; i++ {
		if errs[i] != nil {
			t.Errorf("trigger %d failed: %v", i, errs[i])
		}
		if results[i].Records != 2 {
			t.Errorf("trigger %d got %d records", i, results[i].Records)
		}
	}

	if got := consumption.calls.Load(); got != 1 {
		t.Errorf("expected a single in-flight execution, provider was called %d times", got)
	}

	// Once the flight has landed, a new trigger starts a new one.
	if _, err := refresher.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := consumption.calls.Load(); got != 2 {
		t.Errorf("expected a second execution after completion, got %d calls", got)
	}
}

func TestRefresherRecordsFailedRuns(t *testing.T) {
	consumption, prices := validStubs()
	consumption.err = context.DeadlineExceeded
	refresher, db, _ := testSetup(t, consumption, prices)

	_, err := refresher.Run(context.Background())
	if err == nil {
		t.Fatal("expected error from failing provider")
	}
	if !strings.Contains(err.Error(), "fetch consumption feed") {
		t.Errorf("error should name the failed stage, got: %v", err)
	}

	runs, err := db.GetRefreshRuns(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 recorded run, got %d", len(runs))
	}
	if runs[0].Succeeded {
		t.Error("failed run recorded as succeeded")
	}
	if !runs[0].Error.Valid || !strings.Contains(runs[0].Error.String, "fetch consumption feed") {
		t.Errorf("unexpected error column: %+v", runs[0].Error)
	}
}
