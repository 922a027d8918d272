package task

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jkoski/spotcost-go/combine"
	"github.com/jkoski/spotcost-go/config"
	"github.com/jkoski/spotcost-go/convert"
	"github.com/jkoski/spotcost-go/database"
	"github.com/jkoski/spotcost-go/hours"
	"github.com/jkoski/spotcost-go/types"
	"golang.org/x/sync/singleflight"
)

type RefreshResult struct {
	Records     int
	SkippedRows int
	Duration    time.Duration
}

// Refresher runs the full fetch-and-combine cycle: pull the consumption
// document and the spot price feed into the downloads directory, combine
// them into the CSV artifact, then mirror the result into the database.
// Overlapping triggers collapse into a single in-flight execution whose
// outcome all callers share.
type Refresher struct {
	logger      *slog.Logger
	db          *database.Database
	consumption types.ConsumptionProvider
	prices      types.SpotPriceProvider
	cnfg        *config.AppConfig
	keyer       hours.Keyer
	group       singleflight.Group

	// OnComplete, when set, is invoked after every finished refresh. The
	// web layer uses it to push run results to connected dashboards.
	OnComplete func(RefreshResult, error)
}

func NewRefresher(
	logger *slog.Logger,
	db *database.Database,
	consumption types.ConsumptionProvider,
	prices types.SpotPriceProvider,
	keyer hours.Keyer,
	cnfg *config.AppConfig,
) *Refresher {
	return &Refresher{
		logger:      logger,
		db:          db,
		consumption: consumption,
		prices:      prices,
		cnfg:        cnfg,
		keyer:       keyer,
	}
}

func (r *Refresher) Run(ctx context.Context) (RefreshResult, error) {
	v, err, shared := r.group.Do("refresh", func() (any, error) {
		return r.run(ctx)
	})
	if shared {
		r.logger.Debug("refresh already in flight, sharing its result")
	}
	if err != nil {
		return RefreshResult{}, err
	}
	return v.(RefreshResult), nil
}

func (r *Refresher) run(ctx context.Context) (result RefreshResult, err error) {
	started := time.Now()
	r.logger.Info("refresh starting...")

	defer func() {
		result.Duration = time.Since(started)
		r.recordRun(result, started, err)
		if r.OnComplete != nil {
			r.OnComplete(result, err)
		}
	}()

	if err = r.fetchConsumption(ctx); err != nil {
		return result, fmt.Errorf("fetch consumption feed: %w", err)
	}

	if err = r.fetchPrices(ctx); err != nil {
		return result, fmt.Errorf("fetch price feed: %w", err)
	}

	res, err := combine.Run(combine.Config{
		ConsumptionPath: r.cnfg.Combine.ConsumptionFile(),
		PricePath:       r.cnfg.Combine.PriceFile(),
		OutputPath:      r.cnfg.Combine.GetOutputPath(),
		Margin:          r.cnfg.Combine.SpotMargin,
		Keyer:           r.keyer,
	})
	if err != nil {
		return result, err
	}

	result.Records = len(res.Records)
	result.SkippedRows = res.SkippedPriceRows + res.SkippedConsumptionRows

	if err = r.db.ReplaceCombinedData(ctx, res.Records); err != nil {
		return result, fmt.Errorf("mirror combined data: %w", err)
	}

	if result.Records == 0 {
		r.logger.Warn("refresh produced an empty combined table")
	}

	r.logger.Info("refresh done",
		slog.Int("records", result.Records),
		slog.Int("skippedRows", result.SkippedRows),
		slog.Duration("duration", time.Since(started)))

	return result, nil
}

func (r *Refresher) fetchConsumption(ctx context.Context) error {
	doc, err := r.consumption.GetConsumptionYear(ctx, r.cnfg.Combine.GetYear())
	if err != nil {
		return err
	}
	return writeFileAtomic(r.cnfg.Combine.ConsumptionFile(), doc)
}

func (r *Refresher) fetchPrices(ctx context.Context) error {
	prices, err := r.prices.GetSpotPrices(ctx, r.cnfg.Combine.GetYear())
	if err != nil {
		return err
	}

	feed := make([]byte, 0, len(prices)*32)
	feed = append(feed, "timeStamp;value\n"...)
	for _, p := range prices {
		feed = append(feed, p.At.Format("2006-01-02 15:04:05")...)
		feed = append(feed, ';')
		feed = append(feed, convert.FormatDecimalComma(p.Cents, 2)...)
		feed = append(feed, '\n')
	}

	return writeFileAtomic(r.cnfg.Combine.PriceFile(), feed)
}

func (r *Refresher) recordRun(result RefreshResult, started time.Time, runErr error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	row := database.RefreshRunRow{
		StartedAt:   started,
		FinishedAt:  time.Now(),
		Succeeded:   runErr == nil,
		RecordCount: result.Records,
		SkippedRows: result.SkippedRows,
	}
	if runErr != nil {
		row.Error = sql.NullString{String: runErr.Error(), Valid: true}
	}

	if err := r.db.SaveRefreshRun(ctx, row); err != nil {
		r.logger.Error("failed to record refresh run", slog.Any("error", err))
	}
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".feed-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
