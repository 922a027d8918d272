package database

import (
	"context"
	"fmt"

	"github.com/jkoski/spotcost-go/combine"
	"github.com/jkoski/spotcost-go/hours"
)

type CombinedRow struct {
	Timestamp   hours.Key
	Consumption float64
	Price       float64
	Cost        float64
}

// ReplaceCombinedData mirrors the freshly emitted table into SQLite. The CSV
// artifact is the source of truth, this copy only feeds the chart and API
// queries, so each refresh swaps the whole table in one transaction.
func (d *Database) ReplaceCombinedData(ctx context.Context, records []combine.Record) error {
	tx, err := d.write.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting combined_data transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM combined_data`); err != nil {
		tx.Rollback()
		return fmt.Errorf("clearing combined_data: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO combined_data (timestamp, consumption, price, cost)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(timestamp) DO UPDATE SET
			consumption = excluded.consumption,
			price = excluded.price,
			cost = excluded.cost`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing combined_data insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.Timestamp.String(), rec.Consumption, rec.Price, rec.Cost); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting combined row %s: %w", rec.Timestamp, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing combined_data: %w", err)
	}

	return nil
}

func (d *Database) GetCombinedForDay(ctx context.Context, date string) ([]CombinedRow, error) {
	rows, err := d.read.QueryContext(ctx, `
		SELECT timestamp, consumption, price, cost
		FROM combined_data
		WHERE substr(timestamp, 1, 10) = ?
		ORDER BY timestamp ASC`,
		date)
	if err != nil {
		return nil, fmt.Errorf("fetching combined data for %s: %w", date, err)
	}
	defer rows.Close()

	var result []CombinedRow
	for rows.Next() {
		var r CombinedRow
		var ts string
		if err := rows.Scan(&ts, &r.Consumption, &r.Price, &r.Cost); err != nil {
			return nil, err
		}
		r.Timestamp = hours.Key(ts)
		result = append(result, r)
	}
	return result, rows.Err()
}

func (d *Database) GetCombinedDays(ctx context.Context) ([]string, error) {
	rows, err := d.read.QueryContext(ctx, `
		SELECT DISTINCT substr(timestamp, 1, 10) AS day
		FROM combined_data
		ORDER BY day ASC`)
	if err != nil {
		return nil, fmt.Errorf("fetching combined days: %w", err)
	}
	defer rows.Close()

	var days []string
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, rows.Err()
}

func (d *Database) PurgeCombinedData(ctx context.Context, retentionDays int) error {
	if retentionDays < 1 {
		return nil
	}
	d.logger.Debug("purging combined_data")

	res, err := d.write.ExecContext(ctx, `
		DELETE FROM combined_data
		WHERE substr(timestamp, 1, 10) < date('now', ?)`,
		fmt.Sprintf("-%d days", retentionDays))
	if err != nil {
		return fmt.Errorf("purging combined_data: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows > 0 {
		d.logger.Debug(fmt.Sprintf("purged %d rows from combined_data", rows))
	}

	return nil
}
