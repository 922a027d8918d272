package combine

import (
	"bufio"
	"fmt"
	"io"
	"slices"

	"github.com/jkoski/spotcost-go/convert"
)

const csvHeader = "timestamp,consumption_kWh,price_cents_per_kWh,cost_euros"

// SortRecords orders records chronologically ascending. Keys are compared
// as instants, not as strings.
func SortRecords(records []Record) {
	slices.SortStableFunc(records, func(a, b Record) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
}

// WriteCSV serializes records as the flat combined table: one header line,
// comma-separated fields, fixed decimal widths. Output is deterministic, the
// same records always produce identical bytes.
func WriteCSV(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintln(bw, csvHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, rec := range records {
		_, err := fmt.Fprintf(bw, "%s,%s,%s,%s\n",
			rec.Timestamp,
			convert.FormatDecimal(rec.Consumption, 3),
			convert.FormatDecimal(rec.Price, 2),
			convert.FormatDecimal(rec.Cost, 6))
		if err != nil {
			return fmt.Errorf("writing record %s: %w", rec.Timestamp, err)
		}
	}

	return bw.Flush()
}
