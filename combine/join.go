package combine

import (
	"github.com/jkoski/spotcost-go/convert"
	"github.com/jkoski/spotcost-go/hours"
)

// Record is one joined hour. Immutable once emitted; the whole ordered
// sequence is replaced on every refresh.
type Record struct {
	Timestamp   hours.Key
	Consumption float64 // kWh, rounded to 3 decimals
	Price       float64 // cents/kWh excluding margin, rounded to 2 decimals
	Cost        float64 // euros including margin, rounded to 6 decimals
}

// Join inner-joins consumption values against the price index. A value
// without a price entry is dropped silently, this is not a left join.
// Margin (cents/kWh) goes into the cost only, never into the displayed
// price. Rounding happens once on the output, cost is computed from the
// unrounded consumption and price.
func Join(values []ConsumptionValue, prices PriceIndex, margin float64) []Record {
	records := make([]Record, 0, len(values))
	for _, cv := range values {
		price, ok := prices[cv.Key]
		if !ok {
			continue
		}
		records = append(records, Record{
			Timestamp:   cv.Key,
			Consumption: convert.RoundFloat64(cv.KWh, 3),
			Price:       convert.TwoDecimals(price),
			Cost:        convert.RoundFloat64(cv.KWh*(price+margin)/100, 6),
		})
	}
	return records
}
