package combine

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/jkoski/spotcost-go/convert"
	"github.com/jkoski/spotcost-go/hours"
)

// PriceIndex maps canonical timestamps to hourly spot prices in cents/kWh,
// VAT included. Margin is not applied here.
type PriceIndex map[hours.Key]float64

// ParsePriceFeed reads the semicolon-delimited spot price feed. The first
// line is a header and is discarded. Rows that are blank, lack one of the
// two fields or carry an unparseable value are skipped, counted in skipped.
// On duplicate timestamps the last row wins.
func ParsePriceFeed(r io.Reader, keyer hours.Keyer) (index PriceIndex, skipped int, err error) {
	index = make(PriceIndex)

	scanner := bufio.NewScanner(r)
	header := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if header {
			header = false
			continue
		}
		if line == "" {
			continue
		}

		fields := strings.Split(line, ";")
		if len(fields) != 2 || strings.TrimSpace(fields[0]) == "" || strings.TrimSpace(fields[1]) == "" {
			skipped++
			continue
		}

		key, err := keyer.FromWallClock(strings.TrimSpace(fields[0]))
		if err != nil {
			skipped++
			continue
		}

		price, err := convert.ParseDecimalComma(fields[1])
		if err != nil {
			skipped++
			continue
		}

		index[key] = price
	}

	if err := scanner.Err(); err != nil {
		return nil, skipped, fmt.Errorf("reading price feed: %w", err)
	}

	return index, skipped, nil
}
