// Package vattenfall fetches day-ahead spot prices from the Vattenfall
// Finland price API. Prices arrive VAT-exclusive; the configured VAT rate is
// applied here so the downstream feed is already tax-adjusted.
package vattenfall

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jkoski/spotcost-go/convert"
	"github.com/jkoski/spotcost-go/types"
)

const defaultBaseURL = "https://www.vattenfall.fi/api/price/spot"

// The spot API rejects requests without a browser-looking agent.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/88.0.4324.182 Safari/537.36"

type Vattenfall struct {
	vatRate float64
	baseURL string
	client  *http.Client
}

func New(vatRate float64) *Vattenfall {
	return &Vattenfall{
		vatRate: vatRate,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type priceRow struct {
	TimeStamp string  `json:"timeStamp"`
	Value     float64 `json:"value"`
}

// GetSpotPrices returns every hourly price for the given year, VAT included
// and rounded to two decimals the way the upstream CSV always carried them.
func (v *Vattenfall) GetSpotPrices(ctx context.Context, year int) ([]types.SpotPrice, error) {
	url := fmt.Sprintf("%s/%d-01-01/%d-12-31?lang=fi", v.baseURL, year, year)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching spot prices: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	var rows []priceRow
	if err := json.NewDecoder(res.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decoding spot price response: %w", err)
	}

	prices := make([]types.SpotPrice, 0, len(rows))
	for _, row := range rows {
		at, err := parseTimestamp(row.TimeStamp)
		if err != nil {
			continue
		}
		prices = append(prices, types.SpotPrice{
			At:    at,
			Cents: convert.TwoDecimals(row.Value * (1 + v.vatRate)),
		})
	}

	return prices, nil
}

// parseTimestamp handles the API's local civil format as well as ISO-8601.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
