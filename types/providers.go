package types

import (
	"context"
	"time"
)

// SpotPrice is one hourly day-ahead price in cents/kWh, VAT included.
type SpotPrice struct {
	At    time.Time
	Cents float64
}

type SpotPriceProvider interface {
	GetSpotPrices(ctx context.Context, year int) ([]SpotPrice, error)
}

// ConsumptionProvider returns the raw monthly-bucket meter reading document
// for one year, exactly as served by the metering API.
type ConsumptionProvider interface {
	GetConsumptionYear(ctx context.Context, year int) ([]byte, error)
}
