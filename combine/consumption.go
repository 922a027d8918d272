package combine

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jkoski/spotcost-go/convert"
	"github.com/jkoski/spotcost-go/hours"
)

// ConsumptionValue is one normalized meter reading: canonical key plus
// energy in kWh. Not deduplicated, not sorted.
type ConsumptionValue struct {
	Key hours.Key
	KWh float64
}

type consumptionDocument struct {
	Months []monthBucket `json:"months"`
}

type monthBucket struct {
	HourlyValues       []rawReading `json:"hourly_values"`
	HourlyValuesNetted []rawReading `json:"hourly_values_netted"`
}

// Raw fields stay untyped: t is epoch millis or an ISO-8601 string, v is a
// number the meter may occasionally report as null or garbage. Bad readings
// are skipped per row instead of failing the whole document.
type rawReading struct {
	T json.RawMessage `json:"t"`
	V json.RawMessage `json:"v"`
}

// ParseConsumptionFeed reads the monthly-bucket meter reading document and
// normalizes every usable reading. Netted readings take precedence over raw
// readings within a month since they account for local production.
func ParseConsumptionFeed(r io.Reader, keyer hours.Keyer) (values []ConsumptionValue, skipped int, err error) {
	var doc consumptionDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, 0, fmt.Errorf("decoding consumption document: %w", err)
	}

	for _, month := range doc.Months {
		readings := month.HourlyValuesNetted
		if len(readings) == 0 {
			readings = month.HourlyValues
		}

		for _, reading := range readings {
			t, ok := parseInstant(reading.T)
			if !ok {
				skipped++
				continue
			}

			wh, ok := parseEnergy(reading.V)
			kWh := convert.WhToKWh(wh)
			if !ok || math.IsNaN(kWh) || math.IsInf(kWh, 0) {
				skipped++
				continue
			}

			values = append(values, ConsumptionValue{
				Key: keyer.FromTime(t),
				KWh: kWh,
			})
		}
	}

	return values, skipped, nil
}

// parseInstant accepts epoch milliseconds or a timezone-qualified ISO-8601
// string. Both carry enough information to pin an absolute instant.
func parseInstant(raw json.RawMessage) (time.Time, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return time.Time{}, false
	}

	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return time.Time{}, false
		}
		if t, err := time.Parse(time.RFC3339, str); err == nil {
			return t, true
		}
		return time.Time{}, false
	}

	millis, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(millis), true
}

func parseEnergy(raw json.RawMessage) (float64, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
