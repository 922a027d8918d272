package hours

import (
	"fmt"
	"time"
)

const (
	wallClockLayout = "2006-01-02T15:04:05"
	keyLayout       = "2006-01-02T15:04:05-0700"

	DefaultZone   = "Europe/Helsinki"
	DefaultSuffix = "+0200"
)

// Key is the canonical hourly join key: wall-clock time in a fixed zone with
// a literal UTC-offset suffix, e.g. "2024-01-01T00:00:00+0200". Consumption
// and price rows only match when both were keyed by the same Keyer.
type Key string

func (k Key) String() string {
	return string(k)
}

func (k Key) IsZero() bool {
	return k == ""
}

// Date returns the "YYYY-MM-DD" part of the key.
func (k Key) Date() string {
	if len(k) < 10 {
		return ""
	}
	return string(k[:10])
}

// Hour returns the hour-of-day encoded in the key, or -1 for a malformed key.
func (k Key) Hour() int {
	t, err := k.Instant()
	if err != nil {
		return -1
	}
	return t.Hour()
}

// Instant parses the key back into an absolute point in time.
func (k Key) Instant() (time.Time, error) {
	t, err := time.Parse(keyLayout, string(k))
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing key %q: %w", string(k), err)
	}
	return t, nil
}

// Compare orders keys as instants. The suffix is constant within one feed so
// this coincides with string order, but we don't rely on that.
func (k Key) Compare(other Key) int {
	a, errA := k.Instant()
	b, errB := other.Instant()
	if errA != nil || errB != nil {
		switch {
		case k < other:
			return -1
		case k > other:
			return 1
		default:
			return 0
		}
	}
	return a.Compare(b)
}

// Keyer derives canonical keys from absolute instants. The wall clock is
// taken in a fixed IANA zone and the suffix is a fixed literal. That matches
// the upstream convention: during DST the suffix is wrong for half the year,
// but both feeds are wrong the same way, which is what makes the join work.
type Keyer struct {
	loc    *time.Location
	suffix string
}

func NewKeyer(zone, suffix string) (Keyer, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return Keyer{}, fmt.Errorf("loading timezone %s: %w", zone, err)
	}
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return Keyer{loc: loc, suffix: suffix}, nil
}

func MustKeyer(zone, suffix string) Keyer {
	k, err := NewKeyer(zone, suffix)
	if err != nil {
		panic(err)
	}
	return k
}

func (k Keyer) FromTime(t time.Time) Key {
	return Key(t.In(k.loc).Format(wallClockLayout) + k.suffix)
}

// FromWallClock keys a civil datetime string that is already expressed in the
// keyer's zone, e.g. "2024-01-01 00:00:00" from the price feed.
func (k Keyer) FromWallClock(s string) (Key, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04:05", s, k.loc)
	if err != nil {
		// Some feeds use the ISO "T" separator instead.
		t, err = time.ParseInLocation(wallClockLayout, s, k.loc)
		if err != nil {
			return "", fmt.Errorf("parsing wall-clock time %q: %w", s, err)
		}
	}
	return k.FromTime(t), nil
}
