package clock

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Duration is a signed count of microseconds, independent of any clock
// domain.
type Duration int64

const (
	Microsecond Duration = 1
	Millisecond          = 1000 * Microsecond
	Second               = 1000 * Millisecond
	Minute               = 60 * Second
)

// Plus returns d+o.
func (d Duration) Plus(o Duration) Duration { return d + o }

// Minus returns d-o.
func (d Duration) Minus(o Duration) Duration { return d - o }

// Scale returns d multiplied by a floating-point factor.
func (d Duration) Scale(factor float64) Duration {
	return Duration(math.Round(float64(d) * factor))
}

// Abs returns the absolute value of d.
func (d Duration) Abs() Duration {
	if d < 0 {
		return -d
	}
	return d
}

// Seconds returns d expressed as a floating-point number of seconds.
func (d Duration) Seconds() float64 {
	return float64(d) / float64(Second)
}

// Hz returns the frequency whose period is d. A zero duration maps to
// positive infinity.
func (d Duration) Hz() float64 {
	if d == 0 {
		return math.Inf(1)
	}
	return 1.0 / d.Seconds()
}

// String renders d in the largest whole unit that divides it evenly,
// falling back to microseconds.
func (d Duration) String() string {
	switch {
	case d != 0 && d%Minute == 0:
		return fmt.Sprintf("%d m", int64(d/Minute))
	case d != 0 && d%Second == 0:
		return fmt.Sprintf("%d s", int64(d/Second))
	case d != 0 && d%Millisecond == 0:
		return fmt.Sprintf("%d ms", int64(d/Millisecond))
	default:
		return fmt.Sprintf("%d us", int64(d))
	}
}

var durationSuffixes = []struct {
	suffix string
	unit   Duration
}{
	{"us", Microsecond},
	{"ms", Millisecond},
	{"s", Second},
	{"m", Minute},
}

// ParseDuration parses strings with suffixes us|ms|s|m. Only whole
// microseconds are accepted for the "us" suffix; the other suffixes accept
// fractional values.
func ParseDuration(s string) (Duration, error) {
	trimmed := strings.TrimSpace(s)
	for _, entry := range durationSuffixes {
		if !strings.HasSuffix(trimmed, entry.suffix) {
			continue
		}
		numeric := strings.TrimSpace(strings.TrimSuffix(trimmed, entry.suffix))
		if numeric == "" {
			continue
		}
		if entry.unit == Microsecond {
			n, err := strconv.ParseInt(numeric, 10, 64)
			if err != nil {
				return 0, fmt.Errorf("clock: invalid microsecond duration %q: %w", s, err)
			}
			return Duration(n), nil
		}
		f, err := strconv.ParseFloat(numeric, 64)
		if err != nil {
			return 0, fmt.Errorf("clock: invalid duration %q: %w", s, err)
		}
		return Duration(f * float64(entry.unit)), nil
	}
	return 0, fmt.Errorf("clock: duration %q missing required suffix (us|ms|s|m)", s)
}
