package clock

import "testing"

func TestParseDurationRoundTrip(t *testing.T) {
	cases := []string{"1500 us", "1 ms", "1 s", "1 m"}
	for _, c := range cases {
		t.Run(c, func(t *testing.T) {
			d, err := ParseDuration(c)
			if err != nil {
				t.Fatalf("ParseDuration(%q): %v", c, err)
			}
			if got := d.String(); got != c {
				t.Fatalf("round trip %q -> %v -> %q", c, d, got)
			}
		})
	}
}

func TestParseDurationNoSuffix(t *testing.T) {
	if _, err := ParseDuration("100"); err == nil {
		t.Fatalf("expected error for missing suffix")
	}
}

func TestParseDurationFractionalMicrosecondsRejected(t *testing.T) {
	if _, err := ParseDuration("1.5 us"); err == nil {
		t.Fatalf("expected error for fractional microseconds")
	}
}

func TestDurationHzZero(t *testing.T) {
	d := Duration(0)
	if !isInf(d.Hz()) {
		t.Fatalf("expected +Inf for zero duration, got %v", d.Hz())
	}
}

func isInf(f float64) bool {
	return f > 1e300
}

func TestDurationScaleAndAbs(t *testing.T) {
	d := Duration(-10 * int64(Millisecond))
	if d.Abs() != 10*Millisecond {
		t.Fatalf("Abs: got %v", d.Abs())
	}
	if d.Scale(2).Abs() != 20*Millisecond {
		t.Fatalf("Scale: got %v", d.Scale(2))
	}
}
