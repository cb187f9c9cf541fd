package clock

// Timestamp is an integer microsecond count within domain D. Arithmetic
// that would mix two domains is rejected at compile time because D is a
// type parameter.
type Timestamp[D Domain] struct {
	Micros int64
}

// New builds a Timestamp from a raw microsecond count.
func New[D Domain](micros int64) Timestamp[D] {
	return Timestamp[D]{Micros: micros}
}

// Plus returns t advanced by d.
func (t Timestamp[D]) Plus(d Duration) Timestamp[D] {
	return Timestamp[D]{Micros: t.Micros + int64(d)}
}

// Minus returns t set back by d.
func (t Timestamp[D]) Minus(d Duration) Timestamp[D] {
	return Timestamp[D]{Micros: t.Micros - int64(d)}
}

// Diff returns the signed Duration from o to t (t - o).
func (t Timestamp[D]) Diff(o Timestamp[D]) Duration {
	return Duration(t.Micros - o.Micros)
}

// Before reports whether t is strictly earlier than o.
func (t Timestamp[D]) Before(o Timestamp[D]) bool { return t.Micros < o.Micros }

// After reports whether t is strictly later than o.
func (t Timestamp[D]) After(o Timestamp[D]) bool { return t.Micros > o.Micros }

// Equal reports whether t and o denote the same instant.
func (t Timestamp[D]) Equal(o Timestamp[D]) bool { return t.Micros == o.Micros }
