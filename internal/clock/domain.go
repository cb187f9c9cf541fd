// Package clock implements domain-tagged timestamps and domain-free
// durations at microsecond resolution.
package clock

// Domain is a compile-time tag identifying a clock. Cross-domain
// Timestamp arithmetic is rejected at compile time because Timestamp is
// parameterized by Domain.
type Domain interface {
	domainTag()
}

// Local is the compute module's monotonic wall clock.
type Local struct{}

func (Local) domainTag() {}

// Odometry is the MCB's clock, as reported inside odometry messages.
type Odometry struct{}

func (Odometry) domainTag() {}
