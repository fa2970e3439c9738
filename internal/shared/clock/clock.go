package clock

import "time"

// Clock abstracts "now" so workflow decisions (current year, monthly caps,
// submission timestamps) are deterministic under test.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// System returns the wall-clock implementation used in production wiring.
func System() Clock { return systemClock{} }

// Fixed returns a clock frozen at t. Test helper.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time { return f.T }
