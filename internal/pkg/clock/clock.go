package clock

import "time"

// Clock abstracts time so callers can replace real time in tests.
type Clock interface {
	Now() time.Time
}

type system struct{}

// System returns the production clock backed by time.Now.
func System() Clock { return system{} }

func (system) Now() time.Time { return time.Now().UTC() }

// Fixed is a settable clock for tests.
type Fixed struct{ T time.Time }

func (f *Fixed) Now() time.Time { return f.T }

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) { f.T = f.T.Add(d) }
