package domain

import "github.com/jonboulle/clockwork"

// clock is a package-level time source so tests can freeze time via SetClock.
// The standardizer stamps ProcessedAt from it; tests inject a fake clock for
// reproducible output.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source used for ProcessedAt stamps. Pass nil to
// reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
