package features

import (
	"time"
)

// rollingWindow maintains a left-closed right-open calendar window
// [date[i]-days, date[i]) over a date-ascending slice using two pointers.
// The right edge always excludes the current index, so the current row's
// own values never feed its features. Advance must be called with
// non-decreasing i; the whole sweep is O(n).
type rollingWindow struct {
	days    int
	dates   []time.Time
	lo, hi  int
	onAdd   func(j int)
	onEvict func(j int)
}

func newRollingWindow(days int, dates []time.Time, onAdd, onEvict func(j int)) *rollingWindow {
	return &rollingWindow{days: days, dates: dates, onAdd: onAdd, onEvict: onEvict}
}

// Advance moves the window so it covers exactly the events strictly before
// index i whose date falls within [dates[i]-days, dates[i]).
func (w *rollingWindow) Advance(i int) {
	for w.hi < i {
		w.onAdd(w.hi)
		w.hi++
	}
	cutoff := w.dates[i].AddDate(0, 0, -w.days)
	for w.lo < w.hi && w.dates[w.lo].Before(cutoff) {
		w.onEvict(w.lo)
		w.lo++
	}
}
