// Package ticks provides overflow-safe arithmetic over a wrapping 32-bit
// millisecond counter, matching the tick counter exposed by small
// controller firmware (wraps to zero after ~49.7 days at 1 kHz).
//
// All comparisons rely on unsigned modular subtraction: (now - start) is
// the true elapsed time as long as no more than one wrap occurred between
// the two samples. Callers must never compare Millis values with < or >
// directly.
package ticks

import "time"

// Millis is a wrapping millisecond timestamp.
type Millis uint32

// Source returns the current wrapping millisecond counter.
// It is injectable so components can be tested deterministically.
type Source func() Millis

// SystemSource returns a Source backed by the monotonic clock, counting
// milliseconds since the source was created. The counter wraps naturally
// at 2^32 via the Millis conversion.
func SystemSource() Source {
	start := time.Now()
	return func() Millis {
		return Millis(time.Since(start) / time.Millisecond)
	}
}

// Since returns the elapsed time from start to now, modulo 2^32.
// Correct even when now has wrapped past zero since start was sampled.
func Since(start, now Millis) Millis {
	return now - start
}

// HasElapsed reports whether at least interval milliseconds have passed
// between start and now. An interval of 0 is always elapsed.
func HasElapsed(start, now, interval Millis) bool {
	return now-start >= interval
}

// WithinWindow reports whether now is strictly less than windowMs after ts.
func WithinWindow(ts, now, windowMs Millis) bool {
	return now-ts < windowMs
}
