package core

import "math"

// Duration is simulated time in seconds.
type Duration = float64

// Returns the larger of two durations
func MaxDuration(d1 Duration, d2 Duration) Duration {
	if d1 >= d2 {
		return d1
	}
	return d2
}

// IsPositive reports whether v is a finite number strictly greater than zero.
func IsPositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// SafeDiv returns num/den, or NaN when den is zero.
// A zero denominator means there was nothing to measure, which is reported as
// "undefined" rather than as an error.
func SafeDiv(num, den float64) float64 {
	if den == 0 {
		return math.NaN()
	}
	return num / den
}

// Helper for float comparison
func approxEqualTest(a, b, tolerance float64) bool {
	if a == b {
		return true
	} // Handle exact equality
	return math.Abs(a-b) < tolerance
}
