// Package angle provides angular arithmetic on the principal range.
//
// Every phase comparison in the controller goes through [WrapToPi], so the
// wrapping convention is fixed here once: results live in the half-open
// interval (-pi, pi], and a difference of exactly pi wraps to +pi.
package angle

import "math"

// WrapToPi returns the representative of a in (-pi, pi].
// Built on math.Mod so it does not drift for inputs far outside the
// principal range.
func WrapToPi(a float64) float64 {
	w := math.Mod(math.Pi-a, 2*math.Pi)
	if w < 0 {
		w += 2 * math.Pi
	}
	return math.Pi - w
}

// WrapTo2Pi returns the representative of a in [0, 2*pi).
func WrapTo2Pi(a float64) float64 {
	w := math.Mod(a, 2*math.Pi)
	if w < 0 {
		w += 2 * math.Pi
	}
	return w
}

// Diff returns the wrapped difference a-b in (-pi, pi].
func Diff(a, b float64) float64 {
	return WrapToPi(a - b)
}
