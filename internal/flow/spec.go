package flow

import (
	"errors"
	"fmt"
	"math"
)

// Domain errors for field construction and evaluation.
var (
	// ErrUnknownFamily indicates a flow family name outside the closed set.
	ErrUnknownFamily = errors.New("flow: unknown flow family")

	// ErrBadParams indicates family parameters that cannot describe a field.
	ErrBadParams = errors.New("flow: invalid family parameters")

	// ErrSingularField indicates a velocity law with no finite value at the
	// flow center.
	ErrSingularField = errors.New("flow: velocity law singular at zero radius")
)

// Family identifies one of the supported flow families.
type Family int

const (
	FamilyRankineVortex Family = iota
	FamilySingleVortex
	FamilyDoubleGyre
)

func (f Family) String() string {
	switch f {
	case FamilyRankineVortex:
		return "rankine_vortex"
	case FamilySingleVortex:
		return "single_vortex"
	case FamilyDoubleGyre:
		return "double_gyre"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

// ParseFamily maps a family name to its Family value. Unrecognized names
// are a fatal configuration error for the caller.
func ParseFamily(name string) (Family, error) {
	switch name {
	case "rankine_vortex", "rankine":
		return FamilyRankineVortex, nil
	case "single_vortex", "vortex":
		return FamilySingleVortex, nil
	case "double_gyre", "doublegyre":
		return FamilyDoubleGyre, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFamily, name)
	}
}

// RankineParams describes a Rankine vortex: solid-body rotation with
// circulation Gamma inside CoreRadius, irrotational decay outside.
type RankineParams struct {
	Gamma      float64
	CoreRadius float64
}

// Profile maps a radius to a tangential speed.
type Profile func(r float64) float64

// SingleVortexParams describes a generic vortex whose tangential speed
// comes from an arbitrary profile of radius. Mu adds a radial drift
// toward the center (spiral sink), v_r = -Mu*r.
type SingleVortexParams struct {
	Profile Profile
	Mu      float64
}

// DoubleGyreParams describes two counter-rotating cells derived from the
// stream function psi = A*sin(pi*x/s)*sin(pi*y/s) about the center.
type DoubleGyreParams struct {
	Amplitude float64
	Spacing   float64
	Mu        float64
}

// Spec is the immutable configuration of a flow field. Exactly the
// parameter record matching Family is consulted; Center and Noise apply
// to every family. Noise is a constant per-run velocity bias, not a
// resampled disturbance.
type Spec struct {
	Family Family
	Center Vec2
	Noise  Vec2

	Rankine RankineParams
	Single  SingleVortexParams
	Gyre    DoubleGyreParams
}

// RankineProfile returns the tangential speed profile of a Rankine vortex,
// for use as a SingleVortexParams.Profile.
func RankineProfile(gamma, coreRadius float64) Profile {
	return func(r float64) float64 {
		if r <= coreRadius {
			return gamma * r / (2 * math.Pi * coreRadius * coreRadius)
		}
		return gamma / (2 * math.Pi * r)
	}
}

func (s Spec) validate() error {
	if !isFinite(s.Center.X) || !isFinite(s.Center.Y) {
		return fmt.Errorf("%w: non-finite center", ErrBadParams)
	}
	if !isFinite(s.Noise.X) || !isFinite(s.Noise.Y) {
		return fmt.Errorf("%w: non-finite noise", ErrBadParams)
	}

	switch s.Family {
	case FamilyRankineVortex:
		if s.Rankine.CoreRadius <= 0 {
			return fmt.Errorf("%w: rankine core radius must be positive, got %g", ErrBadParams, s.Rankine.CoreRadius)
		}
		if !isFinite(s.Rankine.Gamma) {
			return fmt.Errorf("%w: non-finite circulation", ErrBadParams)
		}
	case FamilySingleVortex:
		if s.Single.Profile == nil {
			return fmt.Errorf("%w: single vortex requires a tangential speed profile", ErrBadParams)
		}
		if s.Single.Mu < 0 || !isFinite(s.Single.Mu) {
			return fmt.Errorf("%w: mu must be finite and non-negative, got %g", ErrBadParams, s.Single.Mu)
		}
		// The law must have a finite value at the center; a profile that
		// diverges there cannot be patched at runtime.
		if v := s.Single.Profile(0); !isFinite(v) {
			return fmt.Errorf("%w: profile(0) = %g", ErrSingularField, v)
		}
	case FamilyDoubleGyre:
		if s.Gyre.Spacing <= 0 {
			return fmt.Errorf("%w: gyre spacing must be positive, got %g", ErrBadParams, s.Gyre.Spacing)
		}
		if !isFinite(s.Gyre.Amplitude) {
			return fmt.Errorf("%w: non-finite gyre amplitude", ErrBadParams)
		}
		if s.Gyre.Mu < 0 || !isFinite(s.Gyre.Mu) {
			return fmt.Errorf("%w: mu must be finite and non-negative, got %g", ErrBadParams, s.Gyre.Mu)
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnknownFamily, int(s.Family))
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
