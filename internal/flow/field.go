package flow

import (
	"fmt"
	"math"
)

// Field evaluates one flow family. It holds no mutable state: a single
// Field may serve concurrent read-only callers.
type Field struct {
	spec Spec
	law  func(*Field, Vec2) Vec2
}

// velocityLaws dispatches the closed family set to its velocity law.
var velocityLaws = map[Family]func(*Field, Vec2) Vec2{
	FamilyRankineVortex: (*Field).rankineVelocity,
	FamilySingleVortex:  (*Field).singleVortexVelocity,
	FamilyDoubleGyre:    (*Field).doubleGyreVelocity,
}

// New builds a Field from a Spec. Construction fails fast on an
// unrecognized family or malformed parameters; nothing is defaulted.
func New(spec Spec) (*Field, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}
	return &Field{spec: spec, law: velocityLaws[spec.Family]}, nil
}

// Spec returns the immutable configuration the field was built from.
func (f *Field) Spec() Spec { return f.spec }

// VelocityAt returns the flow velocity at a Cartesian point, including
// the constant noise bias. Every law is finite at the center: the
// tangential families take the interior branch there rather than
// evaluating 0/0.
func (f *Field) VelocityAt(p Vec2) Vec2 {
	return f.law(f, p).Add(f.spec.Noise)
}

// PhaseStateOf maps a position to (radius, phase) about the configured
// center. Radius grows outward and phase grows counter-clockwise, the
// convention the approach controller assumes. The double gyre has no
// natural vortex center, so its phase state is the same polar surrogate
// about Spec.Center.
func (f *Field) PhaseStateOf(p Vec2) PhaseState {
	d := p.Sub(f.spec.Center)
	return PhaseState{
		Radius: d.Norm(),
		Phase:  math.Atan2(d.Y, d.X),
	}
}

// SampleGrid evaluates the field over a regular grid for visualization.
// Read-only and side-effect-free; no other contract.
func (f *Field) SampleGrid(bounds Rect, step float64) ([]Sample, error) {
	if step <= 0 {
		return nil, fmt.Errorf("%w: grid step must be positive, got %g", ErrBadParams, step)
	}
	if bounds.XMax < bounds.XMin || bounds.YMax < bounds.YMin {
		return nil, fmt.Errorf("%w: empty bounds", ErrBadParams)
	}

	nx := int((bounds.XMax-bounds.XMin)/step) + 1
	ny := int((bounds.YMax-bounds.YMin)/step) + 1
	samples := make([]Sample, 0, nx*ny)

	for iy := 0; iy < ny; iy++ {
		for ix := 0; ix < nx; ix++ {
			p := Vec2{
				X: bounds.XMin + float64(ix)*step,
				Y: bounds.YMin + float64(iy)*step,
			}
			samples = append(samples, Sample{Pos: p, Vel: f.VelocityAt(p)})
		}
	}
	return samples, nil
}

// rankineVelocity: tangential speed Gamma*r/(2*pi*a^2) inside the core,
// Gamma/(2*pi*r) outside, directed perpendicular to the radial vector.
// Positive Gamma circulates counter-clockwise.
func (f *Field) rankineVelocity(p Vec2) Vec2 {
	d := p.Sub(f.spec.Center)
	r := d.Norm()
	gamma, a := f.spec.Rankine.Gamma, f.spec.Rankine.CoreRadius

	var vt float64
	if r <= a {
		vt = gamma * r / (2 * math.Pi * a * a)
	} else {
		vt = gamma / (2 * math.Pi * r)
	}
	return tangential(d, r, vt)
}

// singleVortexVelocity: tangential speed from the configured profile,
// plus a radial drift -mu*r toward the center.
func (f *Field) singleVortexVelocity(p Vec2) Vec2 {
	d := p.Sub(f.spec.Center)
	r := d.Norm()
	v := tangential(d, r, f.spec.Single.Profile(r))

	if mu := f.spec.Single.Mu; mu != 0 && r > 0 {
		v = v.Add(d.Scale(-mu))
	}
	return v
}

// doubleGyreVelocity: u = -dpsi/dy, v = dpsi/dx for the stream function
// psi = A*sin(pi*x/s)*sin(pi*y/s) in center-relative coordinates, with
// the same -mu*r drift as the single vortex.
func (f *Field) doubleGyreVelocity(p Vec2) Vec2 {
	d := p.Sub(f.spec.Center)
	amp, s := f.spec.Gyre.Amplitude, f.spec.Gyre.Spacing
	k := math.Pi / s

	v := Vec2{
		X: -amp * k * math.Sin(k*d.X) * math.Cos(k*d.Y),
		Y: amp * k * math.Cos(k*d.X) * math.Sin(k*d.Y),
	}
	if mu := f.spec.Gyre.Mu; mu != 0 {
		v = v.Add(d.Scale(-mu))
	}
	return v
}

// tangential turns a tangential speed at center offset d into a velocity
// vector. At the exact center the angle is taken as zero, which keeps the
// value finite and matches the interior branch of every supported law.
func tangential(d Vec2, r, vt float64) Vec2 {
	if r == 0 {
		return Vec2{X: 0, Y: vt}
	}
	return Vec2{X: -vt * d.Y / r, Y: vt * d.X / r}
}
