package flow

import "math"

// Vec2 is a planar vector.
type Vec2 struct {
	X, Y float64
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v.X + o.X, v.Y + o.Y}
}

func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{v.X - o.X, v.Y - o.Y}
}

func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

func (v Vec2) Norm() float64 {
	return math.Hypot(v.X, v.Y)
}

// PhaseState is the polar representation of a position relative to a
// flow center: radius increasing outward, phase increasing
// counter-clockwise in (-pi, pi]. It is derived per query, never stored.
type PhaseState struct {
	Radius float64
	Phase  float64
}

// Rect is an axis-aligned bounding box for field sampling.
type Rect struct {
	XMin, XMax, YMin, YMax float64
}

// Sample is one grid point of a sampled field.
type Sample struct {
	Pos Vec2
	Vel Vec2
}
