// Package flow models planar gyre and vortex velocity fields.
//
// A [Spec] selects one of a closed set of flow families and carries its
// parameters:
//
//   - [FamilyRankineVortex]: solid-body rotation inside the core radius,
//     potential-flow decay outside
//   - [FamilySingleVortex]: tangential speed from a caller-supplied
//     profile of radius, with an optional radial drift
//   - [FamilyDoubleGyre]: stream-function derived counter-rotating cells
//
// A [Field] built from a Spec answers two queries: the background velocity
// at a point, and the point's phase state (radius and angle about the flow
// center) used by the approach controller. Fields are immutable after
// construction and safe for concurrent readers.
package flow
