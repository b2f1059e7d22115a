package viz

import (
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/gyresim/internal/angle"
	"github.com/san-kum/gyresim/internal/flow"
	"github.com/san-kum/gyresim/internal/swimmer"
)

// ErrorTraces reduces a pair of trajectories to per-step radius and
// phase error magnitudes about a flow center. Trajectories of unequal
// length are truncated to the shorter one.
func ErrorTraces(center flow.Vec2, mobile, target []swimmer.Sample) (radius, phase []float64) {
	n := len(mobile)
	if len(target) < n {
		n = len(target)
	}
	radius = make([]float64, 0, n)
	phase = make([]float64, 0, n)
	for i := 0; i < n; i++ {
		mob := flow.Vec2{X: mobile[i].Pose.X, Y: mobile[i].Pose.Y}.Sub(center)
		targ := flow.Vec2{X: target[i].Pose.X, Y: target[i].Pose.Y}.Sub(center)
		radius = append(radius, math.Abs(targ.Norm()-mob.Norm()))
		phase = append(phase, math.Abs(angle.Diff(
			math.Atan2(targ.Y, targ.X), math.Atan2(mob.Y, mob.X))))
	}
	return radius, phase
}

// RenderTraces plots both error traces as stacked ASCII charts,
// downsampled to the terminal width.
func RenderTraces(radius, phase []float64, width int) string {
	if width < 20 {
		width = 20
	}
	var b strings.Builder
	if len(radius) > 1 {
		b.WriteString(asciigraph.Plot(downsample(radius, width),
			asciigraph.Height(8), asciigraph.Width(width), asciigraph.Caption("|radius err| (m)")))
		b.WriteString("\n\n")
	}
	if len(phase) > 1 {
		b.WriteString(asciigraph.Plot(downsample(phase, width),
			asciigraph.Height(8), asciigraph.Width(width), asciigraph.Caption("|phase err| (rad)")))
		b.WriteString("\n")
	}
	return b.String()
}

func downsample(series []float64, width int) []float64 {
	if len(series) <= width {
		return series
	}
	out := make([]float64, 0, width)
	stride := float64(len(series)) / float64(width)
	for i := 0; i < width; i++ {
		out = append(out, series[int(float64(i)*stride)])
	}
	return out
}
