package viz

import (
	"math"
	"strings"

	"github.com/san-kum/gyresim/internal/flow"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a braille-pixel grid with a world-coordinate mapping, so
// callers plot in meters and the canvas handles the projection.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
	bounds        flow.Rect
}

func NewCanvas(w, h int, bounds flow.Rect) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		bounds: bounds,
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800 // Empty braille char
		}
	}
	return c
}

// project maps a world position onto sub-pixel coordinates. The
// sub-pixel plane is (Width*2) x (Height*4), y flipped so world-up is
// screen-up.
func (c *Canvas) project(p flow.Vec2) (int, int) {
	sw := float64(c.Width * 2)
	sh := float64(c.Height * 4)
	fx := (p.X - c.bounds.XMin) / (c.bounds.XMax - c.bounds.XMin)
	fy := (p.Y - c.bounds.YMin) / (c.bounds.YMax - c.bounds.YMin)
	return int(fx * (sw - 1)), int((1 - fy) * (sh - 1))
}

func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// Plot sets the pixel nearest to a world position.
func (c *Canvas) Plot(p flow.Vec2) {
	x, y := c.project(p)
	c.Set(x, y)
}

// Mark overwrites the cell under a world position with a plain rune,
// which reads better than braille for single-agent markers.
func (c *Canvas) Mark(p flow.Vec2, r rune) {
	x, y := c.project(p)
	if x < 0 || y < 0 {
		return
	}
	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] = r
}

// Circle plots a world-space circle, used for orbit radius rings.
func (c *Canvas) Circle(center flow.Vec2, radius float64) {
	if radius <= 0 {
		return
	}
	steps := 8 * (c.Width + c.Height)
	for i := 0; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / float64(steps)
		c.Plot(flow.Vec2{
			X: center.X + radius*math.Cos(a),
			Y: center.Y + radius*math.Sin(a),
		})
	}
}

// Line draws a world-space segment using Bresenham's algorithm.
func (c *Canvas) Line(a, b flow.Vec2) {
	x0, y0 := c.project(a)
	x1, y1 := c.project(b)
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Clear resets the canvas
func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
