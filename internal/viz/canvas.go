package viz

import (
	"math"
	"strings"

	"github.com/san-kum/iontrim/internal/sim"
)

// Braille cells hold 2x4 dots:
//
//	1 4
//	2 5
//	3 6
//	7 8
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

// PixelBit returns the braille bit of dot (dx, dy) within a cell.
func PixelBit(dx, dy int) int { return pixelMap[dy][dx] }

// Canvas is a braille dot grid of (Width*2) x (Height*4) pixels.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights the pixel at (x, y). Out-of-range pixels are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
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

// TrajectoryPlot projects recorded paths onto the x-z plane, depth running
// down the canvas.
func TrajectoryPlot(trajs []sim.Trajectory, width, height int) string {
	c := NewCanvas(width, height)

	xmin, xmax := math.Inf(1), math.Inf(-1)
	zmin, zmax := math.Inf(1), math.Inf(-1)
	for _, t := range trajs {
		for _, p := range t.Points {
			xmin, xmax = min(xmin, p.Position[0]), max(xmax, p.Position[0])
			zmin, zmax = min(zmin, p.Position[2]), max(zmax, p.Position[2])
		}
	}
	if math.IsInf(xmin, 1) {
		return c.String()
	}

	// one scale for both axes
	pw, ph := float64(width*2-1), float64(height*4-1)
	span := max(xmax-xmin, (zmax-zmin)*pw/ph, 1e-9)
	scale := pw / span
	xmid := (xmin + xmax) / 2

	px := func(x float64) int { return int(math.Round(pw/2 + (x-xmid)*scale)) }
	pz := func(z float64) int { return int(math.Round((z - zmin) * scale)) }

	for _, t := range trajs {
		for i := 1; i < len(t.Points); i++ {
			a, b := t.Points[i-1].Position, t.Points[i].Position
			c.DrawLine(px(a[0]), pz(a[2]), px(b[0]), pz(b[2]))
		}
		if len(t.Points) == 1 {
			p := t.Points[0].Position
			c.Set(px(p[0]), pz(p[2]))
		}
	}
	return c.String()
}
