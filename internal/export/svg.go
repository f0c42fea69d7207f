// Package export renders recorded trajectories as standalone SVG documents.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/iontrim/internal/sim"
	"github.com/san-kum/iontrim/internal/transport"
	"github.com/san-kum/iontrim/internal/viz"
)

// OutcomeColors maps each terminal outcome to a stroke color.
var OutcomeColors = map[transport.Outcome]string{
	transport.StoppedInside: "#00ff88",
	transport.Backscattered: "#ff4444",
	transport.Transmitted:   "#00ccff",
	transport.Anomalous:     "#ffaa00",
}

const header = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`

// CanvasToSVG draws every lit braille dot of canvas as a circle.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}
	w := int(float64(canvas.Width) * scale * 2)
	h := int(float64(canvas.Height) * scale * 4)

	var sb strings.Builder
	fmt.Fprintf(&sb, header, w, h, w, h)
	sb.WriteString(`<g fill="#00ff88">` + "\n")

	r := scale * 0.4
	for row := range canvas.Grid {
		for col, ch := range canvas.Grid[row] {
			bits := int(ch - 0x2800)
			if bits <= 0 {
				continue
			}
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if bits&viz.PixelBit(dx, dy) == 0 {
						continue
					}
					cx := (float64(col*2+dx) + 0.5) * scale
					cy := (float64(row*4+dy) + 0.5) * scale
					fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, r)
				}
			}
		}
	}

	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

// TrajectoriesToSVG projects recorded paths onto the x-z plane with depth
// increasing downward. Each path is stroked in the color of its outcome.
func TrajectoriesToSVG(trajs []sim.Trajectory, width, height int) string {
	xmin, xmax := math.Inf(1), math.Inf(-1)
	zmin, zmax := math.Inf(1), math.Inf(-1)
	for _, t := range trajs {
		for _, p := range t.Points {
			xmin, xmax = min(xmin, p.Position[0]), max(xmax, p.Position[0])
			zmin, zmax = min(zmin, p.Position[2]), max(zmax, p.Position[2])
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, header, width, height, width, height)
	if math.IsInf(xmin, 1) {
		sb.WriteString("</svg>\n")
		return sb.String()
	}

	// 5% padding on each side, one scale for both axes
	w, h := float64(width)*0.9, float64(height)*0.9
	scale := min(w/max(xmax-xmin, 1e-9), h/max(zmax-zmin, 1e-9))
	ox := float64(width)/2 - (xmin+xmax)/2*scale
	oz := float64(height)*0.05 - zmin*scale

	for _, t := range trajs {
		if len(t.Points) < 2 {
			continue
		}
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="0.8" stroke-opacity="0.7" d="`, OutcomeColors[t.Outcome])
		for i, p := range t.Points {
			cmd := " L"
			if i == 0 {
				cmd = "M"
			}
			fmt.Fprintf(&sb, "%s%.1f,%.1f", cmd, ox+p.Position[0]*scale, oz+p.Position[2]*scale)
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}
