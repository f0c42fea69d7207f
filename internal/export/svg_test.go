package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/san-kum/iontrim/internal/sim"
	"github.com/san-kum/iontrim/internal/trajectory"
	"github.com/san-kum/iontrim/internal/transport"
	"github.com/san-kum/iontrim/internal/viz"
)

func TestCanvasToSVG(t *testing.T) {
	assert.Empty(t, CanvasToSVG(nil, 2))

	c := viz.NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	out := CanvasToSVG(c, 2)

	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Equal(t, 2, strings.Count(out, "<circle"))
	assert.Contains(t, out, `cx="1.0" cy="1.0"`)
	assert.Contains(t, out, `cx="7.0" cy="7.0"`)
}

func TestTrajectoriesToSVG(t *testing.T) {
	trajs := []sim.Trajectory{
		{
			Outcome: transport.StoppedInside,
			Points: []trajectory.TracePoint{
				{Position: sim.Vec3{0, 0, 0}},
				{Position: sim.Vec3{10, 0, 100}},
			},
		},
		{
			Outcome: transport.Backscattered,
			Points: []trajectory.TracePoint{
				{Position: sim.Vec3{0, 0, 0}},
				{Position: sim.Vec3{-10, 0, 30}},
				{Position: sim.Vec3{-20, 0, 0}},
			},
		},
		{Outcome: transport.Transmitted, Points: []trajectory.TracePoint{{}}},
	}

	out := TrajectoriesToSVG(trajs, 200, 200)
	assert.Equal(t, 2, strings.Count(out, "<path"))
	assert.Contains(t, out, OutcomeColors[transport.StoppedInside])
	assert.Contains(t, out, OutcomeColors[transport.Backscattered])
	assert.NotContains(t, out, OutcomeColors[transport.Transmitted])
	assert.True(t, strings.HasSuffix(out, "</svg>\n"))

	empty := TrajectoriesToSVG(nil, 100, 50)
	assert.NotContains(t, empty, "<path")
	assert.Contains(t, empty, `width="100" height="50"`)
}
