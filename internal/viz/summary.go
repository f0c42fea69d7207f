package viz

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/iontrim/internal/config"
	"github.com/san-kum/iontrim/internal/sim"
	"github.com/san-kum/iontrim/internal/stats"
)

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, MetricLabel.Render(label), MetricValue.Render(value))
}

func countRow(label string, n int, r *sim.Results) string {
	return row(label, fmt.Sprintf("%d (%.1f%%)", n, 100*r.Fraction(n)))
}

// RenderSummary formats the outcome counts and range statistics of a run.
func RenderSummary(cfg *config.Config, r *sim.Results) string {
	lines := []string{
		Title.Render("Ion transport summary"),
		"",
	}
	if cfg != nil {
		lines = append(lines,
			row("projectile", fmt.Sprintf("Z=%g M=%g amu", cfg.ProjectileZ, cfg.ProjectileM)),
			row("target", fmt.Sprintf("Z=%g M=%g amu, %g at/A^3", cfg.TargetZ, cfg.TargetM, cfg.Density)),
			row("energy", fmt.Sprintf("%.1f keV", cfg.InitialEnergy/1000)),
			row("geometry", cfg.GeometryType),
			"",
		)
	}

	ions := fmt.Sprintf("%d", r.TotalIons)
	if r.Canceled {
		ions += StatusStopped.Render(fmt.Sprintf(" of %d (stopped early)", r.Requested))
	}
	lines = append(lines,
		row("ions", ions),
		countRow("stopped", r.Stopped, r),
		countRow("backscattered", r.Backscattered, r),
		countRow("transmitted", r.Transmitted, r),
	)
	if r.Anomalous > 0 {
		lines = append(lines, Warning.Render(fmt.Sprintf("%d ions abandoned (numerical guard)", r.Anomalous)))
	}

	s := r.Stats
	lines = append(lines,
		"",
		row("mean depth", fmt.Sprintf("%.1f A", s.Z.Mean)),
		row("straggle", fmt.Sprintf("%.1f A", s.Z.Std)),
		row("lateral x/y", fmt.Sprintf("%.1f / %.1f A", s.X.Std, s.Y.Std)),
		row("radial", fmt.Sprintf("%.1f +- %.1f A", s.R.Mean, s.R.Std)),
	)

	if d := r.Damage; d != nil {
		lines = append(lines,
			"",
			row("vacancies", fmt.Sprintf("%d (%.1f per ion)", d.Vacancies, perIon(d.Vacancies, r.TotalIons))),
			row("recoils", fmt.Sprintf("%d", d.RecoilEvents)),
			row("deposited", fmt.Sprintf("%.1f keV", d.Deposited/1000)),
		)
	}

	if depths := r.Depths(); len(depths) > 0 {
		h := stats.DepthHistogram(depths, 32)
		lines = append(lines, "", row("depth profile", Sparkline(h.Counts, 32)))
	}

	lines = append(lines, Separator(48), KeyHint.Render(fmt.Sprintf("elapsed %s", r.Elapsed.Round(time.Millisecond))))
	return Panel.Render(strings.Join(lines, "\n"))
}

func perIon(n, ions int) float64 {
	if ions == 0 {
		return 0
	}
	return float64(n) / float64(ions)
}

// DepthProfile plots a depth histogram. The x axis runs over bins from the
// shallowest to the deepest edge.
func DepthProfile(h stats.Histogram, width, height int) string {
	if len(h.Counts) == 0 || h.Total() == 0 {
		return Subtle.Render("no stopped ions")
	}
	caption := fmt.Sprintf("depth %.0f-%.0f A, %d bins", h.Edges[0], h.Edges[len(h.Edges)-1], len(h.Counts))
	return asciigraph.Plot(h.Counts,
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.Caption(caption),
	)
}
