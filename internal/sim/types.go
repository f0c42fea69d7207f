package sim

import (
	"time"

	"github.com/san-kum/iontrim/internal/damage"
	"github.com/san-kum/iontrim/internal/stats"
	"github.com/san-kum/iontrim/internal/trajectory"
	"github.com/san-kum/iontrim/internal/transport"
)

type Vec3 = transport.Vec3

// Options controls one ensemble run.
type Options struct {
	Ions               int
	RecordTrajectories bool
	// MaxRecorded bounds traces to the first MaxRecorded ions.
	MaxRecorded int
	// Workers <= 1 runs sequentially.
	Workers int
	Seed    uint64
	// Progress is called after every completed ion. Calls never overlap.
	Progress func(done, total int)
	// Damage enables a DamageRecorder when non-nil.
	Damage *damage.Config
}

func (o Options) Validate() error {
	if o.Ions < 0 {
		return transport.NewConfigError("ion_count", o.Ions, "must be non-negative")
	}
	if o.MaxRecorded < 0 {
		return transport.NewConfigError("max_recorded", o.MaxRecorded, "must be non-negative")
	}
	if o.Workers < 0 {
		return transport.NewConfigError("workers", o.Workers, "must be non-negative")
	}
	if o.Damage != nil {
		return o.Damage.Validate()
	}
	return nil
}

func (o Options) records(ion int) bool {
	return o.RecordTrajectories && ion < o.MaxRecorded
}

// Trajectory is a recorded ion path.
type Trajectory struct {
	Ion     int                     `json:"ion"`
	Outcome transport.Outcome       `json:"outcome"`
	Points  []trajectory.TracePoint `json:"points"`
}

// Results are the finalized outputs of a run.
type Results struct {
	Requested     int `json:"requested"`
	TotalIons     int `json:"total_ions"`
	Stopped       int `json:"stopped_count"`
	Backscattered int `json:"backscattered_count"`
	Transmitted   int `json:"transmitted_count"`
	Anomalous     int `json:"anomalous_count"`

	// Stats covers stopped ions only.
	Stats            stats.Summary `json:"stats"`
	StoppedPositions []Vec3        `json:"stopped_positions"`
	Trajectories     []Trajectory  `json:"trajectories,omitempty"`

	Damage   *damage.Statistics `json:"damage,omitempty"`
	Recorder *damage.Recorder   `json:"-"`

	Canceled bool          `json:"canceled"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Fraction returns count/TotalIons, or 0 for an empty run.
func (r *Results) Fraction(count int) float64 {
	if r.TotalIons == 0 {
		return 0
	}
	return float64(count) / float64(r.TotalIons)
}

// Depths returns the z coordinate of every stopped ion.
func (r *Results) Depths() []float64 {
	z := make([]float64, len(r.StoppedPositions))
	for i, p := range r.StoppedPositions {
		z[i] = p[2]
	}
	return z
}

// tally is the private accumulator of one worker.
type tally struct {
	completed int
	outcomes  [4]int
	moments   stats.Moments
	positions []Vec3
	traces    []Trajectory
	recorder  *damage.Recorder
}

func (t *tally) add(ion int, res trajectory.Result) {
	t.completed++
	if int(res.Outcome) < len(t.outcomes) {
		t.outcomes[res.Outcome]++
	}
	if res.Outcome == transport.StoppedInside {
		t.moments.Observe(res.Final.Position)
		t.positions = append(t.positions, res.Final.Position)
	}
	if res.Trace != nil {
		t.traces = append(t.traces, Trajectory{Ion: ion, Outcome: res.Outcome, Points: res.Trace})
	}
}

func (t *tally) merge(o *tally) {
	t.completed += o.completed
	for i := range t.outcomes {
		t.outcomes[i] += o.outcomes[i]
	}
	t.moments.Merge(o.moments)
	t.positions = append(t.positions, o.positions...)
	t.traces = append(t.traces, o.traces...)
	if t.recorder != nil {
		t.recorder.Merge(o.recorder)
	}
}

func (t *tally) results(requested int) *Results {
	r := &Results{
		Requested:        requested,
		TotalIons:        t.completed,
		Stopped:          t.outcomes[transport.StoppedInside],
		Backscattered:    t.outcomes[transport.Backscattered],
		Transmitted:      t.outcomes[transport.Transmitted],
		Anomalous:        t.outcomes[transport.Anomalous],
		Stats:            t.moments.Summary(),
		StoppedPositions: t.positions,
		Trajectories:     t.traces,
		Recorder:         t.recorder,
	}
	if r.StoppedPositions == nil {
		r.StoppedPositions = []Vec3{}
	}
	if t.recorder != nil {
		s := t.recorder.Statistics()
		r.Damage = &s
	}
	return r
}
