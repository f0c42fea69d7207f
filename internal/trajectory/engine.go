package trajectory

import (
	"math/rand/v2"

	"github.com/san-kum/iontrim/internal/geometry"
	"github.com/san-kum/iontrim/internal/physics"
	"github.com/san-kum/iontrim/internal/transport"
)

type Vec3 = transport.Vec3

const (
	// DefaultMaxSteps bounds the collisions followed for one ion.
	DefaultMaxSteps = 1_000_000

	// EntryNudge (A) moves an ion past the surface it was transported to.
	EntryNudge = 1e-6
)

// TracePoint is one recorded position along a path.
type TracePoint struct {
	Position Vec3
	Energy   float64
}

// Result is the terminal state of one ion.
type Result struct {
	Final      transport.ProjectileState
	Outcome    transport.Outcome
	Trace      []TracePoint
	Steps      int
	Collisions int
	// Anomaly is set for Anomalous outcomes.
	Anomaly error
}

// CollisionObserver is notified after every elastic collision.
type CollisionObserver interface {
	OnCollision(pos Vec3, incoming, transferred float64, recoilDir Vec3)
}

type Engine struct {
	phys     transport.PhysicsConfig
	geo      geometry.Geometry
	sampler  physics.CollisionSampler
	stopping physics.StoppingModel
	kernel   physics.ScatteringKernel
	observer CollisionObserver

	MaxSteps int
}

func New(
	phys transport.PhysicsConfig,
	geo geometry.Geometry,
	sampler physics.CollisionSampler,
	stopping physics.StoppingModel,
	kernel physics.ScatteringKernel,
) (*Engine, error) {
	if err := phys.Validate(); err != nil {
		return nil, err
	}
	if geo == nil {
		return nil, transport.NewConfigError("geometry", nil, "required")
	}
	if sampler == nil {
		return nil, transport.NewConfigError("sampler", nil, "required")
	}
	if stopping == nil {
		return nil, transport.NewConfigError("stopping_model", nil, "required")
	}
	if kernel == nil {
		return nil, transport.NewConfigError("scattering_model", nil, "required")
	}

	return &Engine{
		phys:     phys,
		geo:      geo,
		sampler:  sampler,
		stopping: stopping,
		kernel:   kernel,
		MaxSteps: DefaultMaxSteps,
	}, nil
}

// WithObserver returns a copy of e that reports collisions to o.
func (e *Engine) WithObserver(o CollisionObserver) *Engine {
	c := *e
	c.observer = o
	return &c
}

func (e *Engine) Geometry() geometry.Geometry      { return e.geo }
func (e *Engine) Physics() transport.PhysicsConfig { return e.phys }

// Run transports one ion until it stops, leaves the target or is abandoned.
// When record is set the trace starts at the initial position and ends at the
// final one.
func (e *Engine) Run(rng *rand.Rand, initial transport.ProjectileState, record bool) Result {
	st := initial
	res := Result{}
	if record {
		res.Trace = append(res.Trace, TracePoint{st.Position, st.Energy})
	}

	finish := func(o transport.Outcome, err error) Result {
		res.Final = st
		res.Outcome = o
		res.Anomaly = err
		if record {
			last := res.Trace[len(res.Trace)-1]
			if last.Position != st.Position || last.Energy != st.Energy {
				res.Trace = append(res.Trace, TracePoint{st.Position, st.Energy})
			}
		}
		return res
	}

	if !st.IsValid() {
		return finish(transport.Anomalous, transport.ErrNonFinite)
	}

	if !e.geo.Contains(st.Position) {
		entry, ok := e.enter(st.Position, st.Direction)
		if !ok {
			return finish(transport.Transmitted, nil)
		}
		st.Position = entry
		if record {
			res.Trace = append(res.Trace, TracePoint{st.Position, st.Energy})
		}
	}

	// exits are judged against the entry point, not a start in vacuum
	origin := st.Position

	emin := e.phys.MinEnergy
	if st.Energy <= emin {
		return finish(transport.StoppedInside, nil)
	}

	for res.Steps < e.MaxSteps {
		res.Steps++

		c := e.sampler.Next(rng, st.Position, st.Direction)

		st.Energy -= e.stopping.EnergyLoss(st.Energy, c.FreePath)
		if st.Energy < 0 {
			st.Energy = 0
		}
		st.Position = st.Position.Add(st.Direction.Mul(c.FreePath))

		if !st.IsValid() {
			return finish(transport.Anomalous, transport.ErrNonFinite)
		}
		if record {
			res.Trace = append(res.Trace, TracePoint{st.Position, st.Energy})
		}

		if !e.geo.Contains(st.Position) {
			return finish(transport.ClassifyExit(origin, initial.Direction, st.Position), nil)
		}
		if st.Energy <= emin {
			return finish(transport.StoppedInside, nil)
		}

		incoming := st.Energy
		r := e.kernel.Scatter(st.Energy, st.Direction, c.ImpactParameter, c.RecoilDirection)
		res.Collisions++
		if !transport.IsFinite(r.Energy) || !transport.VecFinite(r.Direction) {
			return finish(transport.Anomalous, transport.ErrNonFinite)
		}
		st.Direction = r.Direction
		st.Energy = r.Energy

		if e.observer != nil {
			e.observer.OnCollision(st.Position, incoming, r.RecoilEnergy, r.RecoilDirection)
		}

		if st.Energy <= emin {
			return finish(transport.StoppedInside, nil)
		}
	}

	return finish(transport.Anomalous, transport.ErrStepLimit)
}

// enter moves an ion that starts outside the target onto its first surface.
func (e *Engine) enter(pos, dir Vec3) (Vec3, bool) {
	hit, _, ok := e.geo.Intersect(pos, dir)
	if !ok {
		return pos, false
	}
	if e.geo.Contains(hit) {
		return hit, true
	}
	hit = hit.Add(dir.Mul(EntryNudge))
	return hit, e.geo.Contains(hit)
}
