// Package sim runs ensembles of independent ions through a trajectory engine.
package sim

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/iontrim/internal/config"
	"github.com/san-kum/iontrim/internal/damage"
	"github.com/san-kum/iontrim/internal/trajectory"
	"github.com/san-kum/iontrim/internal/transport"
)

// Orchestrator runs N ions from one initial state. Every ion i draws from its
// own stream seeded with (Seed, i), so results do not depend on Workers.
type Orchestrator struct {
	engine  *trajectory.Engine
	initial transport.ProjectileState
	log     *logrus.Entry

	stopped atomic.Bool
}

func New(engine *trajectory.Engine, initial transport.ProjectileState) (*Orchestrator, error) {
	if engine == nil {
		return nil, transport.NewConfigError("engine", nil, "required")
	}
	if !initial.IsValid() {
		return nil, transport.InvalidField("initial_state", initial, transport.ErrNonFinite)
	}
	if _, err := transport.Normalize(initial.Direction); err != nil {
		return nil, transport.InvalidField("initial_direction", initial.Direction, err)
	}
	return &Orchestrator{
		engine:  engine,
		initial: initial,
		log:     config.NamedLogger("sim"),
	}, nil
}

// SetLogger replaces the default named logger.
func (o *Orchestrator) SetLogger(l *logrus.Entry) { o.log = l }

// Stop asks a running ensemble to finish after the ions already in flight. A
// Stop issued before Run starts cancels the next run.
func (o *Orchestrator) Stop() { o.stopped.Store(true) }

func (o *Orchestrator) canceled(ctx context.Context) bool {
	return o.stopped.Load() || ctx.Err() != nil
}

// Run transports opts.Ions ions. Cancellation through ctx or Stop is checked
// before each ion; the partial results are returned with a nil error.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Results, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	// a Stop that lands before Run cancels this run; the flag is cleared on return
	defer o.stopped.Store(false)
	start := time.Now()

	workers := max(opts.Workers, 1)
	if workers > opts.Ions {
		workers = max(opts.Ions, 1)
	}
	o.log.WithFields(logrus.Fields{
		"ions":    opts.Ions,
		"workers": workers,
		"seed":    opts.Seed,
	}).Debug("starting ensemble")

	progress := newProgress(opts.Progress, opts.Ions)

	var total *tally
	if workers == 1 {
		t, err := o.newTally(opts)
		if err != nil {
			return nil, err
		}
		o.runRange(ctx, opts, t, 0, opts.Ions, progress)
		total = t
	} else {
		t, err := o.runParallel(ctx, opts, workers, progress)
		if err != nil {
			return nil, err
		}
		total = t
	}

	res := total.results(opts.Ions)
	res.Canceled = res.TotalIons < opts.Ions
	res.Elapsed = time.Since(start)

	if res.Canceled {
		o.log.Infof("canceled after %d of %d ions", res.TotalIons, opts.Ions)
	}
	o.log.WithFields(logrus.Fields{
		"ions":      res.TotalIons,
		"stopped":   res.Stopped,
		"anomalous": res.Anomalous,
		"elapsed":   res.Elapsed,
	}).Debug("ensemble finished")

	return res, nil
}

func (o *Orchestrator) newTally(opts Options) (*tally, error) {
	t := &tally{}
	if opts.Damage != nil {
		rec, err := damage.NewRecorder(*opts.Damage)
		if err != nil {
			return nil, err
		}
		t.recorder = rec
	}
	return t, nil
}

// runRange transports ions [from, to) into t.
func (o *Orchestrator) runRange(ctx context.Context, opts Options, t *tally, from, to int, p *progress) {
	engine := o.engine
	if t.recorder != nil {
		engine = engine.WithObserver(t.recorder)
	}

	for i := from; i < to; i++ {
		if o.canceled(ctx) {
			return
		}

		rng := rand.New(rand.NewPCG(opts.Seed, uint64(i)))
		res := engine.Run(rng, o.initial, opts.records(i))
		if res.Outcome == transport.Anomalous {
			o.log.WithField("ion", i).Warnf("ion abandoned after %d steps: %v", res.Steps, res.Anomaly)
		}

		t.add(i, res)
		p.done()
	}
}

// progress serializes callbacks from concurrent workers.
type progress struct {
	mu    sync.Mutex
	fn    func(done, total int)
	count int
	total int
}

func newProgress(fn func(done, total int), total int) *progress {
	return &progress{fn: fn, total: total}
}

func (p *progress) done() {
	if p.fn == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.count++
	p.fn(p.count, p.total)
}
