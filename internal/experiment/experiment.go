// Package experiment assembles an ensemble run from a configuration.
package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/iontrim/internal/config"
	"github.com/san-kum/iontrim/internal/physics"
	"github.com/san-kum/iontrim/internal/sim"
	"github.com/san-kum/iontrim/internal/trajectory"
)

type Experiment struct {
	cfg          *config.Config
	orchestrator *sim.Orchestrator
	engine       *trajectory.Engine
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg}
}

// Setup validates the configuration and builds every collaborator.
func (e *Experiment) Setup(reg *Registry) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	phys := e.cfg.Physics()

	geo, err := e.cfg.Geometry()
	if err != nil {
		return err
	}
	stopping, err := reg.GetStopping(e.cfg.StoppingModel, phys)
	if err != nil {
		return err
	}
	kernel, err := reg.GetScattering(e.cfg.ScatteringModel, phys)
	if err != nil {
		return err
	}
	sampler, err := physics.NewAmorphousSampler(phys.Density)
	if err != nil {
		return err
	}

	engine, err := trajectory.New(phys, geo, sampler, stopping, kernel)
	if err != nil {
		return err
	}
	engine.MaxSteps = e.cfg.MaxSteps

	initial, err := e.cfg.InitialState()
	if err != nil {
		return err
	}
	orch, err := sim.New(engine, initial)
	if err != nil {
		return err
	}

	e.engine = engine
	e.orchestrator = orch
	return nil
}

// Options derives run options from the configuration.
func (e *Experiment) Options() sim.Options {
	return sim.Options{
		Ions:               e.cfg.IonCount,
		RecordTrajectories: e.cfg.RecordTrajectories,
		MaxRecorded:        e.cfg.MaxRecorded,
		Workers:            e.cfg.Workers,
		Seed:               e.cfg.Seed,
		Damage:             e.cfg.Damage,
	}
}

func (e *Experiment) Run(ctx context.Context, progress func(done, total int)) (*sim.Results, error) {
	if e.orchestrator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	opts := e.Options()
	opts.Progress = progress
	return e.orchestrator.Run(ctx, opts)
}

// Stop cancels a run in progress.
func (e *Experiment) Stop() {
	if e.orchestrator != nil {
		e.orchestrator.Stop()
	}
}

func (e *Experiment) Config() *config.Config { return e.cfg }

// Engine returns the trajectory engine built by Setup.
func (e *Experiment) Engine() *trajectory.Engine { return e.engine }
