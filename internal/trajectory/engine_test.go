package trajectory_test

import (
	"math"
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/iontrim/internal/geometry"
	"github.com/san-kum/iontrim/internal/physics"
	"github.com/san-kum/iontrim/internal/trajectory"
	"github.com/san-kum/iontrim/internal/transport"
)

type Vec3 = transport.Vec3

type fixedSampler struct{ path float64 }

func (s fixedSampler) Next(_ *rand.Rand, _, dir Vec3) physics.Collision {
	return physics.Collision{
		FreePath:        s.path,
		ImpactParameter: 0.5,
		RecoilDirection: physics.Perpendicular(dir, 0),
	}
}

type constantLoss struct{ loss float64 }

func (c constantLoss) Name() string { return "constant" }
func (c constantLoss) EnergyLoss(e, _ float64) float64 {
	return math.Min(c.loss, e)
}

type nanLoss struct{}

func (nanLoss) Name() string                    { return "nan" }
func (nanLoss) EnergyLoss(_, _ float64) float64 { return math.NaN() }

// straight keeps direction and energy.
type straight struct{}

func (straight) Name() string { return "straight" }
func (straight) Scatter(e float64, dir Vec3, _ float64, recoil Vec3) physics.ScatterResult {
	return physics.ScatterResult{Direction: dir, Energy: e, RecoilDirection: recoil}
}

// reflect sends the ion back towards -z.
type reflect struct{}

func (reflect) Name() string { return "reflect" }
func (reflect) Scatter(e float64, _ Vec3, _ float64, recoil Vec3) physics.ScatterResult {
	return physics.ScatterResult{Direction: Vec3{0, 0, -1}, Energy: e, RecoilDirection: recoil}
}

type countingObserver struct {
	n           int
	transferred float64
}

func (o *countingObserver) OnCollision(_ Vec3, _, t float64, _ Vec3) {
	o.n++
	o.transferred += t
}

func boronInSilicon() transport.PhysicsConfig {
	return transport.PhysicsConfig{
		Z1: 5, M1: 10.81, Z2: 14, M2: 28.0855,
		Density:            0.04994,
		StoppingCorrection: 1,
		MinEnergy:          transport.DefaultMinEnergy,
	}
}

func slab(zmin, zmax float64) geometry.Geometry {
	g, err := geometry.NewPlanar(zmin, zmax)
	Expect(err).NotTo(HaveOccurred())
	return g
}

func ion(z, dz, energy float64) transport.ProjectileState {
	s, err := transport.NewProjectileState(Vec3{0, 0, z}, Vec3{0, 0, dz}, energy)
	Expect(err).NotTo(HaveOccurred())
	return s
}

var _ = Describe("Engine", func() {
	var (
		phys transport.PhysicsConfig
		rng  *rand.Rand
	)

	BeforeEach(func() {
		phys = boronInSilicon()
		rng = rand.New(rand.NewPCG(1, 0))
	})

	newEngine := func(g geometry.Geometry, s physics.StoppingModel, k physics.ScatteringKernel) *trajectory.Engine {
		e, err := trajectory.New(phys, g, fixedSampler{path: 10}, s, k)
		Expect(err).NotTo(HaveOccurred())
		return e
	}

	Describe("construction", func() {
		It("rejects missing strategies", func() {
			_, err := trajectory.New(phys, nil, fixedSampler{10}, physics.NoStopping{}, straight{})
			Expect(err).To(MatchError(transport.ErrInvalidConfig))

			_, err = trajectory.New(phys, slab(0, 1), fixedSampler{10}, nil, straight{})
			Expect(err).To(MatchError(transport.ErrInvalidConfig))
		})

		It("rejects a non-positive cutoff", func() {
			phys.MinEnergy = 0
			_, err := trajectory.New(phys, slab(0, 1), fixedSampler{10}, physics.NoStopping{}, straight{})
			Expect(err).To(MatchError(transport.ErrInvalidConfig))
		})
	})

	Describe("straight flight", func() {
		It("transmits through a slab", func() {
			e := newEngine(slab(0, 100), physics.NoStopping{}, straight{})
			res := e.Run(rng, ion(0, 1, 1000), true)

			Expect(res.Outcome).To(Equal(transport.Transmitted))
			Expect(res.Steps).To(Equal(11))
			Expect(res.Collisions).To(Equal(10))
			Expect(res.Final.Position[2]).To(BeNumerically("~", 110, 1e-9))
			Expect(res.Trace).To(HaveLen(12))
		})

		It("stops inside when energy runs out", func() {
			e := newEngine(slab(0, 100), constantLoss{1000}, straight{})
			res := e.Run(rng, ion(0, 1, 5000), false)

			Expect(res.Outcome).To(Equal(transport.StoppedInside))
			Expect(res.Steps).To(Equal(5))
			Expect(res.Final.Energy).To(BeNumerically("<=", phys.MinEnergy))
			Expect(res.Final.Position[2]).To(BeNumerically("~", 50, 1e-9))
			Expect(res.Trace).To(BeEmpty())
		})

		It("classifies a reversed ion as backscattered", func() {
			e := newEngine(slab(0, 100), physics.NoStopping{}, reflect{})
			res := e.Run(rng, ion(0, 1, 1000), false)

			Expect(res.Outcome).To(Equal(transport.Backscattered))
			Expect(res.Final.Position[2]).To(BeNumerically("<", 0))
		})
	})

	Describe("entry", func() {
		It("transports an outside ion to the surface", func() {
			e := newEngine(slab(0, 100), physics.NoStopping{}, straight{})
			res := e.Run(rng, ion(-50, 1, 1000), true)

			Expect(res.Outcome).To(Equal(transport.Transmitted))
			Expect(res.Trace[0].Position[2]).To(Equal(-50.0))
			Expect(res.Trace[1].Position[2]).To(BeNumerically("~", 0, 1e-5))
		})

		It("backscatters an ion that enters from vacuum and turns around", func() {
			e := newEngine(slab(0, 1000), physics.NoStopping{}, reflect{})
			res := e.Run(rng, ion(-100, 1, 1000), false)

			Expect(res.Outcome).To(Equal(transport.Backscattered))
			Expect(res.Final.Position[2]).To(BeNumerically("~", -10, 1e-9))
		})

		Context("with a sphere away from the start", func() {
			var ball geometry.Geometry

			BeforeEach(func() {
				var err error
				ball, err = geometry.NewSphere(400, Vec3{0, 0, 500})
				Expect(err).NotTo(HaveOccurred())
			})

			It("backscatters through the near face", func() {
				e := newEngine(ball, physics.NoStopping{}, reflect{})
				res := e.Run(rng, ion(0, 1, 1000), false)

				Expect(res.Outcome).To(Equal(transport.Backscattered))
				Expect(res.Final.Position[2]).To(BeNumerically("~", 90, 1e-9))
			})

			It("transmits through the far face", func() {
				e := newEngine(ball, physics.NoStopping{}, straight{})
				res := e.Run(rng, ion(0, 1, 1000), false)

				Expect(res.Outcome).To(Equal(transport.Transmitted))
				Expect(res.Final.Position[2]).To(BeNumerically(">", 900))
			})
		})

		It("leaves a missing ion where it started", func() {
			e := newEngine(slab(0, 100), physics.NoStopping{}, straight{})
			start := ion(-50, -1, 1000)
			res := e.Run(rng, start, true)

			Expect(res.Outcome).To(Equal(transport.Transmitted))
			Expect(res.Steps).To(BeZero())
			Expect(res.Final).To(Equal(start))
			Expect(res.Trace).To(HaveLen(1))
		})
	})

	Describe("guards", func() {
		It("abandons ions that exceed the step budget", func() {
			e := newEngine(slab(0, 1e9), physics.NoStopping{}, straight{})
			e.MaxSteps = 5
			res := e.Run(rng, ion(0, 1, 1000), false)

			Expect(res.Outcome).To(Equal(transport.Anomalous))
			Expect(res.Anomaly).To(MatchError(transport.ErrStepLimit))
			Expect(res.Steps).To(Equal(5))
		})

		It("flags non-finite energies", func() {
			e := newEngine(slab(0, 100), nanLoss{}, straight{})
			res := e.Run(rng, ion(0, 1, 1000), false)

			Expect(res.Outcome).To(Equal(transport.Anomalous))
			Expect(res.Anomaly).To(MatchError(transport.ErrNonFinite))
		})
	})

	Describe("physical run", func() {
		var e *trajectory.Engine

		BeforeEach(func() {
			sampler, err := physics.NewAmorphousSampler(phys.Density)
			Expect(err).NotTo(HaveOccurred())
			e, err = trajectory.New(phys, slab(0, 4000), sampler, physics.NewLindhard(phys), physics.NewMagic(phys))
			Expect(err).NotTo(HaveOccurred())
		})

		It("keeps traces consistent with the final state", func() {
			for i := uint64(0); i < 20; i++ {
				r := rand.New(rand.NewPCG(42, i))
				res := e.Run(r, ion(0, 1, 50000), true)

				Expect(res.Outcome).NotTo(Equal(transport.Anomalous))
				Expect(res.Trace[0].Position).To(Equal(Vec3{}))
				Expect(res.Trace[len(res.Trace)-1].Position).To(Equal(res.Final.Position))

				for j := 1; j < len(res.Trace); j++ {
					Expect(res.Trace[j].Energy).To(BeNumerically("<=", res.Trace[j-1].Energy))
				}
				if res.Outcome == transport.StoppedInside {
					Expect(res.Final.Energy).To(BeNumerically("<=", phys.MinEnergy))
					Expect(e.Geometry().Contains(res.Final.Position)).To(BeTrue())
				}
			}
		})

		It("is reproducible for a given stream", func() {
			a := e.Run(rand.New(rand.NewPCG(7, 3)), ion(0, 1, 50000), false)
			b := e.Run(rand.New(rand.NewPCG(7, 3)), ion(0, 1, 50000), false)
			Expect(a.Final).To(Equal(b.Final))
			Expect(a.Steps).To(Equal(b.Steps))
		})

		It("reports every collision to the observer", func() {
			obs := &countingObserver{}
			res := e.WithObserver(obs).Run(rng, ion(0, 1, 50000), false)

			Expect(obs.n).To(Equal(res.Collisions))
			Expect(obs.transferred).To(BeNumerically("<", 50000))
		})
	})
})
