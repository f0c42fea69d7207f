// Package physics provides the interaction models of the ion transport core.
//
// Three strategies are composed by the trajectory engine:
//
//   - [StoppingModel]: continuous electronic energy loss ([Lindhard], [NoStopping])
//   - [CollisionSampler]: free path, impact parameter and recoil azimuth ([AmorphousSampler])
//   - [ScatteringKernel]: binary-collision kinematics ([Magic], [Coulomb])
//
// Every model is parameterized once from a [transport.PhysicsConfig] and is a
// pure function of its arguments afterwards, so a single instance may be
// shared by all workers. Randomness enters only through the *rand.Rand passed
// to the sampler.
//
// # Units
//
// Lengths are in Angstrom, energies in eV and masses in amu.
//
//	stop := physics.NewLindhard(cfg)
//	loss := stop.EnergyLoss(50e3, 2.7)
package physics
