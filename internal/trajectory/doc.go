// Package trajectory advances a single ion through a target.
//
// An Engine alternates free flights with binary collisions. Each flight
// draws a collision from the CollisionSampler, removes electronic energy
// with the StoppingModel, moves the ion and then deflects it with the
// ScatteringKernel. The loop ends when the ion leaves the geometry, falls
// below the cutoff energy or hits a numerical guard.
//
// Engines hold no per-ion state. All randomness comes from the *rand.Rand
// passed to Run, so one Engine can serve many goroutines.
package trajectory
