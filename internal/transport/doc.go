// Package transport defines the shared data model of the ion transport core.
//
// The types here are consumed by every other simulation package:
//
//   - [PhysicsConfig]: projectile/target pair and stopping parameters
//   - [ProjectileState]: position, direction and energy of one tracked ion
//   - [Outcome]: terminal classification of one ion
//   - [ConfigError]: configuration failures reported before any trajectory runs
//
// Units are Angstrom for lengths, eV for energies and amu for masses.
//
// # Thread Safety
//
// PhysicsConfig is a plain value and is read-only once a run starts; it may be
// shared by any number of workers. ProjectileState is owned by a single
// trajectory and must never be shared.
package transport
