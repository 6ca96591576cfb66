// Package force is a small velocity Verlet force simulation for node-link
// diagrams.
//
// A [Simulation] owns a slice of [Body] values and an ordered list of named
// [Force] implementations. Every tick cools alpha toward its target, lets
// each force adjust body velocities (or positions) in registration order,
// and then integrates:
//
//	v *= 1 - velocityDecay
//	x += v
//
// Pinned bodies snap to their pin with zero velocity.
//
// # Cooling
//
// Alpha starts at 1 and decays geometrically toward the target. With the
// default decay the simulation cools from 1 below [DefaultAlphaMin] in 300
// ticks. Raising the target with [Simulation.Reheat] keeps the simulation
// hot while the user drags a node.
//
// # Forces
//
//   - [ManyBody]: pairwise charge, approximated with a Barnes-Hut quadtree
//   - [Center]: translates all bodies so their mean sits on a point
//   - [Collide]: separates overlapping circles
//   - [PositionX], [PositionY]: pull each body toward a coordinate
//
// Simulations are not safe for concurrent use.
package force
