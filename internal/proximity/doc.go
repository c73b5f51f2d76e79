// Package proximity implements the location-triggered ringer policy engine.
//
// The engine consumes location fixes and a catalog of places, works out which
// places contain the device, turns membership changes into an ordered stream
// of Enter/Exit events and applies the ringer policy for each event.
//
// Pipeline, per fix:
//
//  1. Evaluator computes the membership set (pure).
//  2. Sequencer diffs it against the engagement state, emits every Exit
//     before every Enter and stamps each event with Clock.Next().
//  3. Policy decides the ringer action for each event in sequence order and
//     returns the updated ringer history.
//
// Engine runs the whole pipeline for one fix under a single mutex, so the
// effects of two fixes never interleave. The engagement state, ringer
// history and sequence counter live in the Engine value and start empty on
// every Engine.Start.
//
// External collaborators are consumed through Catalog, FixSource and
// RingerPort. Runner wires an Engine to a FixSource and exposes its lifecycle
// state for observation.
package proximity
