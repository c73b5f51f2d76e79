// Package state persists the simulated ringer device state.
//
// The FileRepository stores the mode and the actor of the last change as
// protobuf JSON on disk, so the device keeps its mode across restarts. The
// engine history is never persisted.
package state
