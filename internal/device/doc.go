// Package device simulates the phone ringer the engine controls.
//
// Ringer keeps the current mode with the actor of the last change and can
// persist it through a state repository. Callers wait for changes with
// WaitFor instead of polling.
package device
