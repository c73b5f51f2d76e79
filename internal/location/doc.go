// Package location delivers position fixes to the proximity engine.
//
// Feed is the in-process FixSource: producers push fixes from any goroutine
// and a single Run loop hands them to the subscriber in arrival order. Track
// files describe scripted movements for replay and offline simulation.
package location
