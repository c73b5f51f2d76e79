// Package simulate runs the proximity engine offline over a scripted track
// and a place catalog, printing a transcript of every transition and ringer
// write. It needs no server and touches no persisted ringer state.
package simulate
