// Package client implements the wherering commands that talk to a running
// server: reporting fixes, replaying tracks, reading and changing the ringer,
// and inspecting or refreshing the engine.
package client
