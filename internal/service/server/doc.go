// Package server runs the wherering engine as a long-lived process.
//
// Run wires the place catalog, the simulated ringer, the location feed and
// the proximity engine together and serves them over gRPC until the context
// is cancelled.
package server
