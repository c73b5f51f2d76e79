// Package common holds helpers shared by the wherering commands.
//
// It provides a gRPC client for the engine server with per-call timeouts and
// a helper to detect the current system actor (hostname/username) so manual
// ringer changes are attributed.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
