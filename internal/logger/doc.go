// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing and setup from configuration,
//   - convenience functions (Infof, WarnKV, ErrorKV, etc.).
//
// Every pipeline step receives a context and extracts the logger from it, so
// the engine, the transport and the CLIs share scoped, structured logging.
package logger
