// Package logger wraps zap for the par-builder binaries:
//   - a global sugared logger writing console lines to stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing and configuration,
//   - leveled convenience functions (Info, InfoKV, WarnKV, ...).
//
// Logs go to stderr so that the launcher never mixes its own output with the
// standard output of the program it runs.
package logger
