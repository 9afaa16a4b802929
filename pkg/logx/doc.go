// Package logx wraps zerolog behind a small structured-logging API.
//
// It provides:
//   - a Field-based logger (String/Int/Err/... helpers)
//   - a Service that owns the sinks (console, file) and can swap them
//     at runtime on config reload
package logx
