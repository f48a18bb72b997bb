// Package logx configures nexusevent's structured logging.
//
// It wraps zerolog in a small value type (logx.Logger) to keep:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//   - Optional alert sink (min-level + rate limiting) that forwards records to a sender
package logx
