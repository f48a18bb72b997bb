// Package storage keeps an append-only audit log of delivery outcomes.
//
// Drivers:
//   - "file": JSON Lines file, no dependencies
//   - "sqlite": SQLite database (modernc.org/sqlite, pure Go)
//
// The log is for operators; nothing in it is ever re-sent.
package storage
