// Package storage persists the course state map.
//
// Two drivers are supported:
//   - "file": a single JSON state file, replaced atomically on save
//   - "sqlite": a SQLite database file (modernc.org/sqlite, no cgo)
//
// Saves always write the full map; at this bot's scale that is simpler and
// safer than incremental updates.
package storage
