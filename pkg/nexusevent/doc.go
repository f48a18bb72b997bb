// Package nexusevent is the dispatch facade: a registry of named senders
// with single-target send, broadcast across senders, and config validation.
//
// A Registry is safe for concurrent use. Most programs construct one with
// New; Default returns a lazily created process-wide instance for callers
// that want a shared registry.
package nexusevent
