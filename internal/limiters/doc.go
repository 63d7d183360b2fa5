// Package limiters provides the in-memory login attempt tracker that backs
// brute-force lockout.
//
// # Design
//
// State lives in sharded mutex-protected maps keyed by clientIP:identifier.
// Each entry carries a failure count, the last write time, and an optional
// lock deadline. Entries expire LockDuration after their last write, and each
// shard evicts its oldest-written entry when the configured cap is exceeded,
// so an attacker cycling keys cannot grow memory without bound.
//
// # Architecture boundaries
//
// The tracker counts and reports; the engine decides consequences. Expired
// locks are cleared lazily on read, so no background goroutine runs.
//
// # What this package must NOT do
//
//   - Import authgate or any sibling internal package.
//   - Perform I/O or spawn goroutines.
package limiters
