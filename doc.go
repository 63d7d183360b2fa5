// Package authgate provides an embeddable account-security engine: signed
// bearer tokens (full sessions and short-lived pending-2FA tokens), TOTP
// second-factor enrollment and verification, brute-force login lockout, and
// per-client token-bucket throttling.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build]. All security state (attempt counters, lock deadlines,
// rate buckets) lives in process memory; tokens are self-contained and carry
// their own expiry, so there is no revocation store.
//
// # Architecture boundaries
//
// authgate is the public surface. It exposes [Engine], [Builder], [Config],
// the typed error taxonomy, and value types (LoginResult, TOTPProvision,
// MetricsSnapshot, etc.). Leaf subsystems live in subpackages: jwt/ issues
// and verifies tokens, totp/ owns the second factor, password/ owns hashing,
// and internal/ holds the limiter and audit machinery, which is never
// exported.
//
// # What this package must NOT do
//
//   - Store or look up user records itself; the caller supplies a
//     [UserProvider] and the engine never caches its results.
//   - Perform I/O outside of UserProvider calls (construction via Builder is
//     allocation-only until Build).
//   - Import any sub-package that re-imports authgate (no import cycles).
package authgate
