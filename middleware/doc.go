// Package middleware exposes net/http adapters built on top of
// authgate.Engine.
//
// # Adapters
//
//   - [Guard] — reads the Authorization bearer token, resolves the account
//     through Engine.CurrentUser, and injects it into the request context.
//   - [Throttle] — per-client token-bucket limiting with rate-limit response
//     headers.
//   - [ClientIP] — attaches the client address (X-Forwarded-For aware) to the
//     request context for attempt tracking and audit events.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself — all decisions are delegated to the
// Engine.
//
// # What this package must NOT do
//
//   - Parse or create tokens directly (delegates to Engine).
//   - Make authorization decisions beyond pass/reject from the Engine.
package middleware
