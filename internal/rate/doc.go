// Package rate provides the in-memory token bucket primitive behind request
// throttling.
//
// # Bucket semantics
//
// Each key owns one bucket created lazily on first use. Buckets refill
// continuously: elapsed wall time earns fractional tokens at Capacity per
// Window, capped at Capacity. A consume takes one whole token or is rejected
// with the time until the next token becomes available.
//
// Keys are namespaced by their caller. Two policies sharing a key string
// would share a bucket, so callers must prefix keys per policy.
//
// # What this package must NOT do
//
//   - Decide which requests are throttled (policy wiring lives in authgate).
//   - Be imported outside the authgate module.
package rate
