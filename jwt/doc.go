// Package jwt manages session and pending-2FA token issuance and verification
// using an HS256 symmetric secret and strict validation semantics suitable for
// low-latency authentication paths.
package jwt
