// Package totp owns the time-based one-time-password second factor: secret
// generation, otpauth provisioning URIs, QR rendering, and code verification.
//
// # Design
//
// Verification follows RFC 6238 with SHA1, 6 digits, a 30 second period, and
// one period of clock skew in either direction. These parameters are fixed so
// that secrets provisioned to authenticator apps never drift from the
// verifier. VerifyCode is fail-closed: malformed input and library errors all
// collapse to false, never to an error the caller could misread as success.
//
// # What this package must NOT do
//
//   - Persist secrets or track enrollment state (the engine owns that).
//   - Import authgate or any sibling package.
package totp
