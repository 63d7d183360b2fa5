// Package password hashes and verifies user passwords with argon2id,
// serialized in the PHC string format so parameters travel with each hash.
package password
