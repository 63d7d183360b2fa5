package authgate

import (
	"errors"
	"fmt"

	"github.com/jcastellr/authgate/totp"
)

var (
	// ErrUnauthorized is an exported constant or variable used by the account security engine.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials is an exported constant or variable used by the account security engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is an exported constant or variable used by the account security engine.
	ErrUserNotFound = errors.New("user not found")
	// ErrAccountLocked is an exported constant or variable used by the account security engine.
	ErrAccountLocked = errors.New("account locked")
	// ErrDuplicateResource is an exported constant or variable used by the account security engine.
	ErrDuplicateResource = errors.New("resource already exists")
	// ErrRateLimited is an exported constant or variable used by the account security engine.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrTokenInvalid is an exported constant or variable used by the account security engine.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTOTPInvalid is an exported constant or variable used by the account security engine.
	ErrTOTPInvalid = errors.New("invalid totp code")
	// ErrTOTPAlreadyEnabled is an exported constant or variable used by the account security engine.
	ErrTOTPAlreadyEnabled = errors.New("totp already enabled")
	// ErrTOTPNotEnabled is an exported constant or variable used by the account security engine.
	ErrTOTPNotEnabled = errors.New("totp not enabled")
	// ErrPasswordMismatch is an exported constant or variable used by the account security engine.
	ErrPasswordMismatch = errors.New("new password and confirmation do not match")
	// ErrEngineNotReady is an exported constant or variable used by the account security engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrProviderDuplicateIdentifier is an exported constant or variable used by the account security engine.
	ErrProviderDuplicateIdentifier = errors.New("provider duplicate identifier")
	// ErrQRRender is an exported constant or variable used by the account security engine.
	ErrQRRender = totp.ErrQRRender
)

// AccountLockedError reports a login attempt against a locked account.
// It wraps [ErrAccountLocked] for errors.Is matching and carries the number
// of seconds until the lock expires, so callers can surface a Retry-After.
type AccountLockedError struct {
	RetryAfter int64
}

// Error describes the error operation and its observable behavior.
func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked, retry in %d seconds", e.RetryAfter)
}

// Is reports whether target matches [ErrAccountLocked].
func (e *AccountLockedError) Is(target error) bool {
	return target == ErrAccountLocked
}

// CredentialsError reports a failed credential check. It wraps
// [ErrInvalidCredentials] for errors.Is matching and carries the number of
// failed attempts still permitted before the account locks. The message
// never reveals whether the identifier or the password was wrong.
type CredentialsError struct {
	RemainingAttempts int
}

// Error describes the error operation and its observable behavior.
func (e *CredentialsError) Error() string {
	return fmt.Sprintf("invalid credentials, %d attempts remaining", e.RemainingAttempts)
}

// Is reports whether target matches [ErrInvalidCredentials].
func (e *CredentialsError) Is(target error) bool {
	return target == ErrInvalidCredentials
}

// RateLimitedError reports an exhausted request budget. It wraps
// [ErrRateLimited] for errors.Is matching and carries the number of seconds
// until the next token becomes available.
type RateLimitedError struct {
	RetryAfter int64
}

// Error describes the error operation and its observable behavior.
func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry in %d seconds", e.RetryAfter)
}

// Is reports whether target matches [ErrRateLimited].
func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}
