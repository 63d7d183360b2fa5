package authgate

import (
	"context"
	"errors"
	"strconv"

	internalaudit "github.com/jcastellr/authgate/internal/audit"
	"github.com/jcastellr/authgate/internal/limiters"
	"github.com/jcastellr/authgate/internal/rate"
	"github.com/jcastellr/authgate/jwt"
	"github.com/jcastellr/authgate/password"
	"github.com/jcastellr/authgate/totp"
)

// Engine defines a public type used by authgate APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config       Config
	attempts     *limiters.AttemptTracker
	throttle     *rate.Limiter
	authPolicy   rate.Policy
	genPolicy    rate.Policy
	audit        *internalaudit.Dispatcher
	metrics      *Metrics
	passwordHash *password.Hasher
	totp         *totp.Engine
	jwtManager   *jwt.Manager
	userProvider UserProvider
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

/*
====================================
LOGIN
====================================
*/

// Login authenticates identifier (email or username) against password.
//
// A locked key fails with [*AccountLockedError] before any credential work.
// A miss or mismatch counts one failure and fails with [*CredentialsError]
// that never reveals which part was wrong. When the account has TOTP
// enabled, the result carries a pending token instead of a session token and
// the caller must follow up with [Engine.ConfirmLoginMFA].
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Login(ctx context.Context, identifier, pass string) (*LoginResult, error) {
	if e == nil || e.userProvider == nil {
		return nil, ErrEngineNotReady
	}

	key := e.attemptKey(ctx, identifier)

	if e.attempts.IsLocked(key) {
		retryAfter := e.attempts.RemainingLock(key)
		lockErr := &AccountLockedError{RetryAfter: retryAfter}
		e.metricInc(MetricLoginLocked)
		e.emitAudit(ctx, auditEventLoginLocked, false, "", lockErr, func() map[string]string {
			return map[string]string{
				"identifier":  identifier,
				"retry_after": strconv.FormatInt(retryAfter, 10),
			}
		})
		return nil, lockErr
	}

	user, err := e.lookupByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, e.loginFailure(ctx, key, identifier)
		}
		return nil, err
	}

	ok, err := e.passwordHash.Verify(pass, user.PasswordHash)
	if err != nil || !ok {
		return nil, e.loginFailure(ctx, key, identifier)
	}

	e.attempts.RecordSuccess(key)

	if user.TOTPEnabled {
		pending, err := e.jwtManager.CreatePending(user.UserID)
		if err != nil {
			return nil, err
		}
		e.metricInc(MetricMFARequired)
		e.emitAudit(ctx, auditEventMFARequired, true, user.UserID, nil, nil)
		return &LoginResult{MFARequired: true, PendingToken: pending}, nil
	}

	token, err := e.jwtManager.CreateSession(user.UserID)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, user.UserID, nil, nil)

	return &LoginResult{SessionToken: token}, nil
}

func (e *Engine) loginFailure(ctx context.Context, key, identifier string) error {
	e.attempts.RecordFailure(key)
	remaining := e.attempts.RemainingAttempts(key)
	credErr := &CredentialsError{RemainingAttempts: remaining}

	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, "", credErr, func() map[string]string {
		return map[string]string{
			"identifier":         identifier,
			"remaining_attempts": strconv.Itoa(remaining),
		}
	})

	return credErr
}

// lookupByIdentifier resolves identifier as an email first, then as a
// username.
func (e *Engine) lookupByIdentifier(ctx context.Context, identifier string) (UserRecord, error) {
	user, err := e.userProvider.GetUserByEmail(ctx, identifier)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return UserRecord{}, err
	}

	return e.userProvider.GetUserByUsername(ctx, identifier)
}

// ConfirmLoginMFA exchanges a pending token plus a valid TOTP code for a
// full session token. Any defect in the pending token fails with
// [ErrUnauthorized]; a bad code fails with [ErrTOTPInvalid].
//
// ConfirmLoginMFA may return an error when input validation, dependency calls, or security checks fail.
// ConfirmLoginMFA does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ConfirmLoginMFA(ctx context.Context, pendingToken, code string) (*LoginResult, error) {
	if e == nil || e.userProvider == nil {
		return nil, ErrEngineNotReady
	}

	subject, err := e.jwtManager.ExtractSubject(pendingToken)
	if err != nil {
		e.metricInc(MetricMFAFailure)
		e.emitAudit(ctx, auditEventMFAFailure, false, "", ErrUnauthorized, nil)
		return nil, ErrUnauthorized
	}
	if !e.jwtManager.ValidatePending(pendingToken, subject) {
		e.metricInc(MetricMFAFailure)
		e.emitAudit(ctx, auditEventMFAFailure, false, subject, ErrUnauthorized, nil)
		return nil, ErrUnauthorized
	}

	user, err := e.userProvider.GetUserByID(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	if !user.TOTPEnabled || !e.totp.VerifyCode(user.TOTPSecret, code) {
		e.metricInc(MetricMFAFailure)
		e.emitAudit(ctx, auditEventMFAFailure, false, user.UserID, ErrTOTPInvalid, nil)
		return nil, ErrTOTPInvalid
	}

	token, err := e.jwtManager.CreateSession(user.UserID)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricMFASuccess)
	e.emitAudit(ctx, auditEventMFASuccess, true, user.UserID, nil, nil)

	return &LoginResult{SessionToken: token}, nil
}

// CurrentUser resolves token to its account record. The token must be a live
// session token; pending tokens and tampered or expired tokens fail with
// [ErrUnauthorized].
//
// CurrentUser may return an error when input validation, dependency calls, or security checks fail.
// CurrentUser does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) CurrentUser(ctx context.Context, token string) (UserRecord, error) {
	if e == nil || e.userProvider == nil {
		return UserRecord{}, ErrEngineNotReady
	}

	subject, err := e.jwtManager.ExtractSubject(token)
	if err != nil {
		return UserRecord{}, ErrUnauthorized
	}
	if !e.jwtManager.ValidateSession(token, subject) {
		return UserRecord{}, ErrUnauthorized
	}

	user, err := e.userProvider.GetUserByID(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return UserRecord{}, ErrUnauthorized
		}
		return UserRecord{}, err
	}

	return user, nil
}

/*
====================================
TOKEN SURFACE
====================================
*/

// IssueSessionToken describes the issuesessiontoken operation and its observable behavior.
//
// IssueSessionToken may return an error when input validation, dependency calls, or security checks fail.
// IssueSessionToken does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) IssueSessionToken(userID string) (string, error) {
	if e == nil || e.jwtManager == nil {
		return "", ErrEngineNotReady
	}
	return e.jwtManager.CreateSession(userID)
}

// ExtractSubject describes the extractsubject operation and its observable behavior.
//
// ExtractSubject may return an error when input validation, dependency calls, or security checks fail.
// ExtractSubject does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ExtractSubject(token string) (string, error) {
	if e == nil || e.jwtManager == nil {
		return "", ErrEngineNotReady
	}
	subject, err := e.jwtManager.ExtractSubject(token)
	if err != nil {
		return "", ErrTokenInvalid
	}
	return subject, nil
}

// ValidateSessionToken describes the validatesessiontoken operation and its observable behavior.
//
// ValidateSessionToken does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ValidateSessionToken(token, userID string) bool {
	if e == nil || e.jwtManager == nil {
		return false
	}
	return e.jwtManager.ValidateSession(token, userID)
}

// ValidatePendingToken describes the validatependingtoken operation and its observable behavior.
//
// ValidatePendingToken does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ValidatePendingToken(token, userID string) bool {
	if e == nil || e.jwtManager == nil {
		return false
	}
	return e.jwtManager.ValidatePending(token, userID)
}

/*
====================================
THROTTLE SURFACE
====================================
*/

// Throttle consumes one token from key's bucket in the given class. A
// rejected consume fails with [*RateLimitedError]; the returned
// [ThrottleResult] carries the remaining budget either way.
//
// Throttle may return an error when input validation, dependency calls, or security checks fail.
// Throttle does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Throttle(ctx context.Context, key string, class ThrottleClass) (ThrottleResult, error) {
	if e == nil || e.throttle == nil {
		return ThrottleResult{}, ErrEngineNotReady
	}

	policy := e.genPolicy
	prefix := "gen:"
	if class == ThrottleAuth {
		policy = e.authPolicy
		prefix = "auth:"
	}

	result := e.throttle.Consume(prefix+key, policy)
	if !result.Allowed {
		retryAfter := int64(result.RetryAfter.Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		limitErr := &RateLimitedError{RetryAfter: retryAfter}
		e.metricInc(MetricRateLimitHit)
		e.emitAudit(ctx, auditEventRateLimitTriggered, false, "", limitErr, func() map[string]string {
			return map[string]string{"key": key}
		})
		return result, limitErr
	}

	return result, nil
}

/*
====================================
LOCKOUT SURFACE
====================================
*/

func (e *Engine) attemptKey(ctx context.Context, identifier string) string {
	return clientIPFromContext(ctx) + ":" + identifier
}

// RecordLoginFailure describes the recordloginfailure operation and its observable behavior.
//
// RecordLoginFailure does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) RecordLoginFailure(ctx context.Context, identifier string) {
	if e == nil || e.attempts == nil {
		return
	}
	e.attempts.RecordFailure(e.attemptKey(ctx, identifier))
}

// RecordLoginSuccess describes the recordloginsuccess operation and its observable behavior.
//
// RecordLoginSuccess does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) RecordLoginSuccess(ctx context.Context, identifier string) {
	if e == nil || e.attempts == nil {
		return
	}
	e.attempts.RecordSuccess(e.attemptKey(ctx, identifier))
}

// IsLoginLocked describes the isloginlocked operation and its observable behavior.
//
// IsLoginLocked does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) IsLoginLocked(ctx context.Context, identifier string) bool {
	if e == nil || e.attempts == nil {
		return false
	}
	return e.attempts.IsLocked(e.attemptKey(ctx, identifier))
}

// RemainingLockSeconds describes the remaininglockseconds operation and its observable behavior.
//
// RemainingLockSeconds does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) RemainingLockSeconds(ctx context.Context, identifier string) int64 {
	if e == nil || e.attempts == nil {
		return 0
	}
	return e.attempts.RemainingLock(e.attemptKey(ctx, identifier))
}

// RemainingLoginAttempts describes the remainingloginattempts operation and its observable behavior.
//
// RemainingLoginAttempts does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) RemainingLoginAttempts(ctx context.Context, identifier string) int {
	if e == nil || e.attempts == nil {
		return 0
	}
	return e.attempts.RemainingAttempts(e.attemptKey(ctx, identifier))
}
