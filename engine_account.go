package authgate

import (
	"context"
	"errors"
)

// Register creates a new account after checking that neither the email nor
// the username is taken, in that order. The new account is logged in
// immediately, so the result carries a session token. No partial state is
// left behind on failure.
//
// Register may return an error when input validation, dependency calls, or security checks fail.
// Register does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Register(ctx context.Context, username, email, pass string) (*RegisterResult, error) {
	if e == nil || e.userProvider == nil {
		return nil, ErrEngineNotReady
	}

	if username == "" || email == "" || pass == "" {
		return nil, ErrInvalidCredentials
	}

	if _, err := e.userProvider.GetUserByEmail(ctx, email); err == nil {
		return nil, e.registerDuplicate(ctx, "email", email)
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	if _, err := e.userProvider.GetUserByUsername(ctx, username); err == nil {
		return nil, e.registerDuplicate(ctx, "username", username)
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hash, err := e.passwordHash.Hash(pass)
	if err != nil {
		return nil, err
	}

	user, err := e.userProvider.CreateUser(ctx, CreateUserInput{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, ErrProviderDuplicateIdentifier) {
			return nil, ErrDuplicateResource
		}
		return nil, err
	}

	token, err := e.jwtManager.CreateSession(user.UserID)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricAccountCreationSuccess)
	e.emitAudit(ctx, auditEventAccountCreationSuccess, true, user.UserID, nil, nil)

	return &RegisterResult{User: user, SessionToken: token}, nil
}

func (e *Engine) registerDuplicate(ctx context.Context, field, value string) error {
	e.metricInc(MetricAccountCreationDuplicate)
	e.emitAudit(ctx, auditEventAccountCreationDuplicate, false, "", ErrDuplicateResource, func() map[string]string {
		return map[string]string{"field": field, "value": value}
	})
	return ErrDuplicateResource
}

// ChangePassword re-hashes and stores newPass for userID. The current
// password must verify against the stored hash, and newPass must equal
// confirm. A failed current-password check is an authorization failure, not
// a validation failure, and is checked first.
//
// ChangePassword may return an error when input validation, dependency calls, or security checks fail.
// ChangePassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ChangePassword(ctx context.Context, userID, current, newPass, confirm string) error {
	if e == nil || e.userProvider == nil {
		return ErrEngineNotReady
	}

	user, err := e.userProvider.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := e.passwordHash.Verify(current, user.PasswordHash)
	if err != nil || !ok {
		e.metricInc(MetricPasswordChangeInvalidOld)
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, userID, ErrInvalidCredentials, nil)
		return ErrInvalidCredentials
	}

	if newPass != confirm {
		e.metricInc(MetricPasswordChangeMismatch)
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, userID, ErrPasswordMismatch, nil)
		return ErrPasswordMismatch
	}

	hash, err := e.passwordHash.Hash(newPass)
	if err != nil {
		return err
	}

	if err := e.userProvider.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return err
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordChangeSuccess, true, userID, nil, nil)

	return nil
}
