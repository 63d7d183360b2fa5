package authgate

import (
	"context"
)

// ProvisionTOTP generates a fresh TOTP secret for userID and returns it with
// its otpauth URI and QR code. Nothing is persisted: the secret only becomes
// active through [Engine.ConfirmTOTPSetup], so an abandoned provisioning
// leaves the account unchanged.
//
// ProvisionTOTP may return an error when input validation, dependency calls, or security checks fail.
// ProvisionTOTP does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ProvisionTOTP(ctx context.Context, userID string) (*TOTPProvision, error) {
	if e == nil || e.userProvider == nil {
		return nil, ErrEngineNotReady
	}

	user, err := e.userProvider.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.TOTPEnabled {
		return nil, ErrTOTPAlreadyEnabled
	}

	secret, err := e.totp.GenerateSecret()
	if err != nil {
		return nil, err
	}

	account := user.Email
	if account == "" {
		account = user.Username
	}

	qr, err := e.totp.QRCodeDataURI(account, secret)
	if err != nil {
		return nil, err
	}

	e.emitAudit(ctx, auditEventTOTPSetupRequested, true, userID, nil, nil)

	return &TOTPProvision{
		Secret:    secret,
		URI:       e.totp.ProvisioningURI(account, secret),
		QRCodeURI: qr,
	}, nil
}

// ConfirmTOTPSetup activates the provisioned secret once the user proves
// possession with a valid code. Only then is the secret persisted and the
// account flagged as TOTP-enabled.
//
// ConfirmTOTPSetup may return an error when input validation, dependency calls, or security checks fail.
// ConfirmTOTPSetup does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ConfirmTOTPSetup(ctx context.Context, userID, secret, code string) error {
	if e == nil || e.userProvider == nil {
		return ErrEngineNotReady
	}

	user, err := e.userProvider.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.TOTPEnabled {
		return ErrTOTPAlreadyEnabled
	}

	if !e.totp.VerifyCode(secret, code) {
		e.emitAudit(ctx, auditEventMFAFailure, false, userID, ErrTOTPInvalid, nil)
		return ErrTOTPInvalid
	}

	if err := e.userProvider.EnableTOTP(ctx, userID, secret); err != nil {
		return err
	}

	e.metricInc(MetricTOTPEnabled)
	e.emitAudit(ctx, auditEventTOTPEnabled, true, userID, nil, nil)

	return nil
}

// DisableTOTP turns the second factor off again. The caller must present a
// code valid for the currently stored secret, so a stolen session alone
// cannot drop the factor.
//
// DisableTOTP may return an error when input validation, dependency calls, or security checks fail.
// DisableTOTP does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) DisableTOTP(ctx context.Context, userID, code string) error {
	if e == nil || e.userProvider == nil {
		return ErrEngineNotReady
	}

	user, err := e.userProvider.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.TOTPEnabled {
		return ErrTOTPNotEnabled
	}

	if !e.totp.VerifyCode(user.TOTPSecret, code) {
		e.emitAudit(ctx, auditEventMFAFailure, false, userID, ErrTOTPInvalid, nil)
		return ErrTOTPInvalid
	}

	if err := e.userProvider.DisableTOTP(ctx, userID); err != nil {
		return err
	}

	e.metricInc(MetricTOTPDisabled)
	e.emitAudit(ctx, auditEventTOTPDisabled, true, userID, nil, nil)

	return nil
}
