package internaldefs

import (
	authgate "github.com/jcastellr/authgate"
)

// CounterDef defines a public type used by authgate APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   authgate.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the account security engine.
var CounterDefs = []CounterDef{
	{ID: authgate.MetricLoginSuccess, Name: "authgate_login_success_total", Help: "Successful login attempts."},
	{ID: authgate.MetricLoginFailure, Name: "authgate_login_failure_total", Help: "Failed login attempts."},
	{ID: authgate.MetricLoginLocked, Name: "authgate_login_locked_total", Help: "Login attempts rejected by an active lockout."},
	{ID: authgate.MetricMFARequired, Name: "authgate_mfa_required_total", Help: "Login flows requiring a second factor."},
	{ID: authgate.MetricMFASuccess, Name: "authgate_mfa_success_total", Help: "Successful second-factor confirmations."},
	{ID: authgate.MetricMFAFailure, Name: "authgate_mfa_failure_total", Help: "Failed second-factor confirmations."},
	{ID: authgate.MetricTOTPEnabled, Name: "authgate_totp_enabled_total", Help: "TOTP enrollment confirmations."},
	{ID: authgate.MetricTOTPDisabled, Name: "authgate_totp_disabled_total", Help: "TOTP disable operations."},
	{ID: authgate.MetricAccountCreationSuccess, Name: "authgate_account_creation_success_total", Help: "Successful account creations."},
	{ID: authgate.MetricAccountCreationDuplicate, Name: "authgate_account_creation_duplicate_total", Help: "Account creation attempts rejected as duplicate."},
	{ID: authgate.MetricPasswordChangeSuccess, Name: "authgate_password_change_success_total", Help: "Successful password changes."},
	{ID: authgate.MetricPasswordChangeInvalidOld, Name: "authgate_password_change_invalid_old_total", Help: "Password change attempts with invalid current password."},
	{ID: authgate.MetricPasswordChangeMismatch, Name: "authgate_password_change_mismatch_total", Help: "Password change attempts with mismatched confirmation."},
	{ID: authgate.MetricRateLimitHit, Name: "authgate_rate_limit_hit_total", Help: "Rate-limit checks that denied requests."},
}
