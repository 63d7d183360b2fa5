package authgate

import "time"

// SecurityReport is a read-only snapshot of the engine's security posture,
// returned by [Engine.SecurityReport].
type SecurityReport struct {
	SigningAlgorithm  string
	SessionTTL        time.Duration
	PendingTTL        time.Duration
	Argon2            PasswordConfigReport
	MaxLoginAttempts  int
	LockDuration      time.Duration
	AuthRatePerMin    int
	GeneralRatePerMin int
	AuditActive       bool
	MetricsActive     bool
}

// PasswordConfigReport contains the Argon2 parameters active in the engine.
type PasswordConfigReport struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// SecurityReport describes the securityreport operation and its observable behavior.
//
// SecurityReport does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	authPerMin := 0
	if e.config.RateLimit.AuthWindow > 0 {
		authPerMin = int(float64(e.config.RateLimit.AuthCapacity) * float64(time.Minute) / float64(e.config.RateLimit.AuthWindow))
	}
	generalPerMin := 0
	if e.config.RateLimit.GeneralWindow > 0 {
		generalPerMin = int(float64(e.config.RateLimit.GeneralCapacity) * float64(time.Minute) / float64(e.config.RateLimit.GeneralWindow))
	}

	return SecurityReport{
		SigningAlgorithm: "HS256",
		SessionTTL:       e.config.Token.SessionTTL,
		PendingTTL:       e.config.Token.PendingTTL,
		Argon2: PasswordConfigReport{
			Memory:      e.config.Password.Memory,
			Time:        e.config.Password.Time,
			Parallelism: e.config.Password.Parallelism,
			SaltLength:  e.config.Password.SaltLength,
			KeyLength:   e.config.Password.KeyLength,
		},
		MaxLoginAttempts:  e.config.Lockout.MaxAttempts,
		LockDuration:      e.config.Lockout.LockDuration,
		AuthRatePerMin:    authPerMin,
		GeneralRatePerMin: generalPerMin,
		AuditActive:       e.config.Audit.Enabled,
		MetricsActive:     e.config.Metrics.Enabled,
	}
}
