package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrTokenInvalid is an exported constant or variable used by the account security engine.
var ErrTokenInvalid = errors.New("invalid token")

// pendingType marks tokens issued mid-login while a second factor is still
// outstanding. Session tokens carry no type claim.
const pendingType = "2fa_temp"

// Config defines a public type used by authgate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Secret     []byte
	SessionTTL time.Duration
	PendingTTL time.Duration

	// Now overrides the clock used for issuance and validation. Nil means
	// time.Now.
	Now func() time.Time
}

// Manager defines a public type used by authgate APIs.
//
// Manager instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Manager struct {
	config Config
	now    func() time.Time
}

// Claims defines a public type used by authgate APIs.
//
// Claims instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Claims struct {
	TokenType string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// NewManager describes the newmanager operation and its observable behavior.
//
// NewManager may return an error when input validation, dependency calls, or security checks fail.
// NewManager does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("hs256 requires secret")
	}
	if cfg.SessionTTL <= 0 {
		return nil, errors.New("invalid SessionTTL configuration")
	}
	if cfg.PendingTTL <= 0 {
		return nil, errors.New("invalid PendingTTL configuration")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Manager{config: cfg, now: now}, nil
}

// CreateSession issues a full session token for subject, valid for the
// configured SessionTTL.
//
// CreateSession may return an error when input validation, dependency calls, or security checks fail.
// CreateSession does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Manager) CreateSession(subject string) (string, error) {
	return m.create(subject, "", m.config.SessionTTL)
}

// CreatePending issues a short-lived token for subject that only proves the
// first authentication factor succeeded. It carries the pending type claim
// and never validates as a session token.
//
// CreatePending may return an error when input validation, dependency calls, or security checks fail.
// CreatePending does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Manager) CreatePending(subject string) (string, error) {
	return m.create(subject, pendingType, m.config.PendingTTL)
}

func (m *Manager) create(subject, tokenType string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("subject required")
	}

	issuedAt := m.now()
	claims := Claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(m.config.Secret)
}

// ExtractSubject parses tokenStr and returns its subject claim. Expiry is
// checked during parsing, so an expired token yields [ErrTokenInvalid].
//
// ExtractSubject may return an error when input validation, dependency calls, or security checks fail.
// ExtractSubject does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Manager) ExtractSubject(tokenStr string) (string, error) {
	claims, err := m.parse(tokenStr)
	if err != nil {
		return "", ErrTokenInvalid
	}
	if claims.Subject == "" {
		return "", ErrTokenInvalid
	}

	return claims.Subject, nil
}

// ValidateSession reports whether tokenStr is a live session token bound to
// subject. Every failure mode, including unexpected parser panics, collapses
// to false.
func (m *Manager) ValidateSession(tokenStr, subject string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	claims, err := m.parse(tokenStr)
	if err != nil {
		return false
	}
	if claims.TokenType == pendingType {
		return false
	}

	return claims.Subject == subject
}

// ValidatePending reports whether tokenStr is a live pending-2FA token bound
// to subject. Every failure mode, including unexpected parser panics,
// collapses to false.
func (m *Manager) ValidatePending(tokenStr, subject string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	claims, err := m.parse(tokenStr)
	if err != nil {
		return false
	}
	if claims.TokenType != pendingType {
		return false
	}

	return claims.Subject == subject
}

func (m *Manager) parse(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.config.Secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}
