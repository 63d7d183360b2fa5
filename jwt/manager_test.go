package jwt

import (
	"errors"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestManager(t *testing.T, now func() time.Time) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		Secret:     testSecret,
		SessionTTL: time.Hour,
		PendingTTL: 5 * time.Minute,
		Now:        now,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestCreateSessionRoundTrip(t *testing.T) {
	m := newTestManager(t, nil)

	token, err := m.CreateSession("alice")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	subject, err := m.ExtractSubject(token)
	if err != nil {
		t.Fatalf("extract subject: %v", err)
	}
	if subject != "alice" {
		t.Fatalf("expected subject alice, got %q", subject)
	}

	if !m.ValidateSession(token, "alice") {
		t.Fatal("expected session token to validate for its subject")
	}
	if m.ValidateSession(token, "bob") {
		t.Fatal("expected session token to fail for a different subject")
	}
}

func TestPendingAndSessionTokensDoNotCross(t *testing.T) {
	m := newTestManager(t, nil)

	session, err := m.CreateSession("alice")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	pending, err := m.CreatePending("alice")
	if err != nil {
		t.Fatalf("create pending: %v", err)
	}

	if m.ValidateSession(pending, "alice") {
		t.Fatal("pending token must not validate as a session token")
	}
	if m.ValidatePending(session, "alice") {
		t.Fatal("session token must not validate as a pending token")
	}
	if !m.ValidatePending(pending, "alice") {
		t.Fatal("expected pending token to validate for its subject")
	}
}

func TestExpiryUsesInjectedClock(t *testing.T) {
	current := time.Now()
	m := newTestManager(t, func() time.Time { return current })

	token, err := m.CreateSession("alice")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	pending, err := m.CreatePending("alice")
	if err != nil {
		t.Fatalf("create pending: %v", err)
	}

	current = current.Add(6 * time.Minute)
	if m.ValidatePending(pending, "alice") {
		t.Fatal("expected pending token to expire after 5 minutes")
	}
	if !m.ValidateSession(token, "alice") {
		t.Fatal("expected session token to still be valid after 6 minutes")
	}

	current = current.Add(time.Hour)
	if m.ValidateSession(token, "alice") {
		t.Fatal("expected session token to expire after its TTL")
	}
	if _, err := m.ExtractSubject(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for expired token, got %v", err)
	}
}

func TestExtractSubjectRejectsTamperedToken(t *testing.T) {
	m := newTestManager(t, nil)

	claims := Claims{RegisteredClaims: gjwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	tok := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims)
	forged, err := tok.SignedString([]byte("another-secret-another-secret-32"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := m.ExtractSubject(forged); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for forged token, got %v", err)
	}
	if m.ValidateSession(forged, "alice") {
		t.Fatal("expected forged token to fail validation")
	}
}

func TestValidateRejectsWrongAlgorithm(t *testing.T) {
	m := newTestManager(t, nil)

	claims := Claims{RegisteredClaims: gjwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	tok := gjwt.NewWithClaims(gjwt.SigningMethodNone, claims)
	unsigned, err := tok.SignedString(gjwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if m.ValidateSession(unsigned, "alice") {
		t.Fatal("expected unsigned token to be rejected")
	}
}

func TestValidateGarbageInputIsFalse(t *testing.T) {
	m := newTestManager(t, nil)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if m.ValidateSession(token, "alice") {
			t.Fatalf("expected garbage input %q to fail session validation", token)
		}
		if m.ValidatePending(token, "alice") {
			t.Fatalf("expected garbage input %q to fail pending validation", token)
		}
	}
}
