package totp

import (
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp"
	ptotp "github.com/pquerna/otp/totp"
)

func newTestEngine(t *testing.T, now func() time.Time) *Engine {
	t.Helper()
	e, err := New(Config{Issuer: "authgate-test", Now: now})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

func codeAt(t *testing.T, secret string, at time.Time) string {
	t.Helper()
	code, err := ptotp.GenerateCodeCustom(secret, at.UTC(), ptotp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}
	return code
}

func TestGenerateSecretShape(t *testing.T) {
	e := newTestEngine(t, nil)

	secret, err := e.GenerateSecret()
	if err != nil {
		t.Fatalf("generate secret: %v", err)
	}
	// 20 bytes -> 32 base32 characters without padding.
	if len(secret) != 32 {
		t.Fatalf("expected 32-character secret, got %d", len(secret))
	}
	if strings.Contains(secret, "=") {
		t.Fatal("secret must not contain padding")
	}

	other, err := e.GenerateSecret()
	if err != nil {
		t.Fatalf("generate secret: %v", err)
	}
	if secret == other {
		t.Fatal("expected distinct secrets across calls")
	}
}

func TestVerifyCodeAcceptsCurrentAndAdjacentSteps(t *testing.T) {
	anchor := time.Date(2026, 3, 14, 12, 0, 15, 0, time.UTC)
	e := newTestEngine(t, func() time.Time { return anchor })

	secret, err := e.GenerateSecret()
	if err != nil {
		t.Fatalf("generate secret: %v", err)
	}

	if !e.VerifyCode(secret, codeAt(t, secret, anchor)) {
		t.Fatal("expected current-step code to verify")
	}
	if !e.VerifyCode(secret, codeAt(t, secret, anchor.Add(-30*time.Second))) {
		t.Fatal("expected previous-step code to verify within skew")
	}
	if !e.VerifyCode(secret, codeAt(t, secret, anchor.Add(30*time.Second))) {
		t.Fatal("expected next-step code to verify within skew")
	}
}

func TestVerifyCodeRejectsDistantSteps(t *testing.T) {
	anchor := time.Date(2026, 3, 14, 12, 0, 15, 0, time.UTC)
	e := newTestEngine(t, func() time.Time { return anchor })

	secret, err := e.GenerateSecret()
	if err != nil {
		t.Fatalf("generate secret: %v", err)
	}

	stale := codeAt(t, secret, anchor.Add(-3*time.Minute))
	if stale != codeAt(t, secret, anchor) && e.VerifyCode(secret, stale) {
		t.Fatal("expected code from 3 minutes ago to be rejected")
	}
}

func TestVerifyCodeFailsClosed(t *testing.T) {
	e := newTestEngine(t, nil)

	if e.VerifyCode("", "123456") {
		t.Fatal("expected empty secret to fail")
	}
	if e.VerifyCode("JBSWY3DPEHPK3PXP", "12345") {
		t.Fatal("expected 5-digit code to fail")
	}
	if e.VerifyCode("JBSWY3DPEHPK3PXP", "1234567") {
		t.Fatal("expected 7-digit code to fail")
	}
	if e.VerifyCode("not!a!secret", "123456") {
		t.Fatal("expected malformed secret to fail, not error")
	}
}

func TestProvisioningURIAndQRCode(t *testing.T) {
	e := newTestEngine(t, nil)

	uri := e.ProvisioningURI("alice@example.com", "JBSWY3DPEHPK3PXP")
	if !strings.HasPrefix(uri, "otpauth://totp/") {
		t.Fatalf("unexpected URI scheme: %s", uri)
	}
	if !strings.Contains(uri, "secret=JBSWY3DPEHPK3PXP") {
		t.Fatalf("URI missing secret: %s", uri)
	}
	if !strings.Contains(uri, "issuer=authgate-test") {
		t.Fatalf("URI missing issuer: %s", uri)
	}

	dataURI, err := e.QRCodeDataURI("alice@example.com", "JBSWY3DPEHPK3PXP")
	if err != nil {
		t.Fatalf("qr code: %v", err)
	}
	if !strings.HasPrefix(dataURI, "data:image/png;base64,") {
		t.Fatalf("unexpected data URI prefix: %.40s", dataURI)
	}
}
