package authgate

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestProvisionTOTPLeavesAccountUntouched(t *testing.T) {
	engine, provider, _ := newTestEngine(t)
	ctx := context.Background()

	user := registerUser(t, engine, "alice", "alice@example.com", "real-password")

	prov, err := engine.ProvisionTOTP(ctx, user.UserID)
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if prov.Secret == "" {
		t.Fatal("expected a generated secret")
	}
	if !strings.HasPrefix(prov.URI, "otpauth://totp/") {
		t.Fatalf("unexpected provisioning URI %q", prov.URI)
	}
	if !strings.Contains(prov.URI, "alice%40example.com") && !strings.Contains(prov.URI, "alice@example.com") {
		t.Fatalf("expected account email in URI, got %q", prov.URI)
	}
	if !strings.HasPrefix(prov.QRCodeURI, "data:image/png;base64,") {
		t.Fatalf("unexpected QR data URI prefix %q", prov.QRCodeURI[:min(len(prov.QRCodeURI), 32)])
	}

	// Nothing persisted until the code is confirmed.
	stored, err := provider.GetUserByID(ctx, user.UserID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if stored.TOTPEnabled || stored.TOTPSecret != "" {
		t.Fatalf("provisioning must not persist state, got %+v", stored)
	}
}

func TestConfirmTOTPSetupActivatesSecret(t *testing.T) {
	engine, provider, clock := newTestEngine(t)
	ctx := context.Background()

	user := registerUser(t, engine, "bob", "bob@example.com", "real-password")

	prov, err := engine.ProvisionTOTP(ctx, user.UserID)
	if err != nil {
		t.Fatalf("provision: %v", err)
	}

	// A wrong code must not activate anything.
	if err := engine.ConfirmTOTPSetup(ctx, user.UserID, prov.Secret, "000000"); !errors.Is(err, ErrTOTPInvalid) {
		t.Fatalf("expected ErrTOTPInvalid, got %v", err)
	}
	stored, _ := provider.GetUserByID(ctx, user.UserID)
	if stored.TOTPEnabled {
		t.Fatal("failed confirmation must not enable TOTP")
	}

	code := totpCodeAt(t, prov.Secret, clock.Now())
	if err := engine.ConfirmTOTPSetup(ctx, user.UserID, prov.Secret, code); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	stored, _ = provider.GetUserByID(ctx, user.UserID)
	if !stored.TOTPEnabled || stored.TOTPSecret != prov.Secret {
		t.Fatalf("expected active secret after confirmation, got %+v", stored)
	}
}

func TestProvisionAndConfirmRejectAlreadyEnabled(t *testing.T) {
	engine, _, clock := newTestEngine(t)
	ctx := context.Background()

	user := registerUser(t, engine, "carol", "carol@example.com", "real-password")
	secret := enableTOTPFor(t, engine, clock, user.UserID)

	if _, err := engine.ProvisionTOTP(ctx, user.UserID); !errors.Is(err, ErrTOTPAlreadyEnabled) {
		t.Fatalf("expected ErrTOTPAlreadyEnabled on provision, got %v", err)
	}
	code := totpCodeAt(t, secret, clock.Now())
	if err := engine.ConfirmTOTPSetup(ctx, user.UserID, secret, code); !errors.Is(err, ErrTOTPAlreadyEnabled) {
		t.Fatalf("expected ErrTOTPAlreadyEnabled on confirm, got %v", err)
	}
}

func TestDisableTOTPRequiresValidCode(t *testing.T) {
	engine, provider, clock := newTestEngine(t)
	ctx := context.Background()

	user := registerUser(t, engine, "dave", "dave@example.com", "real-password")
	secret := enableTOTPFor(t, engine, clock, user.UserID)

	if err := engine.DisableTOTP(ctx, user.UserID, "000000"); !errors.Is(err, ErrTOTPInvalid) {
		t.Fatalf("expected ErrTOTPInvalid for bad code, got %v", err)
	}

	if err := engine.DisableTOTP(ctx, user.UserID, totpCodeAt(t, secret, clock.Now())); err != nil {
		t.Fatalf("disable: %v", err)
	}

	stored, _ := provider.GetUserByID(ctx, user.UserID)
	if stored.TOTPEnabled || stored.TOTPSecret != "" {
		t.Fatalf("expected factor removed, got %+v", stored)
	}

	// Once disabled, plain password login works again.
	result, err := engine.Login(ctx, "dave@example.com", "real-password")
	if err != nil {
		t.Fatalf("login after disable: %v", err)
	}
	if result.MFARequired {
		t.Fatal("expected no MFA challenge after disable")
	}
}

func TestDisableTOTPWhenNotEnabled(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	user := registerUser(t, engine, "erin", "erin@example.com", "real-password")

	if err := engine.DisableTOTP(ctx, user.UserID, "123456"); !errors.Is(err, ErrTOTPNotEnabled) {
		t.Fatalf("expected ErrTOTPNotEnabled, got %v", err)
	}
}
