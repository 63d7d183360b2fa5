package totp

import (
	"crypto/rand"
	"encoding/base32"
	"encoding/base64"
	"errors"
	"io"
	"net/url"
	"time"

	"github.com/pquerna/otp"
	ptotp "github.com/pquerna/otp/totp"
	"github.com/skip2/go-qrcode"
)

// ErrQRRender is an exported constant or variable used by the account security engine.
var ErrQRRender = errors.New("qr code rendering failed")

const (
	secretBytes = 20
	codeDigits  = 6
	period      = 30
	skew        = 1
	qrPixels    = 256
)

// Config defines a public type used by authgate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Issuer string

	// Now overrides the verification clock. Nil means time.Now.
	Now func() time.Time
}

// Engine defines a public type used by authgate APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	issuer string
	now    func() time.Time
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New(cfg Config) (*Engine, error) {
	if cfg.Issuer == "" {
		return nil, errors.New("issuer required")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Engine{issuer: cfg.Issuer, now: now}, nil
}

// GenerateSecret returns a fresh 160-bit shared secret encoded as unpadded
// Base32, the alphabet authenticator apps expect.
//
// GenerateSecret may return an error when input validation, dependency calls, or security checks fail.
// GenerateSecret does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) GenerateSecret() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", err
	}

	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf), nil
}

// ProvisioningURI returns the otpauth://totp URI for enrolling account with
// the given secret in an authenticator app.
func (e *Engine) ProvisioningURI(account, secret string) string {
	query := url.Values{}
	query.Set("secret", secret)
	query.Set("issuer", e.issuer)

	u := url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + e.issuer + ":" + account,
		RawQuery: query.Encode(),
	}

	return u.String()
}

// QRCodeDataURI renders the provisioning URI as a PNG image wrapped in a
// data: URI suitable for direct embedding. Rendering failure returns
// [ErrQRRender].
//
// QRCodeDataURI may return an error when input validation, dependency calls, or security checks fail.
// QRCodeDataURI does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) QRCodeDataURI(account, secret string) (string, error) {
	png, err := qrcode.Encode(e.ProvisioningURI(account, secret), qrcode.Medium, qrPixels)
	if err != nil {
		return "", ErrQRRender
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// VerifyCode reports whether code is currently valid for secret. An empty
// secret or a code that is not exactly 6 characters is false without further
// work; library failures also collapse to false.
func (e *Engine) VerifyCode(secret, code string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	if secret == "" || len(code) != codeDigits {
		return false
	}

	valid, err := ptotp.ValidateCustom(code, secret, e.now().UTC(), ptotp.ValidateOpts{
		Period:    period,
		Skew:      skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false
	}

	return valid
}
