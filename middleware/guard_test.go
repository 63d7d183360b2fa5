package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	authgate "github.com/jcastellr/authgate"
)

type memoryProvider struct {
	mu    sync.Mutex
	users map[string]authgate.UserRecord
	next  int
}

func newMemoryProvider() *memoryProvider {
	return &memoryProvider{users: map[string]authgate.UserRecord{}}
}

func (p *memoryProvider) GetUserByEmail(_ context.Context, email string) (authgate.UserRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, u := range p.users {
		if u.Email == email {
			return u, nil
		}
	}
	return authgate.UserRecord{}, authgate.ErrUserNotFound
}

func (p *memoryProvider) GetUserByUsername(_ context.Context, username string) (authgate.UserRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, u := range p.users {
		if u.Username == username {
			return u, nil
		}
	}
	return authgate.UserRecord{}, authgate.ErrUserNotFound
}

func (p *memoryProvider) GetUserByID(_ context.Context, userID string) (authgate.UserRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if u, ok := p.users[userID]; ok {
		return u, nil
	}
	return authgate.UserRecord{}, authgate.ErrUserNotFound
}

func (p *memoryProvider) CreateUser(_ context.Context, input authgate.CreateUserInput) (authgate.UserRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next++
	u := authgate.UserRecord{
		UserID:       "u" + strconv.Itoa(p.next),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: input.PasswordHash,
	}
	p.users[u.UserID] = u
	return u, nil
}

func (p *memoryProvider) UpdatePasswordHash(_ context.Context, userID, newHash string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	u := p.users[userID]
	u.PasswordHash = newHash
	p.users[userID] = u
	return nil
}

func (p *memoryProvider) EnableTOTP(_ context.Context, userID, secret string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	u := p.users[userID]
	u.TOTPSecret = secret
	u.TOTPEnabled = true
	p.users[userID] = u
	return nil
}

func (p *memoryProvider) DisableTOTP(_ context.Context, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	u := p.users[userID]
	u.TOTPSecret = ""
	u.TOTPEnabled = false
	p.users[userID] = u
	return nil
}

func newTestEngine(t *testing.T) (*authgate.Engine, *memoryProvider) {
	t.Helper()
	provider := newMemoryProvider()
	engine, err := authgate.New().
		WithSecret([]byte("0123456789abcdef0123456789abcdef")).
		WithUserProvider(provider).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, provider
}

func TestGuardRejectsMissingAndBadTokens(t *testing.T) {
	engine, _ := newTestEngine(t)

	handler := Guard(engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", rec.Code)
	}
}

func TestGuardInjectsCurrentUser(t *testing.T) {
	engine, _ := newTestEngine(t)

	result, err := engine.Register(context.Background(), "alice", "alice@example.com", "str0ng-password")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	var seen authgate.UserRecord
	handler := Guard(engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := CurrentUserFromContext(r.Context())
		if !ok {
			t.Fatal("expected current user in context")
		}
		seen = user
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+result.SessionToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if seen.Username != "alice" {
		t.Fatalf("expected alice, got %q", seen.Username)
	}
}

func TestThrottleSetsHeadersAndRejects(t *testing.T) {
	engine, _ := newTestEngine(t)

	handler := Throttle(engine, authgate.ThrottleAuth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var lastRemaining string
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "1.2.3.4:5678"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected request %d to pass, got %d", i+1, rec.Code)
		}
		lastRemaining = rec.Header().Get("X-Rate-Limit-Remaining")
	}
	if lastRemaining != "0" {
		t.Fatalf("expected 0 remaining after burst, got %q", lastRemaining)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "1.2.3.4:5678"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 past capacity, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header on rejection")
	}
}

func TestThrottleHonorsForwardedFor(t *testing.T) {
	engine, _ := newTestEngine(t)

	handler := Throttle(engine, authgate.ThrottleAuth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if i < 5 && rec.Code != http.StatusOK {
			t.Fatalf("expected request %d to pass, got %d", i+1, rec.Code)
		}
		if i == 5 && rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected forwarded client to be limited, got %d", rec.Code)
		}
	}

	// A different forwarded client keeps its own bucket.
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", "198.51.100.7")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected distinct forwarded client to pass, got %d", rec.Code)
	}
}
