package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	checkoutsvc "github.com/glowmart/glowmart-backend/internal/checkout"
	"github.com/glowmart/glowmart-backend/internal/locations"
	pkgauth "github.com/glowmart/glowmart-backend/pkg/auth"
	"github.com/glowmart/glowmart-backend/pkg/config"
	"github.com/glowmart/glowmart-backend/pkg/enums"
	"github.com/glowmart/glowmart-backend/pkg/ghn"
)

type stubDirectory struct{}

func (stubDirectory) Provinces(context.Context) ([]ghn.Province, error) {
	return []ghn.Province{{ProvinceID: 202, Name: "Ho Chi Minh City"}}, nil
}

func (stubDirectory) Districts(context.Context, int) ([]ghn.District, error) {
	return nil, nil
}

func (stubDirectory) Wards(context.Context, int) ([]ghn.Ward, error) {
	return nil, nil
}

func (stubDirectory) ValidateSelection(context.Context, locations.Selection) error {
	return nil
}

func (stubDirectory) ResolveNames(context.Context, locations.Selection) (*locations.ResolvedNames, error) {
	return nil, nil
}

type fakeRedisStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeRedisStore() *fakeRedisStore {
	return &fakeRedisStore{values: map[string]string{}}
}

func (f *fakeRedisStore) Ping(context.Context) error { return nil }

func (f *fakeRedisStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (f *fakeRedisStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value.(string)
	return true, nil
}

func (f *fakeRedisStore) IdempotencyKey(scope, id string) string {
	return "gm:idempotency:" + scope + ":" + id
}

func (f *fakeRedisStore) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

type stubCheckout struct {
	startCalls  int
	submitCalls int
}

func (s *stubCheckout) Start(context.Context, string, string, int64) (*checkoutsvc.View, error) {
	s.startCalls++
	return &checkoutsvc.View{ID: "sess-1", Step: enums.CheckoutStepAddressEntry}, nil
}

func (s *stubCheckout) Get(_ context.Context, _, sessionID string) (*checkoutsvc.View, error) {
	return &checkoutsvc.View{ID: sessionID, Step: enums.CheckoutStepAddressEntry}, nil
}

func (s *stubCheckout) UpdateAddress(_ context.Context, _, sessionID string, _ checkoutsvc.AddressPatch) (*checkoutsvc.View, error) {
	return &checkoutsvc.View{ID: sessionID, Step: enums.CheckoutStepAddressEntry}, nil
}

func (s *stubCheckout) AttachCoupon(_ context.Context, _, _, sessionID, _ string) (*checkoutsvc.View, error) {
	return &checkoutsvc.View{ID: sessionID, Step: enums.CheckoutStepAddressEntry}, nil
}

func (s *stubCheckout) ConfirmAddress(_ context.Context, _, sessionID string) (*checkoutsvc.View, error) {
	return &checkoutsvc.View{ID: sessionID, Step: enums.CheckoutStepPaymentSelection}, nil
}

func (s *stubCheckout) SelectPaymentMethod(_ context.Context, _, sessionID, _ string) (*checkoutsvc.View, error) {
	return &checkoutsvc.View{ID: sessionID, Step: enums.CheckoutStepPaymentSelection}, nil
}

func (s *stubCheckout) Submit(context.Context, string, string, string) (*checkoutsvc.SubmitResult, error) {
	s.submitCalls++
	return &checkoutsvc.SubmitResult{OrderID: "ord-1", Step: enums.CheckoutStepCompleted}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "8080"},
		JWT: config.JWTConfig{Secret: "test-secret", Issuer: "glowmart-test"},
	}
}

func TestRouterLivenessAndPublicRoutes(t *testing.T) {
	router := NewRouter(testConfig(), nil, nil, nil, stubDirectory{}, nil)

	for _, path := range []string{"/health/live", "/api/public/ping", "/api/v1/locations/provinces"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestRouterCheckoutRequiresAuth(t *testing.T) {
	router := NewRouter(testConfig(), nil, nil, nil, stubDirectory{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/sessions", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func mintToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), uuid.New(), time.Hour)
	if err != nil {
		t.Fatalf("MintAccessToken: %v", err)
	}
	return token
}

func TestRouterEnforcesIdempotencyOnSubmit(t *testing.T) {
	cfg := testConfig()
	checkout := &stubCheckout{}
	router := NewRouter(cfg, nil, newFakeRedisStore(), nil, stubDirectory{}, checkout)
	token := mintToken(t, cfg)

	// The guarded route refuses to run without a key.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/sessions/sess-1/submit", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without a key, got %d", resp.Code)
	}
	if checkout.submitCalls != 0 {
		t.Fatalf("handler must not run without a key")
	}

	// Two identical keyed submits run the handler once and replay the
	// stored response.
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/sessions/sess-1/submit", strings.NewReader(`{}`))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Idempotency-Key", "key-1")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusCreated {
			t.Fatalf("attempt %d: expected 201 got %d", i, resp.Code)
		}
		if !strings.Contains(resp.Body.String(), "ord-1") {
			t.Fatalf("attempt %d: unexpected body %q", i, resp.Body.String())
		}
	}
	if checkout.submitCalls != 1 {
		t.Fatalf("submit must run once, ran %d times", checkout.submitCalls)
	}
}

func TestRouterEnforcesIdempotencyOnSessionCreate(t *testing.T) {
	cfg := testConfig()
	checkout := &stubCheckout{}
	router := NewRouter(cfg, nil, newFakeRedisStore(), nil, stubDirectory{}, checkout)
	token := mintToken(t, cfg)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/sessions", strings.NewReader(`{"discount_amount":0}`))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Idempotency-Key", "key-start")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusCreated {
			t.Fatalf("attempt %d: expected 201 got %d", i, resp.Code)
		}
	}
	if checkout.startCalls != 1 {
		t.Fatalf("session create must run once, ran %d times", checkout.startCalls)
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	router := NewRouter(testConfig(), nil, nil, nil, stubDirectory{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
