package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/glowmart/glowmart-backend/internal/shipping"
	pkgerrors "github.com/glowmart/glowmart-backend/pkg/errors"
)

type fakeSessionStore struct {
	values map[string]string
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeSessionStore) Get(_ context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	value, ok := f.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (f *fakeSessionStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	raw, ok := value.([]byte)
	if !ok {
		return errors.New("expected byte payload")
	}
	f.values[key] = string(raw)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeSessionStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

// Eval mirrors the server-side check-and-set: the write happens only
// while the stored quote sequence still matches the argument.
func (f *fakeSessionStore) Eval(_ context.Context, _ string, keys []string, args ...any) (any, error) {
	if f.setErr != nil {
		return nil, f.setErr
	}
	if len(keys) != 1 || len(args) < 2 {
		return nil, errors.New("unexpected script invocation")
	}
	current, ok := f.values[keys[0]]
	if !ok {
		return int64(0), nil
	}
	var decoded struct {
		QuoteSeq uint64 `json:"quote_seq"`
	}
	if err := json.Unmarshal([]byte(current), &decoded); err != nil {
		return nil, err
	}
	seq, ok := args[1].(uint64)
	if !ok {
		return nil, errors.New("expected sequence argument")
	}
	if decoded.QuoteSeq != seq {
		return int64(0), nil
	}
	payload, ok := args[0].([]byte)
	if !ok {
		return nil, errors.New("expected byte payload")
	}
	f.values[keys[0]] = string(payload)
	return int64(1), nil
}

func (f *fakeSessionStore) SessionKey(id string) string {
	return "gm:checkout_session:" + id
}

func TestStoreRoundTrip(t *testing.T) {
	fake := newFakeSessionStore()
	store, err := NewStore(fake, 2*time.Hour)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	session := NewSession("user-1", testSnapshot(), 10000, time.Now().UTC())
	session.QuoteSeq = 3
	if err := store.Save(context.Background(), session); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if fake.ttls[fake.SessionKey(session.ID)] != 2*time.Hour {
		t.Fatalf("session must expire after the configured ttl")
	}

	loaded, err := store.Load(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.UserID != "user-1" || loaded.QuoteSeq != 3 {
		t.Fatalf("unexpected session %+v", loaded)
	}
	if loaded.OrderIdempotencyKey != session.OrderIdempotencyKey {
		t.Fatalf("idempotency key must survive the round trip")
	}
	if loaded.Cart.Subtotal != session.Cart.Subtotal {
		t.Fatalf("cart snapshot must survive the round trip")
	}
}

func TestSaveIfQuoteSeqAppliesWhileSequenceMatches(t *testing.T) {
	fake := newFakeSessionStore()
	store, err := NewStore(fake, time.Hour)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	session := NewSession("user-1", testSnapshot(), 0, time.Now().UTC())
	session.QuoteSeq = 1
	if err := store.Save(context.Background(), session); err != nil {
		t.Fatalf("Save: %v", err)
	}

	session.Quote = &shipping.Quote{TotalFee: 35000, Seq: 1}
	applied, err := store.SaveIfQuoteSeq(context.Background(), session, 1)
	if err != nil {
		t.Fatalf("SaveIfQuoteSeq: %v", err)
	}
	if !applied {
		t.Fatalf("matching sequence must apply")
	}

	loaded, err := store.Load(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Quote == nil || loaded.Quote.TotalFee != 35000 {
		t.Fatalf("quote must be persisted, got %+v", loaded.Quote)
	}
}

func TestSaveIfQuoteSeqRefusesStaleSequence(t *testing.T) {
	fake := newFakeSessionStore()
	store, err := NewStore(fake, time.Hour)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	session := NewSession("user-1", testSnapshot(), 0, time.Now().UTC())
	session.QuoteSeq = 2
	if err := store.Save(context.Background(), session); err != nil {
		t.Fatalf("Save: %v", err)
	}

	stale := *session
	stale.QuoteSeq = 1
	stale.Quote = &shipping.Quote{TotalFee: 35000, Seq: 1}
	applied, err := store.SaveIfQuoteSeq(context.Background(), &stale, 1)
	if err != nil {
		t.Fatalf("SaveIfQuoteSeq: %v", err)
	}
	if applied {
		t.Fatalf("stale sequence must not be applied")
	}

	loaded, err := store.Load(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Quote != nil || loaded.QuoteSeq != 2 {
		t.Fatalf("stored session must keep the newer state, got %+v", loaded)
	}
}

func TestSaveIfQuoteSeqMissingSession(t *testing.T) {
	store, err := NewStore(newFakeSessionStore(), time.Hour)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	session := NewSession("user-1", testSnapshot(), 0, time.Now().UTC())
	applied, err := store.SaveIfQuoteSeq(context.Background(), session, 0)
	if err != nil {
		t.Fatalf("SaveIfQuoteSeq: %v", err)
	}
	if applied {
		t.Fatalf("an expired session must not be recreated by a quote")
	}
}

func TestStoreLoadMissing(t *testing.T) {
	store, err := NewStore(newFakeSessionStore(), time.Hour)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	_, err = store.Load(context.Background(), "missing")
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStoreLoadRedisFailure(t *testing.T) {
	fake := newFakeSessionStore()
	fake.getErr = errors.New("connection refused")
	store, err := NewStore(fake, time.Hour)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	_, err = store.Load(context.Background(), "s1")
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestStoreDelete(t *testing.T) {
	fake := newFakeSessionStore()
	store, err := NewStore(fake, time.Hour)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	session := NewSession("user-1", testSnapshot(), 0, time.Now().UTC())
	if err := store.Save(context.Background(), session); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Delete(context.Background(), session.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Load(context.Background(), session.ID); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("deleted session must be gone, got %v", err)
	}
}

func TestNewStoreValidatesInputs(t *testing.T) {
	if _, err := NewStore(nil, time.Hour); err == nil {
		t.Fatalf("expected error for nil client")
	}
	if _, err := NewStore(newFakeSessionStore(), 0); err == nil {
		t.Fatalf("expected error for zero ttl")
	}
}
