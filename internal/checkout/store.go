package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	pkgerrors "github.com/glowmart/glowmart-backend/pkg/errors"
	"github.com/glowmart/glowmart-backend/pkg/redis"
)

// Store persists checkout sessions for the duration of the flow.
type Store interface {
	Save(ctx context.Context, session *Session) error
	// SaveIfQuoteSeq writes the session only while the stored quote
	// sequence still equals seq. The check and the write are atomic, so
	// a quote fetched for an old destination can never overwrite a
	// session that was invalidated after it was read.
	SaveIfQuoteSeq(ctx context.Context, session *Session, seq uint64) (bool, error)
	Load(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
}

// The whole compare runs inside Redis; concurrent writers see either the
// old session or the new one, never an interleaved state.
const saveIfQuoteSeqScript = `
local current = redis.call('GET', KEYS[1])
if not current then
  return 0
end
local decoded = cjson.decode(current)
if decoded['quote_seq'] ~= tonumber(ARGV[2]) then
  return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`

type store struct {
	client redis.SessionStore
	ttl    time.Duration
}

// NewStore builds a Redis-backed session store. Sessions expire after the
// configured TTL; an expired session simply restarts checkout.
func NewStore(client redis.SessionStore, ttl time.Duration) (Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &store{client: client, ttl: ttl}, nil
}

func (s *store) Save(ctx context.Context, session *Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to encode checkout session")
	}
	if err := s.client.Set(ctx, s.client.SessionKey(session.ID), payload, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to persist checkout session")
	}
	return nil
}

func (s *store) SaveIfQuoteSeq(ctx context.Context, session *Session, seq uint64) (bool, error) {
	payload, err := json.Marshal(session)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to encode checkout session")
	}
	res, err := s.client.Eval(
		ctx,
		saveIfQuoteSeqScript,
		[]string{s.client.SessionKey(session.ID)},
		payload, seq, s.ttl.Milliseconds(),
	)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to persist checkout session")
	}
	applied, ok := res.(int64)
	if !ok {
		return false, pkgerrors.New(pkgerrors.CodeDependency, "unexpected response from session store")
	}
	return applied == 1, nil
}

func (s *store) Load(ctx context.Context, sessionID string) (*Session, error) {
	raw, err := s.client.Get(ctx, s.client.SessionKey(sessionID))
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to read checkout session")
	}

	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to decode checkout session")
	}
	return &session, nil
}

func (s *store) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.client.SessionKey(sessionID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to delete checkout session")
	}
	return nil
}
