package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pathfinder-service/internal/cat"
	"pathfinder-service/internal/domain"
)

const maxUpdateRetries = 5

// SessionStore keeps adaptive sessions as JSON under cat:session:{id}.
// Updates use WATCH so concurrent submits for one session do not clobber each other.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Create(ctx context.Context, session cat.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(session.ID), raw, s.ttl).Err()
}

func (s *SessionStore) Get(ctx context.Context, id string) (cat.Session, error) {
	return s.read(ctx, s.client, id)
}

func (s *SessionStore) Update(ctx context.Context, id string, fn func(*cat.Session) error) (cat.Session, error) {
	key := s.key(id)
	var updated cat.Session
	txf := func(tx *redis.Tx) error {
		session, err := s.read(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(&session); err != nil {
			return err
		}
		raw, err := json.Marshal(session)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, s.ttl)
			return nil
		})
		if err == nil {
			updated = session
		}
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return cat.Session{}, err
		}
		return updated, nil
	}
	return cat.Session{}, fmt.Errorf("update session %s: too much contention", id)
}

func (s *SessionStore) read(ctx context.Context, c redis.Cmdable, id string) (cat.Session, error) {
	raw, err := c.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return cat.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return cat.Session{}, err
	}
	var session cat.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return cat.Session{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return session, nil
}

func (s *SessionStore) key(id string) string {
	return "cat:session:" + id
}
