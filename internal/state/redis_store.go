// internal/state/redis_store.go
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const maxUpdateRetries = 5

// RedisStore keeps one JSON value per user with a sliding TTL.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: "artisans:state:", ttl: ttl}
}

func (r *RedisStore) key(userID uuid.UUID) string {
	return r.prefix + userID.String()
}

func (r *RedisStore) Load(ctx context.Context, userID uuid.UUID) (*Session, error) {
	raw, err := r.rdb.Get(ctx, r.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return NewSession(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return decode(userID, raw)
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	s.UpdatedAt = time.Now()
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.rdb.Set(ctx, r.key(s.UserID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Update applies fn under an optimistic WATCH transaction and retries on
// concurrent modification.
func (r *RedisStore) Update(ctx context.Context, userID uuid.UUID, fn func(*Session) error) error {
	key := r.key(userID)

	txf := func(tx *redis.Tx) error {
		s := NewSession(userID)
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if s, err = decode(userID, raw); err != nil {
				return err
			}
		}

		if err := fn(s); err != nil {
			return err
		}
		s.UpdatedAt = time.Now()

		out, err := json.Marshal(s)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, r.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := r.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("update session: %w", err)
		}
		return nil
	}
	return fmt.Errorf("update session: too many concurrent writers")
}

func (r *RedisStore) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := r.rdb.Del(ctx, r.key(userID)).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func decode(userID uuid.UUID, raw []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if s.UserID == uuid.Nil {
		s.UserID = userID
	}
	return &s, nil
}
