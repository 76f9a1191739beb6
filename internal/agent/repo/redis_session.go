package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/carbon-assistant/server/internal/agent/model"
	errx "github.com/carbon-assistant/server/internal/core/error"
	logx "github.com/carbon-assistant/server/pkg/logger"
)

// maxUpdateAttempts bounds optimistic-lock retries when another writer
// touches the same session between WATCH and EXEC.
const maxUpdateAttempts = 5

// RedisSessionStore keeps one JSON document per session, expiring after ttl
// of inactivity.
type RedisSessionStore struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewRedisSessionStore(rdb redis.UniversalClient, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, ttl: ttl}
}

func (r *RedisSessionStore) sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

func (r *RedisSessionStore) Create(ctx context.Context) (string, error) {
	now := time.Now().UTC()
	sess := model.Session{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}

	b, err := json.Marshal(sess)
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}
	key := r.sessionKey(sess.ID)
	if err := r.rdb.Set(ctx, key, b, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to create session in redis")
		return "", errx.WrapRedis(err)
	}
	return sess.ID, nil
}

func (r *RedisSessionStore) Get(ctx context.Context, sessionID string) (*model.Session, error) {
	key := r.sessionKey(sessionID)

	b, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errx.SessionNotFound(sessionID)
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load session from redis")
		return nil, errx.WrapRedis(err)
	}

	var sess model.Session
	if err := json.Unmarshal(b, &sess); err != nil {
		logx.Error().Err(err).Str("sessionID", sessionID).Msg("failed to unmarshal session")
		return nil, fmt.Errorf("unmarshal session %s: %w", sessionID, err)
	}

	// extend TTL on touch
	if r.ttl > 0 {
		if err := r.rdb.Expire(ctx, key, r.ttl).Err(); err != nil {
			logx.Warn().Err(err).Str("key", key).Dur("ttl", r.ttl).Msg("failed to refresh session TTL")
		}
	}
	return &sess, nil
}

func (r *RedisSessionStore) Update(ctx context.Context, sessionID string, slot model.Slot, value any) error {
	key := r.sessionKey(sessionID)

	txf := func(tx *redis.Tx) error {
		b, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return errx.SessionNotFound(sessionID)
			}
			return errx.WrapRedis(err)
		}

		var sess model.Session
		if err := json.Unmarshal(b, &sess); err != nil {
			return fmt.Errorf("unmarshal session %s: %w", sessionID, err)
		}
		if err := sess.Apply(slot, value); err != nil {
			return fmt.Errorf("update session %s: %w", sessionID, err)
		}
		sess.UpdatedAt = time.Now().UTC()

		nb, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, nb, r.ttl)
			return nil
		})
		if err != nil && !errors.Is(err, redis.TxFailedErr) {
			return errx.WrapRedis(err)
		}
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := r.rdb.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			logx.Debug().Str("key", key).Int("attempt", attempt+1).Msg("session changed during update, retrying")
			continue
		}
		if !errors.Is(err, errx.ErrSessionNotFound) {
			logx.Error().Err(err).Str("key", key).Str("slot", string(slot)).Msg("failed to update session in redis")
		}
		return err
	}
	return errx.WrapRedis(fmt.Errorf("session %s: %w", sessionID, redis.TxFailedErr))
}

var _ model.SessionStore = (*RedisSessionStore)(nil)
