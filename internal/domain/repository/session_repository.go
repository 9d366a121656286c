package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"coding_documenty/internal/common"
	"coding_documenty/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

type SessionRepository interface {
	Get(ctx context.Context, id string) (*model.Session, error)
	Save(ctx context.Context, sess *model.Session) error
	Delete(ctx context.Context, id string) error
}

type redisSessionRepository struct {
	rdb *redis.Client
}

func NewRedisSessionRepository(rdb *redis.Client) SessionRepository {
	return &redisSessionRepository{rdb: rdb}
}

func sessionKey(id string) string { return sessionKeyPrefix + id }

func (r *redisSessionRepository) Get(ctx context.Context, id string) (*model.Session, error) {
	raw, err := r.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("redisSessionRepository.Get: %w: %v", common.ErrServiceUnavailable, err)
	}
	sess := &model.Session{}
	if err := json.Unmarshal(raw, sess); err != nil {
		return nil, fmt.Errorf("redisSessionRepository.Get decode: %w", err)
	}
	sess.Persisted = true
	return sess, nil
}

// Save writes the session with a TTL matching its remaining lifetime.
func (r *redisSessionRepository) Save(ctx context.Context, sess *model.Session) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return r.Delete(ctx, sess.ID)
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("redisSessionRepository.Save encode: %w", err)
	}
	if err := r.rdb.Set(ctx, sessionKey(sess.ID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redisSessionRepository.Save: %w: %v", common.ErrServiceUnavailable, err)
	}
	sess.Persisted = true
	return nil
}

func (r *redisSessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.rdb.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("redisSessionRepository.Delete: %w: %v", common.ErrServiceUnavailable, err)
	}
	return nil
}
