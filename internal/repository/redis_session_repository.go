package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jlintlin/Grade-Converter/internal/models"
	appErrors "github.com/jlintlin/Grade-Converter/pkg/errors"
)

const sessionKeyPrefix = "gradebook:session:"

// RedisSessionRepository stores gradebook sessions as JSON values with
// native key TTL, so expiry needs no sweeper.
type RedisSessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionRepository constructs the Redis-backed store.
func NewRedisSessionRepository(client *redis.Client, ttl time.Duration) *RedisSessionRepository {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisSessionRepository{client: client, ttl: ttl}
}

// Put stores or replaces a session under its TTL.
func (r *RedisSessionRepository) Put(ctx context.Context, session *models.GradebookSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, sessionKeyPrefix+session.ID, payload, r.ttl).Err()
}

// Get returns the stored session, or ErrSessionNotFound once the key
// has expired.
func (r *RedisSessionRepository) Get(ctx context.Context, id string) (*models.GradebookSession, error) {
	payload, err := r.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErrors.ErrSessionNotFound
		}
		return nil, err
	}
	var session models.GradebookSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Touch extends the key TTL and refreshes the embedded access time.
func (r *RedisSessionRepository) Touch(ctx context.Context, id string) error {
	session, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	session.LastAccessed = time.Now().UTC()
	return r.Put(ctx, session)
}

// Delete removes a session; deleting an unknown id is not an error.
func (r *RedisSessionRepository) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, sessionKeyPrefix+id).Err()
}

// EvictExpired is a no-op: Redis expires keys natively.
func (r *RedisSessionRepository) EvictExpired(ctx context.Context) (int, error) {
	return 0, nil
}

// Count scans for live session keys.
func (r *RedisSessionRepository) Count(ctx context.Context) (int, error) {
	var cursor uint64
	count := 0
	for {
		keys, next, err := r.client.Scan(ctx, cursor, sessionKeyPrefix+"*", 100).Result()
		if err != nil {
			return 0, err
		}
		count += len(keys)
		cursor = next
		if cursor == 0 {
			return count, nil
		}
	}
}
