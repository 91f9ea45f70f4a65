package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/snikitin/parts-bot/internal/core/domain"
)

const sessionKeyPrefix = "session:"

// RedisSessionStore keeps sessions in Redis, one JSON value per chat.
// Expiry is delegated to the key TTL; zero keeps keys forever.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func sessionKey(chatID int64) string {
	return sessionKeyPrefix + strconv.FormatInt(chatID, 10)
}

func (r *RedisSessionStore) Get(ctx context.Context, chatID int64) (*domain.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

func (r *RedisSessionStore) Put(ctx context.Context, session domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(session.ChatID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, chatID int64) error {
	if err := r.client.Del(ctx, sessionKey(chatID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
