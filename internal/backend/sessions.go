package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStorage persists backend sessions across requests and restarts.
type SessionStorage interface {
	Save(ctx context.Context, s *Session) error
	// Load returns nil without error when no session is stored.
	Load(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
}

type RedisSessionStorage struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewRedisSessionStorage(redisClient *redis.Client, ttl time.Duration) *RedisSessionStorage {
	return &RedisSessionStorage{Redis: redisClient, TTL: ttl}
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

func (s *RedisSessionStorage) Save(ctx context.Context, session *Session) error {
	key := sessionKey(session.ID)

	if err := s.Redis.HSet(ctx, key,
		"user_id", session.UserID,
		"email", session.Email,
		"token", session.Token,
	).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	if err := s.Redis.Expire(ctx, key, s.TTL).Err(); err != nil {
		return fmt.Errorf("expire session: %w", err)
	}
	return nil
}

func (s *RedisSessionStorage) Load(ctx context.Context, sessionID string) (*Session, error) {
	data, err := s.Redis.HGetAll(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if len(data) == 0 || data["user_id"] == "" {
		return nil, nil
	}

	return &Session{
		ID:     sessionID,
		UserID: data["user_id"],
		Email:  data["email"],
		Token:  data["token"],
	}, nil
}

func (s *RedisSessionStorage) Delete(ctx context.Context, sessionID string) error {
	if err := s.Redis.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
