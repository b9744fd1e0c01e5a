package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	tokenKeyPrefix = "spendwise:session:"
	userKeyPrefix  = "spendwise:user-sessions:"
)

// redisRepository keeps sessions in Redis with the session lifetime as the
// key TTL, so expired sessions disappear on their own. A set per user tracks
// tokens for DeleteByUserID.
type redisRepository struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisRepository(client redis.UniversalClient, ttl time.Duration) *redisRepository {
	if ttl <= 0 {
		ttl = DefaultDuration
	}
	return &redisRepository{client: client, ttl: ttl}
}

func (r *redisRepository) Create(ctx context.Context, userID uuid.UUID) (*Session, error) {
	session, err := New(userID, r.ttl)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("encoding session: %w", err)
	}

	userKey := userKeyPrefix + userID.String()
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, tokenKeyPrefix+session.Token, payload, r.ttl)
		pipe.SAdd(ctx, userKey, session.Token)
		pipe.Expire(ctx, userKey, r.ttl)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis set session: %w", err)
	}

	return session, nil
}

func (r *redisRepository) GetByToken(ctx context.Context, token string) (*Session, error) {
	payload, err := r.client.Get(ctx, tokenKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrInvalidSession
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	if session.Expired(time.Now()) {
		return nil, ErrExpiredSession
	}
	return &session, nil
}

func (r *redisRepository) Delete(ctx context.Context, token string) error {
	session, err := r.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrInvalidSession) || errors.Is(err, ErrExpiredSession) {
			return r.client.Del(ctx, tokenKeyPrefix+token).Err()
		}
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, tokenKeyPrefix+token)
		pipe.SRem(ctx, userKeyPrefix+session.UserID.String(), token)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

func (r *redisRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	userKey := userKeyPrefix + userID.String()
	tokens, err := r.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return fmt.Errorf("redis list sessions: %w", err)
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		keys = append(keys, tokenKeyPrefix+token)
	}
	keys = append(keys, userKey)

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete sessions: %w", err)
	}
	return nil
}
