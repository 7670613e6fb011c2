package server

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const tokenKeyPrefix = "toytrack:token:"

// TokenStore 会话 Token 存储（Redis，带 TTL）
// Token 是不透明的 uuid；值为账号名，命中即有效
type TokenStore struct {
	redisClient *redis.Client
	ttl         time.Duration
	logger      *zap.Logger
}

// NewTokenStore 创建 Token 存储
func NewTokenStore(redisClient *redis.Client, ttl time.Duration, logger *zap.Logger) *TokenStore {
	return &TokenStore{
		redisClient: redisClient,
		ttl:         ttl,
		logger:      logger,
	}
}

// Issue 为账号签发新 Token
func (s *TokenStore) Issue(ctx context.Context, account string) (string, error) {
	token := uuid.NewString()
	key := tokenKeyPrefix + token
	if err := s.redisClient.Set(ctx, key, account, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store session token: %w", err)
	}
	return token, nil
}

// Validate 校验 Token，返回其账号
func (s *TokenStore) Validate(ctx context.Context, token string) (string, bool) {
	if token == "" {
		return "", false
	}
	account, err := s.redisClient.Get(ctx, tokenKeyPrefix+token).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("Token lookup failed", zap.Error(err))
		}
		return "", false
	}
	return account, true
}

// Revoke 吊销 Token（登出）
func (s *TokenStore) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.redisClient.Del(ctx, tokenKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}
