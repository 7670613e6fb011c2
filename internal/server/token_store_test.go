package server

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTokenStore(t *testing.T) (*miniredis.Miniredis, *TokenStore) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, NewTokenStore(redisClient, time.Hour, zap.NewNop())
}

func TestTokenStore_IssueAndValidate(t *testing.T) {
	_, ts := setupTokenStore(t)
	ctx := context.Background()

	token, err := ts.Issue(ctx, "warehouse")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	account, ok := ts.Validate(ctx, token)
	require.True(t, ok)
	assert.Equal(t, "warehouse", account)
}

func TestTokenStore_ValidateUnknownToken(t *testing.T) {
	_, ts := setupTokenStore(t)

	_, ok := ts.Validate(context.Background(), "no-such-token")
	assert.False(t, ok)

	_, ok = ts.Validate(context.Background(), "")
	assert.False(t, ok)
}

func TestTokenStore_Expiry(t *testing.T) {
	mr, ts := setupTokenStore(t)
	ctx := context.Background()

	token, err := ts.Issue(ctx, "warehouse")
	require.NoError(t, err)

	// TTL 届满后 Token 失效
	mr.FastForward(2 * time.Hour)
	_, ok := ts.Validate(ctx, token)
	assert.False(t, ok)
}

func TestTokenStore_Revoke(t *testing.T) {
	_, ts := setupTokenStore(t)
	ctx := context.Background()

	token, err := ts.Issue(ctx, "warehouse")
	require.NoError(t, err)

	require.NoError(t, ts.Revoke(ctx, token))
	_, ok := ts.Validate(ctx, token)
	assert.False(t, ok)
}

func TestAuthStore_RegisterAndVerify(t *testing.T) {
	auth := NewAuthStore()

	_, ok := auth.Register("Warehouse", "secret")
	require.True(t, ok)

	// 账号大小写不敏感
	u, ok := auth.Verify("warehouse", "secret")
	require.True(t, ok)
	assert.Equal(t, "Warehouse", u.Account)

	_, ok = auth.Verify("warehouse", "wrong")
	assert.False(t, ok)

	// 重复注册被拒
	_, ok = auth.Register("warehouse", "other")
	assert.False(t, ok)
}
