package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/smarthealth/storefront/config"
	"github.com/smarthealth/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewStore(client, ttl)
}

func TestCartAddAndLines(t *testing.T) {
	_, store := setupStore(t, time.Hour)
	ctx := context.Background()

	n, err := store.Add(ctx, "u1", 20, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = store.Add(ctx, "u1", 20, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	_, err = store.Add(ctx, "u1", 10, 1)
	require.NoError(t, err)

	lines, err := store.Lines(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []domain.CartLine{
		{ProductID: 10, Quantity: 1},
		{ProductID: 20, Quantity: 5},
	}, lines)

	other, err := store.Lines(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestCartSetRemoveClear(t *testing.T) {
	_, store := setupStore(t, 0)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "u1", 10, 4))
	require.NoError(t, store.Set(ctx, "u1", 11, 1))
	require.NoError(t, store.Set(ctx, "u1", 10, 0))

	lines, err := store.Lines(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []domain.CartLine{{ProductID: 11, Quantity: 1}}, lines)

	require.NoError(t, store.Remove(ctx, "u1", 11))
	lines, err = store.Lines(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, lines)

	require.NoError(t, store.Set(ctx, "u1", 12, 2))
	require.NoError(t, store.Clear(ctx, "u1"))
	lines, err = store.Lines(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCartValidation(t *testing.T) {
	_, store := setupStore(t, 0)
	ctx := context.Background()

	_, err := store.Add(ctx, "u1", 1, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.ErrorIs(t, store.Set(ctx, "u1", 1, -1), ErrInvalidQuantity)
	_, err = store.Lines(ctx, "")
	assert.ErrorIs(t, err, ErrNoUser)
	assert.ErrorIs(t, store.Clear(ctx, ""), ErrNoUser)
}

func TestCartExpires(t *testing.T) {
	mr, store := setupStore(t, time.Hour)
	ctx := context.Background()

	_, err := store.Add(ctx, "u1", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, mr.TTL(key("u1")))

	mr.FastForward(2 * time.Hour)
	lines, err := store.Lines(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCartSkipsCorruptEntries(t *testing.T) {
	mr, store := setupStore(t, 0)
	mr.HSet(key("u1"), "abc", "1")
	mr.HSet(key("u1"), "5", "x")
	mr.HSet(key("u1"), "6", "2")

	lines, err := store.Lines(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []domain.CartLine{{ProductID: 6, Quantity: 2}}, lines)
}

func TestDial(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := Dial(context.Background(), config.RedisConfig{
		URL:         "redis://" + mr.Addr() + "/0",
		DialTimeout: 1,
		ReadTimeout: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, time.Second, client.Options().ReadTimeout)
	_ = client.Close()

	_, err = Dial(context.Background(), config.RedisConfig{URL: "not-a-url"})
	assert.Error(t, err)
}
