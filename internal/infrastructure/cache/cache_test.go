package cache

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-api/pkg/config"
	"github.com/jhoicas/taller-api/pkg/logger"
)

func TestNoop(t *testing.T) {
	ctx := context.Background()
	var c Noop
	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
	assert.NoError(t, c.Delete(ctx, "k"))
}

func TestNew_SinDireccionDevuelveNoop(t *testing.T) {
	c, closeFn, err := New(context.Background(), config.RedisConfig{}, logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, Noop{}, c)
	assert.NoError(t, closeFn())
}

func TestRedisCache_ClaveVacia(t *testing.T) {
	// El cliente nunca se contacta: las claves vacías se resuelven antes.
	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()
	c := NewRedisCache(client, 0)

	_, err := c.Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrMiss)
	assert.Error(t, c.Set(context.Background(), "", []byte("x"), 0))
	assert.NoError(t, c.Delete(context.Background(), ""))
	assert.Equal(t, 5*time.Minute, c.defaultTTL)
}
