// Package cache implementa ports.Cache sobre Redis, con una variante que no guarda nada
// cuando no hay servidor configurado.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/taller-api/internal/application/ports"
	"github.com/jhoicas/taller-api/pkg/config"
	"github.com/jhoicas/taller-api/pkg/logger"
)

// ErrMiss la clave no está en caché.
var ErrMiss = errors.New("cache miss")

const keyPrefix = "taller:"

var (
	_ ports.Cache = (*RedisCache)(nil)
	_ ports.Cache = Noop{}
)

// New devuelve la caché Redis si hay dirección configurada; si no, Noop.
// El cliente Redis se verifica con PING antes de devolverse.
func New(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (ports.Cache, func() error, error) {
	if !cfg.Enabled() {
		log.Info().Msg("caché deshabilitada (REDIS_ADDR vacío)")
		return Noop{}, func() error { return nil }, nil
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	log.Info().Str("addr", cfg.Addr).Msg("caché redis conectada")
	return NewRedisCache(client, time.Duration(cfg.TTLSeconds)*time.Second), client.Close, nil
}

// RedisCache caché sobre un cliente go-redis. Las claves se prefijan con "taller:".
type RedisCache struct {
	client     goredis.UniversalClient
	defaultTTL time.Duration
}

// NewRedisCache construye la caché. defaultTTL se usa cuando Set recibe ttl <= 0.
func NewRedisCache(client goredis.UniversalClient, defaultTTL time.Duration) *RedisCache {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &RedisCache{client: client, defaultTTL: defaultTTL}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrMiss
	}
	b, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return b, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return errors.New("cache: clave vacía")
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	if err := c.client.Set(ctx, keyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := c.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Noop caché deshabilitada: todo Get es un fallo.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, error)              { return nil, ErrMiss }
func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Noop) Delete(context.Context, string) error                     { return nil }
