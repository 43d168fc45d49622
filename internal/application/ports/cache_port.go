package ports

import (
	"context"
	"time"
)

// Cache almacén clave/valor de lectura rápida. Cualquier error de Get se trata como fallo de caché.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
