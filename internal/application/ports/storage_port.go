package ports

import "context"

// FileStorage guarda archivos subidos y devuelve la URL pública con la que se sirven.
type FileStorage interface {
	Save(ctx context.Context, key string, data []byte) (url string, err error)
}
