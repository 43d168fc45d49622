// Package storage guarda archivos subidos en disco local; Fiber los sirve bajo /uploads.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/jhoicas/taller-api/internal/application/ports"
)

// URLPrefix ruta pública desde la que se sirven los archivos.
const URLPrefix = "/uploads"

// ErrInvalidKey la clave intenta salir del directorio de subida.
var ErrInvalidKey = errors.New("storage: clave inválida")

var _ ports.FileStorage = (*LocalStorage)(nil)

// LocalStorage implementa ports.FileStorage sobre un directorio.
type LocalStorage struct {
	root    string
	baseURL string
}

// NewLocalStorage construye el almacenamiento. baseURL es PUBLIC_BASE_URL (puede ser vacío para URLs relativas).
func NewLocalStorage(root, baseURL string) *LocalStorage {
	return &LocalStorage{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

// Root directorio base, para montar la ruta estática.
func (s *LocalStorage) Root() string { return s.root }

// Save escribe data en root/key de forma atómica (archivo temporal + rename) y devuelve su URL.
func (s *LocalStorage) Save(ctx context.Context, key string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean := path.Clean("/" + key)[1:]
	if clean == "" || clean != strings.TrimPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	dst := filepath.Join(s.root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("storage: crear directorio: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("storage: archivo temporal: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("storage: escribir: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("storage: cerrar: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", fmt.Errorf("storage: permisos: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("storage: mover: %w", err)
	}
	return s.baseURL + URLPrefix + "/" + clean, nil
}
