package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSave_EscribeYDevuelveURL(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(dir, "https://api.taller.co/")

	url, err := s.Save(context.Background(), "c1/logo.png", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "https://api.taller.co/uploads/c1/logo.png", url)

	b, err := os.ReadFile(filepath.Join(dir, "c1", "logo.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(b))

	// Sobrescribe.
	_, err = s.Save(context.Background(), "c1/logo.png", []byte("nuevo"))
	require.NoError(t, err)
	b, _ = os.ReadFile(filepath.Join(dir, "c1", "logo.png"))
	assert.Equal(t, "nuevo", string(b))
}

func TestSave_ClaveInvalida(t *testing.T) {
	s := NewLocalStorage(t.TempDir(), "")
	for _, key := range []string{"", "../fuera.png", "c1/../../x.png"} {
		_, err := s.Save(context.Background(), key, []byte("x"))
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestSave_URLRelativa(t *testing.T) {
	s := NewLocalStorage(t.TempDir(), "")
	url, err := s.Save(context.Background(), "c1/a.webp", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/c1/a.webp", url)
}
