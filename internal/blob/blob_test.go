package blob

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndResolve(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	b, err := s.Save(bytes.NewReader([]byte("OggS-data")), "Voice Note.OGG", 1024)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(b.Name, ".ogg"))
	assert.Equal(t, URLPrefix+b.Name, b.URL)
	assert.Equal(t, int64(9), b.Size)

	got, err := os.ReadFile(b.Path)
	require.NoError(t, err)
	assert.Equal(t, "OggS-data", string(got))

	p, ok := s.Resolve(b.URL, "")
	require.True(t, ok)
	assert.Equal(t, b.Path, p)

	p, ok = s.Resolve("https://example.org/uploads/"+b.Name+"?x=1", "https://example.org/")
	require.True(t, ok)
	assert.Equal(t, b.Path, p)
}

func TestSave_Limits(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = s.Save(bytes.NewReader(make([]byte, 11)), "a.mp3", 10)
	assert.True(t, errors.Is(err, ErrTooLarge))

	_, err = s.Save(bytes.NewReader([]byte("x")), "a.exe", 10)
	assert.True(t, errors.Is(err, ErrUnsupportedType))

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected uploads must leave nothing behind")
}

func TestResolve_Rejects(t *testing.T) {
	root := t.TempDir()
	s, err := New(filepath.Join(root, "uploads"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "secret.ogg"), []byte("x"), 0o600))

	for _, ref := range []string{
		"/uploads/missing.ogg",
		"/uploads/../secret.ogg",
		"/uploads/",
		"/elsewhere/a.ogg",
		"https://cdn.example.com/uploads/a.ogg",
	} {
		_, ok := s.Resolve(ref, "")
		assert.False(t, ok, ref)
	}
}
