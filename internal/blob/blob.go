// Package blob stores uploaded audio on local disk and maps served URLs back to files.
package blob

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/arunsharma1203/grievance/internal/ident"
)

// URLPrefix is the route the blob directory is served under.
const URLPrefix = "/uploads/"

var (
	ErrTooLarge        = errors.New("upload exceeds size limit")
	ErrUnsupportedType = errors.New("unsupported audio type")
)

var audioExts = map[string]bool{
	".ogg": true, ".oga": true, ".opus": true, ".mp3": true, ".m4a": true,
	".aac": true, ".wav": true, ".webm": true, ".flac": true, ".amr": true,
}

// IsAudioExt reports whether ext (with dot) is an accepted audio extension.
func IsAudioExt(ext string) bool { return audioExts[strings.ToLower(ext)] }

// Blob describes a stored file.
type Blob struct {
	Name string // generated file name
	Path string // absolute path on disk
	URL  string // server-relative URL
	Size int64
}

// Store is a directory of uploaded files.
type Store struct {
	dir string
}

// New creates the directory when missing.
func New(dir string) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: abs}, nil
}

// Dir returns the absolute directory.
func (s *Store) Dir() string { return s.dir }

// Save copies at most max bytes from r into a new file named after a fresh
// identity and the original extension. Partial files are removed on failure.
func (s *Store) Save(r io.Reader, originalName string, max int64) (*Blob, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !IsAudioExt(ext) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
	name := ident.New() + ext

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	n, err := io.Copy(tmp, io.LimitReader(r, max+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	if n > max {
		return nil, ErrTooLarge
	}

	dst := filepath.Join(s.dir, name)
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return nil, err
	}
	return &Blob{Name: name, Path: dst, URL: URLPrefix + name, Size: n}, nil
}

// Resolve maps a served URL (server-relative, or absolute under publicBase) to
// a file inside the blob directory. ok is false for foreign URLs, traversal
// attempts and files that no longer exist.
func (s *Store) Resolve(ref, publicBase string) (string, bool) {
	if publicBase != "" {
		ref = strings.TrimPrefix(ref, strings.TrimRight(publicBase, "/"))
	}
	if !strings.HasPrefix(ref, URLPrefix) {
		return "", false
	}
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	name := strings.TrimPrefix(path.Clean(ref), URLPrefix)
	if name == "" || strings.Contains(name, "/") || strings.HasPrefix(name, ".") {
		return "", false
	}
	p := filepath.Join(s.dir, name)
	info, err := os.Stat(p)
	if err != nil || info.IsDir() {
		return "", false
	}
	return p, true
}
