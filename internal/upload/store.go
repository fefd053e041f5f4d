// Package upload keeps images posted to rooms on local disk.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	// ErrNotImage is returned when the uploaded content is not an image.
	ErrNotImage = errors.New("file is not an image")
	// ErrTooLarge is returned when the upload exceeds the configured limit.
	ErrTooLarge = errors.New("file too large")
	// ErrInvalidName is returned for names that could escape the upload directory.
	ErrInvalidName = errors.New("invalid filename")
	// ErrNotFound is returned when a stored file does not exist.
	ErrNotFound = errors.New("file not found")
)

// sniffLen is how much of the upload is inspected to detect its type.
const sniffLen = 3072

// Stored describes a saved upload.
type Stored struct {
	Name string
	MIME string
	Size int64
}

// Store writes uploads under a single directory.
type Store struct {
	dir      string
	maxBytes int64
}

// New creates dir if needed. maxBytes <= 0 disables the size limit.
func New(dir string, maxBytes int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir, maxBytes: maxBytes}, nil
}

// Dir returns the directory uploads are written to.
func (s *Store) Dir() string {
	return s.dir
}

// Save stores r as "<uuid>_<sanitised filename>" if its content is an image.
// The client's extension is replaced by the one matching the detected type.
func (s *Store) Save(ctx context.Context, filename string, r io.Reader) (Stored, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Stored{}, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]

	mtype := mimetype.Detect(head)
	if !isServableImage(mtype) {
		return Stored{}, fmt.Errorf("%w: %s", ErrNotImage, mtype.String())
	}

	if err := ctx.Err(); err != nil {
		return Stored{}, err
	}

	name := uuid.NewString() + "_" + storedName(filename, mtype.Extension())
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Stored{}, fmt.Errorf("create upload file: %w", err)
	}

	src := io.MultiReader(bytes.NewReader(head), r)
	if s.maxBytes > 0 {
		src = io.LimitReader(src, s.maxBytes+1)
	}
	size, err := io.Copy(f, src)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil && s.maxBytes > 0 && size > s.maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(path)
		if errors.Is(err, ErrTooLarge) {
			return Stored{}, err
		}
		return Stored{}, fmt.Errorf("write upload: %w", err)
	}

	return Stored{Name: name, MIME: mtype.String(), Size: size}, nil
}

// Resolve returns the location of a stored upload and the MIME type detected
// from its content.
func (s *Store) Resolve(name string) (path, contentType string, err error) {
	path, err = s.Path(name)
	if err != nil {
		return "", "", err
	}
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return "", "", fmt.Errorf("detect upload type: %w", err)
	}
	return path, mtype.String(), nil
}

// Path resolves a stored upload name to its location on disk.
func (s *Store) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrInvalidName
	}
	path := filepath.Join(s.dir, name)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("stat upload: %w", err)
	}
	if info.IsDir() {
		return "", ErrNotFound
	}
	return path, nil
}

// Remove deletes a stored upload. Missing files are not an error.
func (s *Store) Remove(name string) error {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return ErrInvalidName
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

// isServableImage accepts raster images only. SVG can carry script.
func isServableImage(mtype *mimetype.MIME) bool {
	if mtype.Is("image/svg+xml") {
		return false
	}
	return strings.HasPrefix(mtype.String(), "image/")
}

func storedName(filename, ext string) string {
	clean := SanitizeFilename(filename)
	if stem := strings.TrimSuffix(clean, filepath.Ext(clean)); stem != "" {
		clean = stem
	}
	return clean + ext
}

// SanitizeFilename reduces a client-supplied name to ASCII letters, digits,
// dots, dashes and underscores, with no directory part or leading dots.
func SanitizeFilename(filename string) string {
	base := filepath.Base(filepath.Clean(strings.ReplaceAll(filename, "\\", "/")))

	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		}
	}

	clean := strings.TrimLeft(b.String(), "._")
	if clean == "" {
		return "unnamed"
	}
	return clean
}
