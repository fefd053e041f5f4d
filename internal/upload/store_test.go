package upload

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// onePixelPNG is a valid 1x1 transparent PNG.
var onePixelPNG, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII=")

func TestSaveStoresImageWithUniquePrefix(t *testing.T) {
	// Given
	dir := t.TempDir()
	st, err := New(dir, 1<<20)
	require.NoError(t, err)

	// When
	stored, err := st.Save(context.Background(), "../../my cat.png", bytes.NewReader(onePixelPNG))

	// Then
	require.NoError(t, err)
	require.Equal(t, "image/png", stored.MIME)
	require.Equal(t, int64(len(onePixelPNG)), stored.Size)
	require.True(t, strings.HasSuffix(stored.Name, "_my_cat.png"), stored.Name)

	data, err := os.ReadFile(filepath.Join(dir, stored.Name))
	require.NoError(t, err)
	require.Equal(t, onePixelPNG, data)

	path, err := st.Path(stored.Name)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, stored.Name), path)
}

func TestSaveTwiceYieldsDistinctNames(t *testing.T) {
	st, err := New(t.TempDir(), 0)
	require.NoError(t, err)

	a, err := st.Save(context.Background(), "a.png", bytes.NewReader(onePixelPNG))
	require.NoError(t, err)
	b, err := st.Save(context.Background(), "a.png", bytes.NewReader(onePixelPNG))
	require.NoError(t, err)
	require.NotEqual(t, a.Name, b.Name)
}

func TestSaveReplacesClientExtension(t *testing.T) {
	// Given an image disguised as a web page
	dir := t.TempDir()
	st, err := New(dir, 1<<20)
	require.NoError(t, err)
	content := append(append([]byte{}, onePixelPNG...), []byte("<script>alert(1)</script>")...)

	// When
	stored, err := st.Save(context.Background(), "evil.html", bytes.NewReader(content))

	// Then the stored name carries the detected extension
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(stored.Name, "_evil.png"), stored.Name)

	path, ctype, err := st.Resolve(stored.Name)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, stored.Name), path)
	require.Equal(t, "image/png", ctype)
}

func TestSaveRejectsSVG(t *testing.T) {
	dir := t.TempDir()
	st, err := New(dir, 1<<20)
	require.NoError(t, err)

	svg := `<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`
	_, err = st.Save(context.Background(), "logo.svg", strings.NewReader(svg))
	require.ErrorIs(t, err, ErrNotImage)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestSaveRejectsNonImage(t *testing.T) {
	dir := t.TempDir()
	st, err := New(dir, 1<<20)
	require.NoError(t, err)

	_, err = st.Save(context.Background(), "notes.png", strings.NewReader("just some text"))
	require.ErrorIs(t, err, ErrNotImage)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestSaveRejectsOversizedUpload(t *testing.T) {
	dir := t.TempDir()
	st, err := New(dir, int64(len(onePixelPNG)-1))
	require.NoError(t, err)

	_, err = st.Save(context.Background(), "big.png", bytes.NewReader(onePixelPNG))
	require.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestPathRejectsTraversal(t *testing.T) {
	st, err := New(t.TempDir(), 0)
	require.NoError(t, err)

	for _, name := range []string{"", "../etc/passwd", "a/b.png", ".hidden"} {
		_, err := st.Path(name)
		require.ErrorIs(t, err, ErrInvalidName, name)
	}

	_, err = st.Path("missing.png")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"photo.jpg":           "photo.jpg",
		"my photo.jpg":        "my_photo.jpg",
		"../../etc/passwd":    "passwd",
		`C:\Users\me\pic.png`: "pic.png",
		"..":                  "unnamed",
		"ção.png":             "o.png",
		"":                    "unnamed",
		"...hidden.png":       "hidden.png",
	}
	for in, want := range cases {
		require.Equal(t, want, SanitizeFilename(in), in)
	}
}

func TestRemove(t *testing.T) {
	st, err := New(t.TempDir(), 0)
	require.NoError(t, err)

	stored, err := st.Save(context.Background(), "a.png", bytes.NewReader(onePixelPNG))
	require.NoError(t, err)

	require.NoError(t, st.Remove(stored.Name))
	_, err = st.Path(stored.Name)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.Remove(stored.Name))
	require.ErrorIs(t, st.Remove("../x"), ErrInvalidName)
}
