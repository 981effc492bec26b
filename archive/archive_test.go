package archive

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	date := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)
	p := Resolve("/data", "alpha", date)

	require.Equal(t, filepath.Join("/data", "alpha", "2024", "20240307.jpg"), p.Image)
	require.Equal(t, filepath.Join("/data", "alpha-json", "2024", "20240307.json"), p.JSON)
}

func TestResolveRelativeRoot(t *testing.T) {
	date := time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC)
	p := Resolve("data", "beta", date)

	require.Equal(t, filepath.Join("data", "beta", "1999", "19991231.jpg"), p.Image)
}

func TestStoreWriteCreatesParents(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStoreWithFS(fs, slog.New(slog.NewTextHandler(io.Discard, nil)))
	path := "/data/alpha/2024/20240307.jpg"

	require.False(t, store.Exists(path))
	require.NoError(t, store.Write(path, []byte("jpeg")))
	require.True(t, store.Exists(path))

	got, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	require.Equal(t, "jpeg", string(got))

	isDir, err := afero.IsDir(fs, "/data/alpha/2024")
	require.NoError(t, err)
	require.True(t, isDir)
}

func TestStoreWriteReadOnly(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	store := NewStoreWithFS(fs, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.Error(t, store.Write("/data/alpha/2024/20240307.jpg", []byte("jpeg")))
}
