package archive

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Store writes archive files through an afero filesystem.
type Store struct {
	fs  afero.Fs
	log *slog.Logger
}

// NewStore returns a store backed by the real filesystem.
func NewStore(log *slog.Logger) *Store {
	return NewStoreWithFS(afero.NewOsFs(), log)
}

// NewStoreWithFS returns a store backed by fs.
func NewStoreWithFS(fs afero.Fs, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{fs: fs, log: log}
}

// Exists reports whether path is present. Stat errors count as absent.
func (s *Store) Exists(path string) bool {
	ok, err := afero.Exists(s.fs, path)
	if err != nil {
		s.log.Debug("stat failed", slog.String("path", path), slog.Any("error", err))
		return false
	}
	return ok
}

// Write stores data at path, creating parent directories as needed.
func (s *Store) Write(path string, data []byte) error {
	if err := s.ensureDir(path); err != nil {
		return err
	}
	s.log.Info("Save file", slog.String("path", path), slog.Int("bytes", len(data)))
	if err := afero.WriteFile(s.fs, path, data, 0o644); err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}
	return nil
}

func (s *Store) ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if _, err := s.fs.Stat(dir); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat directory %q: %w", dir, err)
	}
	s.log.Info("Create dir", slog.String("dir", dir))
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
