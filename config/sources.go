package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/aluiziolira/dailyfetch/models"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ErrConfigMissing is returned when the sources file does not exist.
var ErrConfigMissing = errors.New("config: sources file missing")

// LoadSources reads the name -> descriptor mapping from path.
// Files ending in .yaml or .yml are decoded as YAML, everything else as JSON.
func LoadSources(fs afero.Fs, path string, log *slog.Logger) (models.Sources, error) {
	if log == nil {
		log = slog.Default()
	}

	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrConfigMissing, path)
	}

	log.Info("Read config", slog.String("path", path))
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	sources := models.Sources{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &sources)
	default:
		err = json.Unmarshal(data, &sources)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	for name, d := range sources {
		if d.Format == models.FormatJSON && len(d.Keys) == 0 {
			log.Warn("json source has no key path", slog.String("name", name))
		}
	}
	return sources, nil
}
