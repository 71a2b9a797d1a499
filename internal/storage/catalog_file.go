package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"savviwell/internal/catalog"
)

// CatalogFile provides file-based storage for the meal catalog.
type CatalogFile struct {
	path   string
	logger *zap.Logger
}

type catalogDocument struct {
	Meals []catalog.Entry `yaml:"meals"`
}

// NewCatalogFile creates a CatalogFile backed by the YAML file at path.
func NewCatalogFile(path string, logger *zap.Logger) *CatalogFile {
	return &CatalogFile{path: path, logger: logger}
}

// Path returns the backing file path.
func (f *CatalogFile) Path() string {
	return f.path
}

// Exists checks if the catalog file is present.
func (f *CatalogFile) Exists() bool {
	_, err := os.Stat(f.path)
	return !os.IsNotExist(err)
}

// Load reads the catalog entries from the file.
func (f *CatalogFile) Load() ([]catalog.Entry, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var doc catalogDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}
	for i, e := range doc.Meals {
		if _, ok := catalog.ParseMealType(string(e.Type)); !ok {
			return nil, fmt.Errorf("meal %d (%q) has unknown mealType %q", i, e.Name, e.Type)
		}
		if e.Spice < 0 || e.Spice > 2 {
			return nil, fmt.Errorf("meal %d (%q) has spiceLevel %d out of range", i, e.Name, e.Spice)
		}
	}
	return doc.Meals, nil
}

// Save writes entries to the file, replacing its contents atomically.
func (f *CatalogFile) Save(entries []catalog.Entry) error {
	data, err := yaml.Marshal(catalogDocument{Meals: entries})
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write catalog file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace catalog file: %w", err)
	}
	return nil
}

// Watch calls onChange with freshly loaded entries whenever the file is
// written or replaced. It blocks until ctx is done.
func (f *CatalogFile) Watch(ctx context.Context, onChange func([]catalog.Entry)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	// Editors usually replace the file, so the directory is watched.
	if err := w.Add(filepath.Dir(f.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(f.path), err)
	}

	target := filepath.Clean(f.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			entries, err := f.Load()
			if err != nil {
				if !errors.Is(err, os.ErrNotExist) {
					f.logger.Warn("catalog reload failed", zap.String("path", f.path), zap.Error(err))
				}
				continue
			}
			f.logger.Info("catalog reloaded", zap.String("path", f.path), zap.Int("meals", len(entries)))
			onChange(entries)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			f.logger.Warn("catalog watcher error", zap.Error(err))
		}
	}
}
