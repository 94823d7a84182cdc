package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"trade-journal-go/internal/models"
)

// SettingsStore persists the singleton settings document as pretty-printed
// JSON. Saves are whole-file replacements.
type SettingsStore struct {
	path string
}

// NewSettingsStore returns a settings store backed by the JSON file at path.
func NewSettingsStore(path string) *SettingsStore {
	return &SettingsStore{path: path}
}

// Load reads the persisted settings, self-healing as it goes: a missing or
// unreadable file yields the defaults, and any absent top-level field is
// backfilled from the defaults. Whenever defaults were applied the merged
// document is persisted back immediately.
func (s *SettingsStore) Load() (models.Settings, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		def := models.DefaultSettings()
		if err := s.Save(def); err != nil {
			return models.Settings{}, err
		}
		return def, nil
	}
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}

	var settings models.Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		// Corrupt settings are replaced by the defaults rather than
		// failing the load.
		def := models.DefaultSettings()
		if err := s.Save(def); err != nil {
			return models.Settings{}, err
		}
		return def, nil
	}

	if settings.FillMissing() {
		if err := s.Save(settings); err != nil {
			return models.Settings{}, err
		}
	}
	return settings, nil
}

// Save replaces the persisted settings document.
func (s *SettingsStore) Save(settings models.Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "tmp-*.json")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, s.path)
}
