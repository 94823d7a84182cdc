package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"trade-journal-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsLoadCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	store := NewSettingsStore(path)

	settings, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, models.CurrencyAUD, settings.BaseCurrency)
	assert.Equal(t, 500.0, settings.Goals[models.CurrencyAUD])
	assert.Equal(t, 1.0, settings.FXToBase[models.CurrencyAUD])

	// The defaults must have been persisted.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk models.Settings
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, settings, onDisk)
}

func TestSettingsBackfillIsShallow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	// goals key absent entirely; fx_to_base present but missing INR.
	seed := `{
  "base_currency": "USD",
  "fx_to_base": {"AUD": 0.65, "USD": 1.0}
}`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o644))

	store := NewSettingsStore(path)
	settings, err := store.Load()
	require.NoError(t, err)

	// Present keys are never overwritten.
	assert.Equal(t, models.CurrencyUSD, settings.BaseCurrency)
	assert.Equal(t, 0.65, settings.FXToBase[models.CurrencyAUD])

	// The absent top-level key is filled from the defaults.
	assert.Equal(t, 500.0, settings.Goals[models.CurrencyAUD])

	// The merge is shallow: the missing INR entry inside fx_to_base is
	// not repaired.
	_, hasINR := settings.FXToBase[models.CurrencyINR]
	assert.False(t, hasINR)

	// The merged document was persisted back.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk models.Settings
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, settings, onDisk)
}

func TestSettingsSaveIsFullReplace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	store := NewSettingsStore(path)

	_, err := store.Load()
	require.NoError(t, err)

	updated := models.Settings{
		BaseCurrency: models.CurrencyINR,
		FXToBase:     map[string]float64{models.CurrencyINR: 1.0},
		Goals:        map[string]float64{models.CurrencyINR: 10000},
	}
	require.NoError(t, store.Save(updated))

	reloaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, updated, reloaded)
}

func TestSettingsCorruptFileHealsToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store := NewSettingsStore(path)
	settings, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), settings)
}
