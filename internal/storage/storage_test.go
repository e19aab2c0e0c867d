package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreferencesRoundTrip(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "prefs"))
	require.NoError(t, err)
	defer store.Close()

	// Nothing stored yet.
	_, err = store.LoadPreferences()
	assert.Error(t, err)

	prefs := DefaultPreferences()
	prefs.HashMB = 256
	prefs.Threads = 4
	prefs.UseNNUE = true
	prefs.Tunables = map[string]int{"nmp_min": 3, "lmr_a": 80}

	require.NoError(t, store.SavePreferences(prefs))

	loaded, err := store.LoadPreferences()
	require.NoError(t, err)
	assert.Equal(t, prefs, loaded)
}

func TestSaveOverwrites(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "prefs"))
	require.NoError(t, err)
	defer store.Close()

	first := DefaultPreferences()
	require.NoError(t, store.SavePreferences(first))

	second := DefaultPreferences()
	second.HashMB = 1024
	require.NoError(t, store.SavePreferences(second))

	loaded, err := store.LoadPreferences()
	require.NoError(t, err)
	assert.Equal(t, 1024, loaded.HashMB)
}
