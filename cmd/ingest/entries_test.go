package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/imkonsowa/restaurants-linebot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(url, placeID string) models.Entry {
	return models.Entry{Title: url, URL: url, Metadata: models.EntryMetadata{PlaceID: placeID}}
}

func TestReadEntries_MissingFile(t *testing.T) {
	entries, err := readEntries(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReadEntries_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

	_, err := readEntries(path)
	assert.ErrorContains(t, err, "failed to decode")
}

func TestWriteEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entries.json")

	require.NoError(t, writeEntries(path, nil))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	require.NoError(t, writeEntries(path, []models.Entry{entry("https://a", "A")}))
	got, err := readEntries(path)
	require.NoError(t, err)
	assert.Equal(t, []models.Entry{entry("https://a", "A")}, got)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestWriteStrings_Sorted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed.json")
	require.NoError(t, writeStrings(path, []string{"https://b", "https://a"}))

	got, err := readJSON[[]string](path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a", "https://b"}, got)
}

func TestMergeEntries(t *testing.T) {
	known := []models.Entry{entry("https://a", "A"), entry("https://blog/1", "")}
	added := []models.Entry{
		entry("https://a", ""),
		entry("https://other", "A"),
		entry("https://blog/2", ""),
		entry("https://c", "C"),
		entry("https://c2", "C"),
	}

	merged := mergeEntries(known, added)

	var urls []string
	for _, e := range merged {
		urls = append(urls, e.URL)
	}
	assert.Equal(t, []string{"https://a", "https://blog/1", "https://blog/2", "https://c"}, urls)
	assert.Len(t, known, 2)
}

func TestCommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}

	for _, want := range []string{"scrape", "articles", "import", "export", "index", "backfill", "inspect"} {
		assert.Contains(t, names, want)
	}
}
