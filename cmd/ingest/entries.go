package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/imkonsowa/restaurants-linebot/models"
)

// readJSON decodes the file at path into a T. A missing file yields the zero value.
func readJSON[T any](path string) (T, error) {
	var v T

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return v, nil
	}
	if err != nil {
		return v, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return v, nil
}

// writeJSON replaces path with the indented encoding of v.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	return nil
}

func readEntries(path string) ([]models.Entry, error) {
	return readJSON[[]models.Entry](path)
}

func writeEntries(path string, entries []models.Entry) error {
	if entries == nil {
		entries = []models.Entry{}
	}

	return writeJSON(path, entries)
}

func writeStrings(path string, values []string) error {
	sorted := append([]string{}, values...)
	sort.Strings(sorted)

	return writeJSON(path, sorted)
}

// mergeEntries appends the entries of added whose url and place id are not
// known yet.
func mergeEntries(known, added []models.Entry) []models.Entry {
	urls := make(map[string]struct{}, len(known))
	places := make(map[string]struct{}, len(known))
	seen := func(e models.Entry) bool {
		if _, ok := urls[e.URL]; ok {
			return true
		}
		_, ok := places[e.Metadata.PlaceID]

		return ok && e.Metadata.PlaceID != ""
	}
	remember := func(e models.Entry) {
		urls[e.URL] = struct{}{}
		if e.Metadata.PlaceID != "" {
			places[e.Metadata.PlaceID] = struct{}{}
		}
	}

	for _, e := range known {
		remember(e)
	}

	merged := append([]models.Entry(nil), known...)
	for _, e := range added {
		if seen(e) {
			continue
		}
		remember(e)
		merged = append(merged, e)
	}

	return merged
}
