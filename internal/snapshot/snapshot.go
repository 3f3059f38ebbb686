// Package snapshot persists the record collection as indented JSON. The file
// written by one run is read back by the next to resume the crawl.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/MichaelPico/job-offer-analyzer/internal/models"
)

//older snapshots used shorter names for the language fields
var legacyKeys = map[string]string{
	"title_lang":       "title_language",
	"description_lang": "description_language",
}

var knownKeys = jsonKeys(reflect.TypeOf(models.JobRecord{}))

// Load reads the snapshot at path. A missing file is an empty collection.
// Unknown keys are dropped, legacy keys renamed, and records that cannot be
// decoded are skipped with a warning.
func Load(path string, logger *slog.Logger) ([]models.JobRecord, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}

	records := make([]models.JobRecord, 0, len(raw))
	for i, fields := range raw {
		rec, err := decodeRecord(fields)
		if err != nil {
			logger.Warn("⚠️ skipping unreadable snapshot record", "index", i, "error", err)
			continue
		}
		records = append(records, rec)
	}
	logger.Info("📋 snapshot loaded", "path", path, "records", len(records), "skipped", len(raw)-len(records))
	return records, nil
}

func decodeRecord(fields map[string]json.RawMessage) (models.JobRecord, error) {
	clean := make(map[string]json.RawMessage, len(fields))
	for key, val := range fields {
		if renamed, ok := legacyKeys[key]; ok {
			if _, exists := fields[renamed]; exists {
				continue
			}
			key = renamed
		}
		if knownKeys[key] {
			clean[key] = val
		}
	}

	data, err := json.Marshal(clean)
	if err != nil {
		return models.JobRecord{}, err
	}
	rec := *models.NewJobRecord("")
	if err := json.Unmarshal(data, &rec); err != nil {
		return models.JobRecord{}, err
	}
	if rec.TechnologiesRequired == nil {
		rec.TechnologiesRequired = []string{}
	}
	if rec.ExperienceYearsNeeded < 0 {
		rec.ExperienceYearsNeeded = 0
	}
	return rec, nil
}

// Save writes records to path atomically: a temp file in the same directory
// is renamed over the target.
func Save(path string, records []models.JobRecord) error {
	if records == nil {
		records = []models.JobRecord{}
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

func jsonKeys(t reflect.Type) map[string]bool {
	keys := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			keys[name] = true
		}
	}
	return keys
}
