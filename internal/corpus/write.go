package corpus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppiankov/transitions/internal/model"
)

// WriteCollection writes records as a JSON array to dir/name
func WriteCollection(dir, name string, records []model.SourceRecord) error {
	if records == nil {
		records = []model.SourceRecord{}
	}
	return writeJSON(dir, name, records)
}

// WritePage writes a single record as a JSON object to dir/name
func WritePage(dir, name string, record *model.SourceRecord) error {
	return writeJSON(dir, name, record)
}

func writeJSON(dir, name string, v any) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	path := filepath.Join(dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}
