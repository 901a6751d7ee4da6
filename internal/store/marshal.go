package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/nomina/internal/ir"
)

// timeLayout stores instants as sortable UTC text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

// marshalCanonical stores v as canonical JSON TEXT.
func marshalCanonical(what string, v any) (string, error) {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", what, err)
	}
	return string(data), nil
}

// unmarshalJSON decodes stored JSON keeping numbers as json.Number, so a
// value re-encodes to exactly the text it was stored as.
func unmarshalJSON(what, data string, v any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", what, err)
	}
	return nil
}

func marshalRows(rows []int) (string, error) {
	if rows == nil {
		rows = []int{}
	}
	return marshalCanonical("rows", rows)
}

func unmarshalRows(data string) ([]int, error) {
	var rows []int
	if err := json.Unmarshal([]byte(data), &rows); err != nil {
		return nil, fmt.Errorf("unmarshal rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows, nil
}

func marshalMetadata(meta map[string]any) (string, error) {
	if meta == nil {
		return "{}", nil
	}
	return marshalCanonical("metadata", meta)
}

func unmarshalMetadata(data string) (map[string]any, error) {
	if data == "" || data == "{}" {
		return nil, nil
	}
	var meta map[string]any
	if err := unmarshalJSON("metadata", data, &meta); err != nil {
		return nil, err
	}
	return meta, nil
}
