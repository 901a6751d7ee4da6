package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/roach88/nomina/internal/ir"
)

// collectionAliases maps folded top-level JSON keys to collections.
var collectionAliases = map[string]ir.Collection{
	"activepersonnel": ir.CollectionActive,
	"active":          ir.CollectionActive,
	"activos":         ir.CollectionActive,
	"personalactivo":  ir.CollectionActive,
	"empleados":       ir.CollectionActive,
	"terminations":    ir.CollectionTerminations,
	"terminated":      ir.CollectionTerminations,
	"bajas":           ir.CollectionTerminations,
	"rotacion":        ir.CollectionTerminations,
}

// readJSON reads a document of the form
//
//	{"active_personnel": [{...}], "terminations": [{...}]}
//
// into r. Row keys go through the same alias table as CSV headers. Cell
// values may be strings, numbers or booleans; numbers keep their literal
// text so "43831" and 43831 are the same cell. Nested values are skipped
// with a warning.
func (r *Result) readJSON(src io.Reader) error {
	raw, err := io.ReadAll(src)
	if err != nil {
		return fmt.Errorf("read json: %w", err)
	}
	data, enc, err := DecodeText(raw)
	if err != nil {
		return fmt.Errorf("read json: %w", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("read json: %w", err)
	}

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	seen := make(map[ir.Collection]string)
	for _, key := range keys {
		c, ok := collectionAliases[NormalizeHeader(key)]
		if !ok {
			r.warn("", 0, "top-level key %q not recognized; ignored", key)
			continue
		}
		if prev, dup := seen[c]; dup {
			return fmt.Errorf("read json: keys %q and %q both hold the %s collection", prev, key, c)
		}
		seen[c] = key
		r.Encodings[c] = enc
		if err := r.readRows(c, doc[key]); err != nil {
			return fmt.Errorf("read json %q: %w", key, err)
		}
	}
	return nil
}

func (r *Result) readRows(c ir.Collection, raw json.RawMessage) error {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	var rows []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return fmt.Errorf("expected an array of objects: %w", err)
	}

	unknown := make(map[string]bool)
	for i, row := range rows {
		line := i + 1
		if len(row) == 0 {
			r.warn(c, line, "empty row skipped")
			continue
		}
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var rec ir.TerminationRecord
		claimed := make(map[string]string)
		for _, key := range keys {
			if NormalizeHeader(key) == "row" {
				continue
			}
			f, ok := CanonicalField(key)
			if !ok || (c == ir.CollectionActive && terminationOnly[f]) {
				if !unknown[key] {
					unknown[key] = true
					r.warn(c, 0, "column %q not recognized; ignored", key)
				}
				continue
			}
			if prev, dup := claimed[f]; dup {
				r.warn(c, line, "keys %q and %q both map to %s; keeping %q", prev, key, f, prev)
				continue
			}
			value, ok := cellText(row[key])
			if !ok {
				r.warn(c, line, "value of %q is not a scalar; ignored", key)
				continue
			}
			claimed[f] = key
			assign(&rec, f, value)
		}
		r.add(c, rec)
	}
	return nil
}

// cellText renders a scalar JSON value as cell text. null is empty.
func cellText(raw json.RawMessage) (string, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", false
	}
	switch val := v.(type) {
	case nil:
		return "", true
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case bool:
		if val {
			return "true", true
		}
		return "false", true
	default:
		return "", false
	}
}
