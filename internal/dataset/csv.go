package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/nomina/internal/ir"
)

// delimiters are tried in order when sniffing the header line.
var delimiters = []rune{',', ';', '\t', '|'}

// sniffDelimiter picks the candidate occurring most often in the first
// line. Spanish-locale Excel writes ';' because ',' is the decimal mark.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, count := ',', 0
	for _, d := range delimiters {
		if n := bytes.Count(line, []byte(string(d))); n > count {
			best, count = d, n
		}
	}
	return best
}

// readCSV reads one collection from CSV into r. The header row is
// resolved through the alias table; rows with too few or too many cells are
// padded or truncated with a warning, blank rows are skipped.
func (r *Result) readCSV(src io.Reader, c ir.Collection) error {
	raw, err := io.ReadAll(src)
	if err != nil {
		return fmt.Errorf("read %s csv: %w", c, err)
	}
	data, enc, err := DecodeText(raw)
	if err != nil {
		return fmt.Errorf("read %s csv: %w", c, err)
	}
	r.Encodings[c] = enc

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("read %s csv: empty file, no header row", c)
	}
	if err != nil {
		return fmt.Errorf("read %s csv header: %w", c, err)
	}

	mapping := MapHeaders(headers, c == ir.CollectionTerminations)
	for _, h := range mapping.Unmapped {
		r.warn(c, 1, "column %q not recognized; ignored", h)
	}
	for _, h := range mapping.Duplicates {
		r.warn(c, 1, "column %q maps to a field already read from an earlier column; ignored", h)
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var line int
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				line = perr.Line
			}
			r.warn(c, line, "parse error: %v", err)
			continue
		}
		line, _ := reader.FieldPos(0)
		if blank(row) {
			r.warn(c, line, "blank row skipped")
			continue
		}
		switch {
		case len(row) < len(headers):
			r.warn(c, line, "row has %d columns, expected %d; padding with empty values", len(row), len(headers))
		case len(row) > len(headers):
			r.warn(c, line, "row has %d columns, expected %d; truncating extra columns", len(row), len(headers))
			row = row[:len(headers)]
		}

		var rec ir.TerminationRecord
		for i, cell := range row {
			if f := mapping.Fields[i]; f != "" {
				assign(&rec, f, cell)
			}
		}
		r.add(c, rec)
	}
	return nil
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
