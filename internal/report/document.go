package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/roach88/nomina/internal/engine"
	"github.com/roach88/nomina/internal/ir"
)

// Document is the machine-readable form of a report.
type Document struct {
	SchemaVersion  string         `json:"schema_version"`
	RulesetVersion string         `json:"ruleset_version"`
	Digest         string         `json:"results_digest"`
	Summary        Summary        `json:"summary"`
	Report         *engine.Report `json:"report"`
}

// NewDocument wraps r with its summary and results digest.
func NewDocument(r *engine.Report) (Document, error) {
	digest, err := Digest(r)
	if err != nil {
		return Document{}, err
	}
	return Document{
		SchemaVersion:  ir.SchemaVersion,
		RulesetVersion: ir.RulesetVersion,
		Digest:         digest,
		Summary:        Summarize(r),
		Report:         r,
	}, nil
}

// Digest fingerprints the ordered results of r.
func Digest(r *engine.Report) (string, error) {
	d, err := ir.ResultsDigest(r.Results)
	if err != nil {
		return "", fmt.Errorf("report digest: %w", err)
	}
	return d, nil
}

// MarshalJSON encodes r as a canonical Document.
func MarshalJSON(r *engine.Report) ([]byte, error) {
	doc, err := NewDocument(r)
	if err != nil {
		return nil, err
	}
	return ir.MarshalCanonical(doc)
}

// EncodeJSON writes r as a canonical Document followed by a newline.
func EncodeJSON(w io.Writer, r *engine.Report) error {
	b, err := MarshalJSON(r)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

// DecodeJSON reads a Document and returns its report. The embedded digest
// must match the decoded results.
func DecodeJSON(rd io.Reader) (*engine.Report, error) {
	var doc Document
	if err := json.NewDecoder(rd).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	if doc.Report == nil {
		return nil, fmt.Errorf("decode report: document has no report")
	}
	if doc.Digest != "" {
		got, err := Digest(doc.Report)
		if err != nil {
			return nil, err
		}
		if got != doc.Digest {
			return nil, fmt.Errorf("decode report: results digest mismatch: have %s, want %s", got, doc.Digest)
		}
	}
	return doc.Report, nil
}
