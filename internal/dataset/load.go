package dataset

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/nomina/internal/ir"
)

// ReadJSON reads a JSON dataset document.
func ReadJSON(src io.Reader) (*Result, error) {
	r := newResult()
	if err := r.readJSON(src); err != nil {
		return nil, err
	}
	return r, nil
}

// ReadCSV reads the active collection and, when terminations is non-nil,
// the terminations collection from CSV.
func ReadCSV(active, terminations io.Reader) (*Result, error) {
	r := newResult()
	if err := r.readCSV(active, ir.CollectionActive); err != nil {
		return nil, err
	}
	if terminations != nil {
		if err := r.readCSV(terminations, ir.CollectionTerminations); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// LoadFile reads a dataset file. JSON files hold both collections; a CSV
// file is read as the active collection.
func LoadFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ReadJSON(f)
	case ".csv", ".txt", ".tsv":
		return ReadCSV(f, nil)
	default:
		return nil, fmt.Errorf("dataset %s: unsupported extension %q (want .json or .csv)", path, filepath.Ext(path))
	}
}

// LoadCSVFiles reads the active and, if terminationsPath is not empty, the
// terminations CSV files.
func LoadCSVFiles(activePath, terminationsPath string) (*Result, error) {
	active, err := os.Open(activePath)
	if err != nil {
		return nil, fmt.Errorf("open active csv: %w", err)
	}
	defer active.Close()

	if terminationsPath == "" {
		return ReadCSV(active, nil)
	}
	terms, err := os.Open(terminationsPath)
	if err != nil {
		return nil, fmt.Errorf("open terminations csv: %w", err)
	}
	defer terms.Close()
	return ReadCSV(active, terms)
}
