package report

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/roach88/nomina/internal/engine"
)

// ArchiveExt is the conventional suffix of report archives.
const ArchiveExt = ".json.zst"

// WriteArchive writes r to w as zstd-compressed canonical JSON.
func WriteArchive(w io.Writer, r *engine.Report) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	if err := EncodeJSON(zw, r); err != nil {
		zw.Close()
		return fmt.Errorf("write archive: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("flush archive: %w", err)
	}
	return nil
}

// ReadArchive reads a report written by WriteArchive.
func ReadArchive(rd io.Reader) (*engine.Report, error) {
	zr, err := zstd.NewReader(rd)
	if err != nil {
		return nil, fmt.Errorf("create zstd reader: %w", err)
	}
	defer zr.Close()

	r, err := DecodeJSON(zr)
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	return r, nil
}

// SaveArchive writes r to the file at path, replacing it.
func SaveArchive(path string, r *engine.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	if err := WriteArchive(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadArchive reads the archive at path.
func LoadArchive(path string) (*engine.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()
	return ReadArchive(f)
}
