package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed digests.
// Version suffix enables future algorithm migration.
const (
	DomainResults = "nomina/results/v1"
	DomainDataset = "nomina/dataset/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ResultsDigest fingerprints an ordered result list. Because the engine emits
// results in a deterministic order, equal digests mean equal reports.
func ResultsDigest(results []ValidationResult) (string, error) {
	if results == nil {
		results = []ValidationResult{}
	}
	canonical, err := MarshalCanonical(results)
	if err != nil {
		return "", fmt.Errorf("ResultsDigest: %w", err)
	}
	return hashWithDomain(DomainResults, canonical), nil
}

// DatasetDigest fingerprints an input snapshot so runs over the same data can
// be matched in run history.
func DatasetDigest(data *MappedData) (string, error) {
	if data == nil {
		data = &MappedData{}
	}
	canonical, err := MarshalCanonical(data)
	if err != nil {
		return "", fmt.Errorf("DatasetDigest: %w", err)
	}
	return hashWithDomain(DomainDataset, canonical), nil
}
