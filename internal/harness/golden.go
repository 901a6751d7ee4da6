package harness

import (
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/nomina/internal/engine"
	"github.com/roach88/nomina/internal/ir"
	"github.com/roach88/nomina/internal/report"
)

// Snapshot is the part of a report that golden files pin down. Timings and
// the execution plan are left out: they depend on the machine, not on the
// rules.
type Snapshot struct {
	Scenario        string                `json:"scenario"`
	RunID           string                `json:"run_id"`
	AsOf            string                `json:"as_of"`
	State           engine.State          `json:"state"`
	BlocksValuation bool                  `json:"blocks_valuation"`
	Counts          report.Counts         `json:"counts"`
	Results         []ir.ValidationResult `json:"results"`
}

// NewSnapshot extracts the golden view of rep.
func NewSnapshot(scenario string, rep *engine.Report) Snapshot {
	summary := report.Summarize(rep)
	results := rep.Results
	if results == nil {
		results = []ir.ValidationResult{}
	}
	return Snapshot{
		Scenario:        scenario,
		RunID:           rep.RunID,
		AsOf:            rep.AsOf.Format(time.DateOnly),
		State:           rep.State,
		BlocksValuation: summary.BlocksValuation(),
		Counts:          summary.Counts,
		Results:         results,
	}
}

// MarshalSnapshot renders a snapshot as canonical JSON plus a newline.
func MarshalSnapshot(s Snapshot) ([]byte, error) {
	b, err := ir.MarshalCanonical(s)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// RunWithGolden executes a scenario, fails the test on any broken
// expectation, and compares the report snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an already-computed result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	snapshot, err := MarshalSnapshot(NewSnapshot(name, result.Report))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, snapshot)

	return nil
}
