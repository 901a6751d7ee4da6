// Package report summarizes, renders, compares and archives engine reports.
package report

import (
	"sort"
	"time"

	"github.com/roach88/nomina/internal/engine"
	"github.com/roach88/nomina/internal/ir"
)

// Counts tallies results by severity.
type Counts struct {
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
	Info     int `json:"info"`
}

func (c *Counts) add(s ir.Severity) {
	switch s {
	case ir.SeverityCritical:
		c.Critical++
	case ir.SeverityWarning:
		c.Warning++
	default:
		c.Info++
	}
}

// Total returns the number of counted results.
func (c Counts) Total() int { return c.Critical + c.Warning + c.Info }

// Summary is the headline view of a report.
type Summary struct {
	RunID  string          `json:"run_id"`
	State  engine.State    `json:"state"`
	AsOf   string          `json:"as_of"`
	Counts Counts          `json:"counts"`
	ByKind map[ir.Kind]int `json:"by_kind"`

	// ByAgent is keyed by validator name.
	ByAgent map[string]Counts `json:"by_agent"`

	// FailedAgents lists validators replaced by a SYSTEM_ERROR.
	FailedAgents []string `json:"failed_agents,omitempty"`

	// FlaggedRows counts distinct rows per collection named by a warning or
	// critical result.
	FlaggedRows map[ir.Collection]int `json:"flagged_rows"`
}

// Summarize tallies a report.
func Summarize(r *engine.Report) Summary {
	s := Summary{
		RunID:       r.RunID,
		State:       r.State,
		AsOf:        r.AsOf.Format(time.DateOnly),
		ByKind:      make(map[ir.Kind]int),
		ByAgent:     make(map[string]Counts),
		FlaggedRows: make(map[ir.Collection]int),
	}
	flagged := make(map[ir.Collection]map[int]bool)
	for _, res := range r.Results {
		s.Counts.add(res.Severity)
		c := s.ByAgent[res.Agent]
		c.add(res.Severity)
		s.ByAgent[res.Agent] = c
		if res.Kind != "" {
			s.ByKind[res.Kind]++
		}
		if res.Severity == ir.SeverityInfo || res.Collection == "" {
			continue
		}
		if flagged[res.Collection] == nil {
			flagged[res.Collection] = make(map[int]bool)
		}
		for _, row := range res.AffectedRows {
			flagged[res.Collection][row] = true
		}
	}
	for c, rows := range flagged {
		s.FlaggedRows[c] = len(rows)
	}
	for _, a := range r.Agents {
		if a.Failed() {
			s.FailedAgents = append(s.FailedAgents, a.Name)
		}
	}
	return s
}

// BlocksValuation reports whether any critical result was produced. It is
// the gating predicate: a dataset with criticals must not feed a valuation.
func (s Summary) BlocksValuation() bool {
	return s.Counts.Critical > 0
}

// SeverityGroup is the results of one severity in report order.
type SeverityGroup struct {
	Severity ir.Severity           `json:"severity"`
	Results  []ir.ValidationResult `json:"results"`
}

// GroupBySeverity splits results into critical, warning and info groups,
// preserving order within each. Empty groups are omitted.
func GroupBySeverity(results []ir.ValidationResult) []SeverityGroup {
	order := []ir.Severity{ir.SeverityCritical, ir.SeverityWarning, ir.SeverityInfo}
	buckets := make(map[ir.Severity][]ir.ValidationResult, len(order))
	for _, r := range results {
		sev := r.Severity
		if sev != ir.SeverityCritical && sev != ir.SeverityWarning {
			sev = ir.SeverityInfo
		}
		buckets[sev] = append(buckets[sev], r)
	}
	var out []SeverityGroup
	for _, sev := range order {
		if len(buckets[sev]) > 0 {
			out = append(out, SeverityGroup{Severity: sev, Results: buckets[sev]})
		}
	}
	return out
}

// Agents returns the agent names of a summary, sorted.
func (s Summary) Agents() []string {
	names := make([]string, 0, len(s.ByAgent))
	for name := range s.ByAgent {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
