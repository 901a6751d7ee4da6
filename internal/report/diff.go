package report

import "github.com/roach88/nomina/internal/ir"

// Delta is the difference between two result lists, compared by
// ValidationResult.Key.
type Delta struct {
	Added     []ir.ValidationResult `json:"added"`
	Removed   []ir.ValidationResult `json:"removed"`
	Unchanged int                   `json:"unchanged"`
}

// Empty reports whether both lists held the same findings.
func (d Delta) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// Diff compares the results of a baseline run a with a later run b.
// Keys are counted as a multiset, so a finding reported twice in b but once
// in a shows up once in Added. Both sides keep their original order.
func Diff(a, b []ir.ValidationResult) Delta {
	remaining := make(map[string]int, len(a))
	for _, r := range a {
		remaining[r.Key()]++
	}

	d := Delta{Added: []ir.ValidationResult{}, Removed: []ir.ValidationResult{}}
	for _, r := range b {
		k := r.Key()
		if remaining[k] > 0 {
			remaining[k]--
			d.Unchanged++
			continue
		}
		d.Added = append(d.Added, r)
	}
	for _, r := range a {
		k := r.Key()
		if remaining[k] > 0 {
			remaining[k]--
			d.Removed = append(d.Removed, r)
		}
	}
	return d
}
