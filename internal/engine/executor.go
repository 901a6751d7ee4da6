package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/nomina/internal/ir"
	"github.com/roach88/nomina/internal/validator"
)

// ErrTimeout is wrapped by the error of a validator that ran past its
// deadline.
var ErrTimeout = errors.New("validator timed out")

// execute runs one validator under its deadline. Panics are recovered into
// a PanicError. If the deadline passes first, execute returns without
// waiting for the validator; its late output is discarded.
func execute(ctx context.Context, v validator.Validator, in validator.Input, timeout time.Duration) ([]ir.ValidationResult, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		results []ir.ValidationResult
		err     error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: &PanicError{Value: r}}
			}
		}()
		results, err := v.Validate(ctx, in)
		done <- result{results: results, err: err}
	}()

	timedOut := func(err error) bool {
		return errors.Is(err, context.DeadlineExceeded) && errors.Is(ctx.Err(), context.DeadlineExceeded)
	}
	finish := func(r result) ([]ir.ValidationResult, error) {
		if r.err != nil && timedOut(r.err) {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}
		return r.results, r.err
	}

	select {
	case r := <-done:
		return finish(r)
	case <-ctx.Done():
		select {
		case r := <-done:
			return finish(r)
		default:
		}
		if timedOut(ctx.Err()) {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}
		return nil, ctx.Err()
	}
}

// normalize repairs results that break the result invariants and reports
// how many results needed a repair:
//   - an empty agent is set to the producing validator
//   - an empty message gets a placeholder
//   - a critical result is forced to status error
//   - affected rows outside the collection are dropped
func normalize(agent string, results []ir.ValidationResult, sizes map[ir.Collection]int) ([]ir.ValidationResult, int) {
	out := make([]ir.ValidationResult, 0, len(results))
	fixed := 0
	for _, r := range results {
		changed := false
		if strings.TrimSpace(r.Agent) == "" {
			r.Agent = agent
			changed = true
		}
		if strings.TrimSpace(r.Message) == "" {
			r.Message = fmt.Sprintf("%s reported a %s result without a message", agent, r.Severity)
			changed = true
		}
		if r.Severity == ir.SeverityCritical && r.Status != ir.StatusError {
			r.Status = ir.StatusError
			changed = true
		}
		if len(r.AffectedRows) > 0 {
			size := sizes[r.Collection]
			rows := make([]int, 0, len(r.AffectedRows))
			for _, row := range r.AffectedRows {
				if row >= 1 && row <= size {
					rows = append(rows, row)
				}
			}
			if len(rows) != len(r.AffectedRows) {
				r.AffectedRows = rows
				if len(rows) == 0 {
					r.AffectedRows = nil
				}
				changed = true
			}
		}
		if changed {
			fixed++
		}
		out = append(out, r)
	}
	return out, fixed
}
