package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nomina/internal/ir"
	"github.com/roach88/nomina/internal/validator"
)

func TestExecute_Timeout(t *testing.T) {
	v := validator.Func{
		Desc: desc("slow", 1),
		Fn: func(ctx context.Context, _ validator.Input) ([]ir.ValidationResult, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}

	_, err := execute(context.Background(), v, validator.Input{}, 10*time.Millisecond)

	assert.ErrorIs(t, err, ErrTimeout)
	assert.Contains(t, err.Error(), "10ms")
}

func TestExecute_CallerCancelIsNotTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	v := validator.Func{
		Desc: desc("v", 1),
		Fn: func(ctx context.Context, _ validator.Input) ([]ir.ValidationResult, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}

	_, err := execute(ctx, v, validator.Input{}, time.Minute)

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, ErrTimeout))
}

func TestExecute_Panic(t *testing.T) {
	v := validator.Func{
		Desc: desc("v", 1),
		Fn: func(context.Context, validator.Input) ([]ir.ValidationResult, error) {
			panic("bad row")
		},
	}

	_, err := execute(context.Background(), v, validator.Input{}, time.Second)

	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "bad row", pe.Value)
}

func TestNormalize(t *testing.T) {
	sizes := map[ir.Collection]int{ir.CollectionActive: 3, ir.CollectionTerminations: 1}

	tests := []struct {
		name  string
		in    ir.ValidationResult
		fixed int
		check func(t *testing.T, r ir.ValidationResult)
	}{
		{
			name:  "valid result untouched",
			in:    ir.Warning("v", ir.KindMissingData, "f", "m").WithRows(ir.CollectionActive, 1, 3),
			fixed: 0,
			check: func(t *testing.T, r ir.ValidationResult) {
				assert.Equal(t, []int{1, 3}, r.AffectedRows)
			},
		},
		{
			name:  "empty agent",
			in:    ir.Info(" ", "f", "m"),
			fixed: 1,
			check: func(t *testing.T, r ir.ValidationResult) {
				assert.Equal(t, "producer", r.Agent)
			},
		},
		{
			name:  "rows beyond collection",
			in:    ir.Warning("v", ir.KindMissingData, "f", "m").WithRows(ir.CollectionTerminations, 1, 2),
			fixed: 1,
			check: func(t *testing.T, r ir.ValidationResult) {
				assert.Equal(t, []int{1}, r.AffectedRows)
			},
		},
		{
			name:  "rows in unknown collection",
			in:    ir.Warning("v", ir.KindMissingData, "f", "m").WithRows("payroll", 1),
			fixed: 1,
			check: func(t *testing.T, r ir.ValidationResult) {
				assert.Nil(t, r.AffectedRows)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, fixed := normalize("producer", []ir.ValidationResult{tt.in}, sizes)
			require.Len(t, out, 1)
			assert.Equal(t, tt.fixed, fixed)
			assert.Empty(t, ir.CheckResults(out, sizes))
			tt.check(t, out[0])
		})
	}
}
