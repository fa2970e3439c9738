package workflow_test

import (
	"testing"
	"time"

	"go-leaveflow/internal/workflow"

	"github.com/stretchr/testify/assert"
)

var weekend = []time.Weekday{time.Saturday, time.Sunday}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWorkingDays(t *testing.T) {
	t.Run("full week excludes both rest days", func(t *testing.T) {
		// 2024-06-03 is a Monday
		got := workflow.WorkingDays(date(2024, 6, 3), date(2024, 6, 9), weekend)
		assert.Equal(t, 5, got)
	})

	t.Run("single working day counts as one", func(t *testing.T) {
		got := workflow.WorkingDays(date(2024, 6, 3), date(2024, 6, 3), weekend)
		assert.Equal(t, 1, got)
	})

	t.Run("range consisting solely of rest days is zero", func(t *testing.T) {
		// Saturday and Sunday
		got := workflow.WorkingDays(date(2024, 6, 8), date(2024, 6, 9), weekend)
		assert.Equal(t, 0, got)
	})

	t.Run("inverted range is zero", func(t *testing.T) {
		got := workflow.WorkingDays(date(2024, 6, 5), date(2024, 6, 3), weekend)
		assert.Equal(t, 0, got)
	})

	t.Run("alternate rest day designation", func(t *testing.T) {
		fridaySaturday := []time.Weekday{time.Friday, time.Saturday}
		// Mon 2024-06-03 .. Sun 2024-06-09: Friday and Saturday drop out
		got := workflow.WorkingDays(date(2024, 6, 3), date(2024, 6, 9), fridaySaturday)
		assert.Equal(t, 5, got)
	})

	t.Run("matches brute force over a quarter", func(t *testing.T) {
		start := date(2024, 1, 1)
		for span := 0; span < 90; span++ {
			end := start.AddDate(0, 0, span)

			want := 0
			for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
				if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
					want++
				}
			}

			assert.Equal(t, want, workflow.WorkingDays(start, end, weekend), "span %d", span)
		}
	})
}

func TestOverlaps(t *testing.T) {
	t.Run("touching endpoints overlap on inclusive ranges", func(t *testing.T) {
		assert.True(t, workflow.Overlaps(
			date(2024, 6, 1), date(2024, 6, 4),
			date(2024, 6, 4), date(2024, 6, 8),
		))
	})

	t.Run("disjoint ranges do not overlap", func(t *testing.T) {
		assert.False(t, workflow.Overlaps(
			date(2024, 6, 1), date(2024, 6, 3),
			date(2024, 6, 4), date(2024, 6, 8),
		))
	})

	t.Run("contained range overlaps", func(t *testing.T) {
		assert.True(t, workflow.Overlaps(
			date(2024, 6, 1), date(2024, 6, 30),
			date(2024, 6, 10), date(2024, 6, 12),
		))
	})

	t.Run("single day range overlaps itself", func(t *testing.T) {
		d := date(2024, 6, 4)
		assert.True(t, workflow.Overlaps(d, d, d, d))
	})
}

func TestStatusPredicates(t *testing.T) {
	assert.False(t, workflow.IsTerminal(workflow.StatusPending))
	assert.True(t, workflow.IsTerminal(workflow.StatusApproved))
	assert.True(t, workflow.IsTerminal(workflow.StatusRejected))
	assert.True(t, workflow.IsTerminal(workflow.StatusAutoRejectedNoBalance))

	assert.True(t, workflow.IsAutoRejected(workflow.StatusAutoRejectedNoBalance))
	assert.True(t, workflow.IsAutoRejected(workflow.StatusAutoRejectedInsufficientBalance))
	assert.True(t, workflow.IsAutoRejected(workflow.StatusAutoRejectedMonthlyCap))
	assert.False(t, workflow.IsAutoRejected(workflow.StatusRejected))
	assert.False(t, workflow.IsAutoRejected(workflow.StatusPending))
}
