// Package workflow holds the vocabulary shared by the leave (day-quota) and
// permission (hour-quota) request lifecycles: the status set and the pure
// calendar arithmetic both orchestrators decide with.
package workflow

import "time"

const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"

	// Submission-time terminal outcomes produced by policy evaluation alone.
	StatusAutoRejectedNoBalance           = "AUTO_REJECTED_NO_BALANCE"
	StatusAutoRejectedInsufficientBalance = "AUTO_REJECTED_INSUFFICIENT_BALANCE"
	StatusAutoRejectedMonthlyCap          = "AUTO_REJECTED_MONTHLY_CAP"
)

// IsTerminal reports whether no further transition is legal from status.
// PENDING is the only non-terminal state.
func IsTerminal(status string) bool {
	return status != StatusPending
}

// IsAutoRejected reports whether status encodes a policy-driven rejection.
func IsAutoRejected(status string) bool {
	switch status {
	case StatusAutoRejectedNoBalance,
		StatusAutoRejectedInsufficientBalance,
		StatusAutoRejectedMonthlyCap:
		return true
	}
	return false
}

// WorkingDays counts the days in the inclusive range [start, end] whose
// weekday is not a designated rest day. Dates are compared at day
// granularity; time-of-day on the inputs is ignored. Returns 0 when
// start is after end.
func WorkingDays(start, end time.Time, restDays []time.Weekday) int {
	start = truncateToDay(start)
	end = truncateToDay(end)

	days := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if !isRestDay(d.Weekday(), restDays) {
			days++
		}
	}
	return days
}

// Overlaps is the standard inclusive interval-overlap test: a single-day
// range where start == end still overlaps itself.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}

func isRestDay(d time.Weekday, restDays []time.Weekday) bool {
	for _, r := range restDays {
		if d == r {
			return true
		}
	}
	return false
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
