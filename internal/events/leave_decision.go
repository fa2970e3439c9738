package events

import "time"

const LeaveDecisionTopic = "hr.leave.decision.v1"

// LeaveDecisionEvent is emitted whenever a leave request reaches a terminal
// state, whether by manager action or submission-time auto-rejection.
type LeaveDecisionEvent struct {
	EventType   string    `json:"event_type"`
	RequestID   string    `json:"request_id"`
	EmployeeID  string    `json:"employee_id"`
	LeaveTypeID string    `json:"leave_type_id"`
	Outcome     string    `json:"outcome"`
	Days        int       `json:"days"`
	OccurredAt  time.Time `json:"occurred_at"`
}
