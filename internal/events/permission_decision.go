package events

import "time"

const PermissionDecisionTopic = "hr.permission.decision.v1"

type PermissionDecisionEvent struct {
	EventType        string    `json:"event_type"`
	RequestID        string    `json:"request_id"`
	EmployeeID       string    `json:"employee_id"`
	PermissionTypeID string    `json:"permission_type_id"`
	Outcome          string    `json:"outcome"`
	Hours            string    `json:"hours"`
	OccurredAt       time.Time `json:"occurred_at"`
}
