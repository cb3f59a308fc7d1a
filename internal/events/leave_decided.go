package events

import "time"

const LeaveDecidedTopic = "elms.leave.decided"

const (
	LeaveApprovedEventType = "leave_approved"
	LeaveRejectedEventType = "leave_rejected"
)

// LeaveDecidedEvent is published after a request reaches a terminal decision so
// downstream consumers can notify the employee. It is written through the
// transactional outbox, never directly to the broker.
type LeaveDecidedEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id"`
	LeaveID    string    `json:"leave_id"`
	EmployeeID string    `json:"employee_id"`
	Status     string    `json:"status"`
	NoOfDays   int       `json:"no_of_days"`
	DecidedBy  string    `json:"decided_by"`
	OccurredAt time.Time `json:"occurred_at"`
}
