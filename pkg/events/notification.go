package events

import "time"

// Event types published on the notifications exchange.
const (
	TypeGrievanceCreated  = "grievance.created"
	TypeGrievanceAssigned = "grievance.assigned"
	TypeStatusUpdated     = "grievance.status_updated"
	TypeGrievanceResolved = "grievance.resolved"
	TypeDepartmentCreated = "department.created"
	TypeAccountWelcome    = "account.welcome"
)

// Notification is a rendered message and its audience. Recipients are email
// addresses for the mail worker, UserIDs are account ids for in-app push.
type Notification struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	TraceID     string    `json:"trace_id,omitempty"`
	GrievanceID string    `json:"grievance_id,omitempty"`
	Title       string    `json:"title"`
	Status      string    `json:"status,omitempty"`
	Subject     string    `json:"subject"`
	HTML        string    `json:"html"`
	Recipients  []string  `json:"recipients"`
	UserIDs     []string  `json:"user_ids,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
