package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	WorkPending    = "Pending"
	WorkAccepted   = "Accepted"
	WorkInProgress = "In Progress"
	WorkCompleted  = "Completed"
	WorkClosed     = "Closed"
	WorkRejected   = "Rejected"
)

var workStatuses = map[string]bool{
	WorkPending: true, WorkAccepted: true, WorkInProgress: true,
	WorkCompleted: true, WorkClosed: true, WorkRejected: true,
}

func IsValidWorkStatus(s string) bool { return workStatuses[s] }

// WorkProgress is the assigned officer's task record for one grievance.
type WorkProgress struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GrievanceID    primitive.ObjectID `bson:"grievance" json:"grievance"`
	AssignedTo     string             `bson:"assignedTo" json:"assignedTo"`
	Status         string             `bson:"status" json:"status"`
	StartDate      time.Time          `bson:"startDate" json:"startDate"`
	CompletionDate *time.Time         `bson:"completionDate,omitempty" json:"completionDate,omitempty"`
	Remarks        string             `bson:"remarks" json:"remarks"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}
