package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StatusSubmitted   = "Submitted"
	StatusUnderReview = "Under Review"
	StatusAssigned    = "Assigned"
	StatusInProgress  = "In Progress"
	StatusResolved    = "Resolved"
	StatusRejected    = "Rejected"
	StatusClosed      = "Closed"
	StatusReopened    = "Reopened"
)

const (
	PriorityLow      = "Low"
	PriorityMedium   = "Medium"
	PriorityHigh     = "High"
	PriorityCritical = "Critical"
)

var grievanceStatuses = map[string]bool{
	StatusSubmitted: true, StatusUnderReview: true, StatusAssigned: true, StatusInProgress: true,
	StatusResolved: true, StatusRejected: true, StatusClosed: true, StatusReopened: true,
}

var priorities = map[string]bool{
	PriorityLow: true, PriorityMedium: true, PriorityHigh: true, PriorityCritical: true,
}

func IsValidStatus(s string) bool   { return grievanceStatuses[s] }
func IsValidPriority(p string) bool { return priorities[p] }

type Location struct {
	Type        string `bson:"type" json:"type"`
	AddressText string `bson:"addressText" json:"addressText"`
}

type Attachment struct {
	URL      string `bson:"url" json:"url"`
	FileType string `bson:"fileType" json:"fileType"`
}

type Comment struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	UserID    string             `bson:"user" json:"user"`
	Text      string             `bson:"text" json:"text"`
	IsPublic  bool               `bson:"isPublic" json:"isPublic"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Grievance is stored in MongoDB. AssignedTo and AssignedBy are written as
// null until assignment so that {assignedTo: null} selects the unassigned queue.
type Grievance struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID            string             `bson:"user" json:"user"`
	Title             string             `bson:"title" json:"title"`
	Description       string             `bson:"description" json:"description"`
	Category          string             `bson:"category" json:"category"`
	SubCategory       string             `bson:"subCategory,omitempty" json:"subCategory,omitempty"`
	DepartmentID      string             `bson:"department" json:"department"`
	AssignedTo        *string            `bson:"assignedTo" json:"assignedTo"`
	AssignedBy        *string            `bson:"assignedBy" json:"assignedBy"`
	Status            string             `bson:"status" json:"status"`
	Priority          string             `bson:"priority" json:"priority"`
	Severity          string             `bson:"severity" json:"severity"`
	Location          Location           `bson:"location" json:"location"`
	Attachments       []Attachment       `bson:"attachments" json:"attachments"`
	Comments          []Comment          `bson:"comments" json:"comments"`
	ResolutionDetails string             `bson:"resolutionDetails,omitempty" json:"resolutionDetails,omitempty"`
	RejectedReason    string             `bson:"rejectedReason,omitempty" json:"rejectedReason,omitempty"`
	FeedbackRating    *int               `bson:"feedbackRating,omitempty" json:"feedbackRating,omitempty"`
	FeedbackComment   string             `bson:"feedbackComment,omitempty" json:"feedbackComment,omitempty"`
	ResolvedAt        *time.Time         `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (g *Grievance) IsAssigned() bool {
	return g.AssignedTo != nil && *g.AssignedTo != ""
}

func (g *Grievance) AssigneeID() string {
	if g.AssignedTo == nil {
		return ""
	}
	return *g.AssignedTo
}
