package models

import "time"

type UserRef struct {
	ID          string `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email,omitempty"`
	AccountType string `json:"accountType,omitempty"`
	Image       string `json:"image,omitempty"`
}

func NewUserRef(u *User) *UserRef {
	if u == nil {
		return nil
	}
	return &UserRef{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		AccountType: u.AccountType,
		Image:       u.Image,
	}
}

type DepartmentRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func NewDepartmentRef(d *Department) *DepartmentRef {
	if d == nil {
		return nil
	}
	return &DepartmentRef{ID: d.ID, Name: d.Name}
}

type CommentView struct {
	ID        string    `json:"id"`
	User      *UserRef  `json:"user"`
	Text      string    `json:"text"`
	IsPublic  bool      `json:"isPublic"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GrievanceView is a grievance with its references resolved. Department is
// nil when the referenced department no longer exists.
type GrievanceView struct {
	ID                string         `json:"id"`
	User              *UserRef       `json:"user"`
	Title             string         `json:"title"`
	Description       string         `json:"description"`
	Category          string         `json:"category"`
	SubCategory       string         `json:"subCategory,omitempty"`
	Department        *DepartmentRef `json:"department"`
	DepartmentID      string         `json:"departmentId"`
	AssignedTo        *UserRef       `json:"assignedTo"`
	AssignedBy        *UserRef       `json:"assignedBy"`
	Status            string         `json:"status"`
	Priority          string         `json:"priority"`
	Severity          string         `json:"severity"`
	Location          Location       `json:"location"`
	Attachments       []Attachment   `json:"attachments"`
	Comments          []CommentView  `json:"comments"`
	ResolutionDetails string         `json:"resolutionDetails,omitempty"`
	RejectedReason    string         `json:"rejectedReason,omitempty"`
	FeedbackRating    *int           `json:"feedbackRating,omitempty"`
	FeedbackComment   string         `json:"feedbackComment,omitempty"`
	ResolvedAt        *time.Time     `json:"resolvedAt,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

type GrievancePage struct {
	Grievances []GrievanceView `json:"grievances"`
	Page       int             `json:"page"`
	Pages      int             `json:"pages"`
	Total      int64           `json:"total"`
}

type GrievanceStats struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	Resolved   int64 `json:"resolved"`
	Rejected   int64 `json:"rejected"`
	InProgress int64 `json:"inProgress"`
	Assigned   int64 `json:"assigned"`
}

type GrievanceSummary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Status       string `json:"status"`
	UserID       string `json:"user"`
	DepartmentID string `json:"department"`
}

type WorkProgressView struct {
	ID             string            `json:"id"`
	Grievance      *GrievanceSummary `json:"grievance"`
	GrievanceID    string            `json:"grievanceId"`
	AssignedTo     *UserRef          `json:"assignedTo"`
	Status         string            `json:"status"`
	StartDate      time.Time         `json:"startDate"`
	CompletionDate *time.Time        `json:"completionDate,omitempty"`
	Remarks        string            `json:"remarks"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

type WorkProgressPage struct {
	Entries []WorkProgressView `json:"workProgress"`
	Page    int                `json:"page"`
	Pages   int                `json:"pages"`
	Total   int64              `json:"total"`
}

// UserView is an account with its department resolved. Sensitive fields are
// excluded by User's json tags.
type UserView struct {
	User
	Department *DepartmentRef `json:"department"`
}

type UserPage struct {
	Users []UserView `json:"users"`
	Page  int        `json:"page"`
	Pages int        `json:"pages"`
	Total int64      `json:"total"`
}
