package workflow

import (
	"fmt"
	"strings"
	"time"

	"grievance-portal/pkg/apperror"
	"grievance-portal/services/portal-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	FieldStatus            = "status"
	FieldAssignedTo        = "assignedTo"
	FieldResolutionDetails = "resolutionDetails"
	FieldRejectedReason    = "rejectedReason"
	FieldFeedbackRating    = "feedbackRating"
	FieldFeedbackComment   = "feedbackComment"
	FieldNote              = "note"
)

// UpdateRequest is a partial grievance update. Nil or empty values are absent.
type UpdateRequest struct {
	Status            *string `json:"status"`
	AssignedTo        *string `json:"assignedTo"`
	ResolutionDetails *string `json:"resolutionDetails"`
	RejectedReason    *string `json:"rejectedReason"`
	FeedbackRating    *int    `json:"feedbackRating"`
	FeedbackComment   *string `json:"feedbackComment"`
	Note              *string `json:"note"`
}

func present(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

// Fields lists the fields present in r.
func (r UpdateRequest) Fields() []string {
	var fields []string
	add := func(ok bool, name string) {
		if ok {
			fields = append(fields, name)
		}
	}
	add(present(r.Status), FieldStatus)
	add(present(r.AssignedTo), FieldAssignedTo)
	add(present(r.ResolutionDetails), FieldResolutionDetails)
	add(present(r.RejectedReason), FieldRejectedReason)
	add(r.FeedbackRating != nil, FieldFeedbackRating)
	add(present(r.FeedbackComment), FieldFeedbackComment)
	add(present(r.Note), FieldNote)
	return fields
}

type Audience int

const (
	NotifyNone Audience = iota
	NotifyCitizen
	NotifyDMsAndCitizen
)

// Outcome describes what an applied update changed and who must hear about it.
type Outcome struct {
	PreviousStatus string
	StatusChanged  bool
	Applied        bool
	Audience       Audience
}

// Policy is the set of mutations one account type may make.
type Policy struct {
	name      string
	permitted map[string]bool
	denied    string
	authorize func(a Actor, g *models.Grievance) error
	audience  func(o Outcome) Audience
}

func (p Policy) Permits(field string) bool { return p.permitted[field] }

var citizenPolicy = Policy{
	name: models.AccountCitizen,
	permitted: map[string]bool{
		FieldFeedbackRating:  true,
		FieldFeedbackComment: true,
	},
	denied: "Citizens can only give feedback",
	authorize: func(a Actor, g *models.Grievance) error {
		if g.UserID != a.ID {
			return apperror.Forbidden("Not authorized to update this grievance")
		}
		return nil
	},
	audience: func(Outcome) Audience { return NotifyNone },
}

var staffFields = map[string]bool{
	FieldStatus:            true,
	FieldAssignedTo:        true,
	FieldResolutionDetails: true,
	FieldRejectedReason:    true,
	FieldNote:              true,
}

var nodalPolicy = Policy{
	name:      models.AccountNodal,
	permitted: staffFields,
	denied:    "Feedback can only be given by the submitting citizen",
	authorize: func(a Actor, g *models.Grievance) error {
		if !CanView(a, g) {
			return apperror.Forbidden("Not authorized to update this grievance")
		}
		return nil
	},
	audience: func(Outcome) Audience { return NotifyDMsAndCitizen },
}

var dmPolicy = Policy{
	name:      models.AccountDM,
	permitted: staffFields,
	denied:    "Feedback can only be given by the submitting citizen",
	authorize: func(Actor, *models.Grievance) error { return nil },
	audience: func(o Outcome) Audience {
		if o.StatusChanged {
			return NotifyCitizen
		}
		return NotifyNone
	},
}

func PolicyFor(a Actor) (Policy, error) {
	switch a.AccountType {
	case models.AccountCitizen:
		return citizenPolicy, nil
	case models.AccountNodal:
		return nodalPolicy, nil
	case models.AccountDM:
		return dmPolicy, nil
	default:
		return Policy{}, apperror.Forbidden("Not authorized to update this grievance")
	}
}

// ApplyUpdate validates req against the actor's policy and mutates g in place.
// A request with no fields is a successful no-op. No transition table is
// enforced: any valid status may follow any other.
func ApplyUpdate(g *models.Grievance, a Actor, req UpdateRequest, now time.Time) (Outcome, error) {
	policy, err := PolicyFor(a)
	if err != nil {
		return Outcome{}, err
	}
	if err := policy.authorize(a, g); err != nil {
		return Outcome{}, err
	}

	fields := req.Fields()
	for _, f := range fields {
		if !policy.Permits(f) {
			return Outcome{}, apperror.Forbidden(policy.denied)
		}
	}

	out := Outcome{PreviousStatus: g.Status}
	if len(fields) == 0 {
		return out, nil
	}

	if present(req.Status) && !models.IsValidStatus(*req.Status) {
		return Outcome{}, apperror.Validation(fmt.Sprintf("Invalid status: %s", *req.Status))
	}
	if req.FeedbackRating != nil && (*req.FeedbackRating < 1 || *req.FeedbackRating > 5) {
		return Outcome{}, apperror.Validation("Feedback rating must be between 1 and 5")
	}

	if present(req.Status) {
		g.Status = *req.Status
		out.StatusChanged = g.Status != out.PreviousStatus
	}
	if present(req.AssignedTo) {
		assignee := strings.TrimSpace(*req.AssignedTo)
		g.AssignedTo = &assignee
	}
	if present(req.ResolutionDetails) {
		g.ResolutionDetails = *req.ResolutionDetails
	}
	if present(req.RejectedReason) {
		g.RejectedReason = *req.RejectedReason
	}
	if req.FeedbackRating != nil {
		rating := *req.FeedbackRating
		g.FeedbackRating = &rating
	}
	if present(req.FeedbackComment) {
		g.FeedbackComment = *req.FeedbackComment
	}
	if present(req.Note) {
		g.Comments = append(g.Comments, NewComment(a.ID,
			fmt.Sprintf("Status Update: %s - %s", g.Status, strings.TrimSpace(*req.Note)), true, now))
	}

	if g.Status == models.StatusResolved && g.ResolvedAt == nil {
		resolved := now
		g.ResolvedAt = &resolved
	}

	g.UpdatedAt = now
	out.Applied = true
	out.Audience = policy.audience(out)
	return out, nil
}

func NewComment(userID, text string, isPublic bool, now time.Time) models.Comment {
	return models.Comment{
		ID:        primitive.NewObjectIDFromTimestamp(now),
		UserID:    userID,
		Text:      text,
		IsPublic:  isPublic,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// VisibleComments drops internal comments for citizens.
func VisibleComments(a Actor, comments []models.Comment) []models.Comment {
	if !a.IsCitizen() {
		return comments
	}
	out := make([]models.Comment, 0, len(comments))
	for _, c := range comments {
		if c.IsPublic {
			out = append(out, c)
		}
	}
	return out
}
