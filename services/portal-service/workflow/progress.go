package workflow

import (
	"time"

	"grievance-portal/pkg/apperror"
	"grievance-portal/services/portal-service/models"
)

const DefaultResolution = "Grievance resolved as per officer work progress."

type ProgressUpdate struct {
	Status         *string    `json:"status"`
	Remarks        *string    `json:"remarks"`
	CompletionDate *time.Time `json:"completionDate"`
}

// AuthorizeProgress lets a nodal officer touch only their own entries.
func AuthorizeProgress(a Actor, wp *models.WorkProgress, action string) error {
	switch {
	case a.IsDM():
		return nil
	case a.IsNodal() && wp.AssignedTo == a.ID:
		return nil
	default:
		return apperror.Forbidden("Not authorized to " + action + " this work progress entry")
	}
}

// ApplyProgress mutates wp and reports whether it is now Completed.
// The completion date follows the effective status: stamped on entering
// Completed unless already set, cleared once the status is anything else.
func ApplyProgress(wp *models.WorkProgress, upd ProgressUpdate, now time.Time) (bool, error) {
	if upd.Status != nil && *upd.Status != "" {
		if !models.IsValidWorkStatus(*upd.Status) {
			return false, apperror.Validation("Invalid work progress status: " + *upd.Status)
		}
		wp.Status = *upd.Status
	}
	if upd.Remarks != nil {
		wp.Remarks = *upd.Remarks
	}
	if upd.CompletionDate != nil {
		d := *upd.CompletionDate
		wp.CompletionDate = &d
	}

	completed := wp.Status == models.WorkCompleted
	if completed && wp.CompletionDate == nil {
		d := now
		wp.CompletionDate = &d
	}
	if !completed {
		wp.CompletionDate = nil
	}

	wp.UpdatedAt = now
	return completed, nil
}

// ResolveFromProgress cascades a completed work entry onto its grievance.
// It reports false when the grievance was already Resolved.
func ResolveFromProgress(g *models.Grievance, wp *models.WorkProgress, now time.Time) bool {
	if g.Status == models.StatusResolved {
		return false
	}
	g.Status = models.StatusResolved
	g.ResolutionDetails = wp.Remarks
	if g.ResolutionDetails == "" {
		g.ResolutionDetails = DefaultResolution
	}
	if g.ResolvedAt == nil {
		resolved := now
		if wp.CompletionDate != nil {
			resolved = *wp.CompletionDate
		}
		g.ResolvedAt = &resolved
	}
	g.UpdatedAt = now
	return true
}
