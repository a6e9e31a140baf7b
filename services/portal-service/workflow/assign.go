package workflow

import (
	"strings"
	"time"

	"grievance-portal/services/portal-service/models"
)

// Assign routes g to departmentID and officerID on behalf of the district
// magistrate a. A non-empty message becomes an internal comment.
func Assign(g *models.Grievance, departmentID, officerID string, a Actor, message string, now time.Time) {
	officer := officerID
	assigner := a.ID

	g.DepartmentID = departmentID
	g.AssignedTo = &officer
	g.AssignedBy = &assigner
	g.Status = models.StatusAssigned

	if msg := strings.TrimSpace(message); msg != "" {
		g.Comments = append(g.Comments, NewComment(a.ID, "Assigned by DM: "+msg, false, now))
	}
	g.UpdatedAt = now
}
