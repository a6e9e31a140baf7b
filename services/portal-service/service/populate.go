package service

import (
	"context"

	"grievance-portal/pkg/apperror"
	"grievance-portal/services/portal-service/models"
	"grievance-portal/services/portal-service/workflow"
)

// refs holds the accounts and departments referenced by a batch of records.
type refs struct {
	users map[string]*models.User
	depts map[string]*models.Department
}

func (d Deps) loadRefs(ctx context.Context, userIDs, deptIDs []string) (*refs, error) {
	r := &refs{users: map[string]*models.User{}, depts: map[string]*models.Department{}}

	users, err := d.Users.FindByIDs(ctx, uniq(userIDs))
	if err != nil {
		return nil, apperror.Internal("Internal server error", err)
	}
	for i := range users {
		r.users[users[i].ID] = &users[i]
	}

	depts, err := d.Departments.FindByIDs(ctx, uniq(deptIDs))
	if err != nil {
		return nil, apperror.Internal("Internal server error", err)
	}
	for i := range depts {
		r.depts[depts[i].ID] = &depts[i]
	}
	return r, nil
}

func (d Deps) grievanceRefs(ctx context.Context, grievances []models.Grievance) (*refs, error) {
	var userIDs, deptIDs []string
	for _, g := range grievances {
		userIDs = append(userIDs, g.UserID)
		if g.AssignedTo != nil {
			userIDs = append(userIDs, *g.AssignedTo)
		}
		if g.AssignedBy != nil {
			userIDs = append(userIDs, *g.AssignedBy)
		}
		for _, c := range g.Comments {
			userIDs = append(userIDs, c.UserID)
		}
		deptIDs = append(deptIDs, g.DepartmentID)
	}
	return d.loadRefs(ctx, userIDs, deptIDs)
}

func (r *refs) user(id *string) *models.UserRef {
	if id == nil {
		return nil
	}
	return models.NewUserRef(r.users[*id])
}

func (r *refs) grievanceView(a workflow.Actor, g *models.Grievance) models.GrievanceView {
	comments := workflow.VisibleComments(a, g.Comments)
	views := make([]models.CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, models.CommentView{
			ID:        c.ID.Hex(),
			User:      models.NewUserRef(r.users[c.UserID]),
			Text:      c.Text,
			IsPublic:  c.IsPublic,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		})
	}

	attachments := g.Attachments
	if attachments == nil {
		attachments = []models.Attachment{}
	}

	return models.GrievanceView{
		ID:                g.ID.Hex(),
		User:              models.NewUserRef(r.users[g.UserID]),
		Title:             g.Title,
		Description:       g.Description,
		Category:          g.Category,
		SubCategory:       g.SubCategory,
		Department:        models.NewDepartmentRef(r.depts[g.DepartmentID]),
		DepartmentID:      g.DepartmentID,
		AssignedTo:        r.user(g.AssignedTo),
		AssignedBy:        r.user(g.AssignedBy),
		Status:            g.Status,
		Priority:          g.Priority,
		Severity:          g.Severity,
		Location:          g.Location,
		Attachments:       attachments,
		Comments:          views,
		ResolutionDetails: g.ResolutionDetails,
		RejectedReason:    g.RejectedReason,
		FeedbackRating:    g.FeedbackRating,
		FeedbackComment:   g.FeedbackComment,
		ResolvedAt:        g.ResolvedAt,
		CreatedAt:         g.CreatedAt,
		UpdatedAt:         g.UpdatedAt,
	}
}

func (d Deps) grievanceView(ctx context.Context, a workflow.Actor, g *models.Grievance) (*models.GrievanceView, error) {
	r, err := d.grievanceRefs(ctx, []models.Grievance{*g})
	if err != nil {
		return nil, err
	}
	v := r.grievanceView(a, g)
	return &v, nil
}

func (d Deps) grievancePage(ctx context.Context, a workflow.Actor, grievances []models.Grievance, total int64, p workflow.Pagination) (*models.GrievancePage, error) {
	r, err := d.grievanceRefs(ctx, grievances)
	if err != nil {
		return nil, err
	}
	page := &models.GrievancePage{
		Grievances: make([]models.GrievanceView, 0, len(grievances)),
		Page:       p.Page,
		Pages:      p.Pages(total),
		Total:      total,
	}
	for i := range grievances {
		page.Grievances = append(page.Grievances, r.grievanceView(a, &grievances[i]))
	}
	return page, nil
}

func (d Deps) userViews(ctx context.Context, users []models.User) ([]models.UserView, error) {
	var deptIDs []string
	for _, u := range users {
		if u.DepartmentID != nil {
			deptIDs = append(deptIDs, *u.DepartmentID)
		}
	}
	r, err := d.loadRefs(ctx, nil, deptIDs)
	if err != nil {
		return nil, err
	}
	views := make([]models.UserView, 0, len(users))
	for _, u := range users {
		views = append(views, models.UserView{User: u, Department: models.NewDepartmentRef(r.depts[u.Department()])})
	}
	return views, nil
}

func (d Deps) userView(ctx context.Context, u *models.User) (*models.UserView, error) {
	views, err := d.userViews(ctx, []models.User{*u})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func uniq(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
