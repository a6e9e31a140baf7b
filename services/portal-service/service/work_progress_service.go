package service

import (
	"context"
	"errors"

	"grievance-portal/pkg/apperror"
	"grievance-portal/pkg/logger"
	"grievance-portal/services/portal-service/models"
	"grievance-portal/services/portal-service/repository"
	"grievance-portal/services/portal-service/workflow"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const workProgressNotFound = "Work progress entry not found"

type WorkProgressQuery struct {
	AssignedTo  string
	Status      string
	GrievanceID string
	Page        int
	Limit       int
}

type WorkProgressService struct {
	Deps
}

func NewWorkProgressService(d Deps) *WorkProgressService {
	return &WorkProgressService{Deps: d}
}

// List returns work entries. Nodal officers only ever see their own.
func (s *WorkProgressService) List(ctx context.Context, a workflow.Actor, q WorkProgressQuery) (*models.WorkProgressPage, error) {
	if !a.IsStaff() {
		return nil, apperror.Forbidden("Not authorized to access this route")
	}

	filter := repository.WorkProgressFilter{AssignedTo: q.AssignedTo, Status: q.Status}
	if a.IsNodal() {
		filter.AssignedTo = a.ID
	}
	if q.GrievanceID != "" {
		oid, err := primitive.ObjectIDFromHex(q.GrievanceID)
		if err != nil {
			return nil, apperror.Validation("Invalid grievance id")
		}
		filter.GrievanceID = &oid
	}

	p := workflow.NewPagination(q.Page, q.Limit, defaultQueuePageSize)
	entries, total, err := s.WorkProgress.Find(ctx, filter, p.Skip(), p.Limit)
	if err != nil {
		return nil, apperror.Internal("Failed to list work progress", err)
	}

	views, err := s.views(ctx, entries)
	if err != nil {
		return nil, err
	}
	return &models.WorkProgressPage{Entries: views, Page: p.Page, Pages: p.Pages(total), Total: total}, nil
}

func (s *WorkProgressService) load(ctx context.Context, id string) (*models.WorkProgress, error) {
	oid, err := parseObjectID(id, workProgressNotFound)
	if err != nil {
		return nil, err
	}
	wp, err := s.WorkProgress.FindByID(ctx, oid)
	if err != nil {
		return nil, lookupError(err, workProgressNotFound)
	}
	return wp, nil
}

func (s *WorkProgressService) Get(ctx context.Context, a workflow.Actor, id string) (*models.WorkProgressView, error) {
	wp, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := workflow.AuthorizeProgress(a, wp, "view"); err != nil {
		return nil, err
	}
	views, err := s.views(ctx, []models.WorkProgress{*wp})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Update applies a progress change. Entering Completed resolves the parent
// grievance and tells the citizen.
func (s *WorkProgressService) Update(ctx context.Context, a workflow.Actor, id string, upd workflow.ProgressUpdate) (*models.WorkProgressView, error) {
	wp, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := workflow.AuthorizeProgress(a, wp, "update"); err != nil {
		return nil, err
	}

	wasCompleted := wp.Status == models.WorkCompleted
	now := s.now()
	completed, err := workflow.ApplyProgress(wp, upd, now)
	if err != nil {
		return nil, err
	}
	if err := s.WorkProgress.Replace(ctx, wp); err != nil {
		return nil, lookupError(err, workProgressNotFound)
	}

	if completed && !wasCompleted {
		s.resolveGrievance(ctx, wp)
	}

	views, err := s.views(ctx, []models.WorkProgress{*wp})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *WorkProgressService) resolveGrievance(ctx context.Context, wp *models.WorkProgress) {
	g, err := s.Grievances.FindByID(ctx, wp.GrievanceID)
	if err != nil {
		logger.Warn(ctx, "Completed work progress has no grievance "+wp.GrievanceID.Hex(), err)
		return
	}
	if !workflow.ResolveFromProgress(g, wp, s.now()) {
		return
	}
	if err := s.Grievances.Replace(ctx, g); err != nil {
		logger.Error(ctx, "Failed to resolve grievance "+g.ID.Hex(), err)
		return
	}

	if citizen := s.userForNotice(ctx, g.UserID); citizen != nil {
		n, err := s.Templates.Resolved(g, citizen)
		s.notify(ctx, n, err)
	}
}

func (s *WorkProgressService) views(ctx context.Context, entries []models.WorkProgress) ([]models.WorkProgressView, error) {
	var userIDs []string
	summaries := map[primitive.ObjectID]*models.GrievanceSummary{}
	for _, wp := range entries {
		userIDs = append(userIDs, wp.AssignedTo)
		if _, ok := summaries[wp.GrievanceID]; ok {
			continue
		}
		g, err := s.Grievances.FindByID(ctx, wp.GrievanceID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			summaries[wp.GrievanceID] = nil
		case err != nil:
			return nil, apperror.Internal("Internal server error", err)
		default:
			summaries[wp.GrievanceID] = &models.GrievanceSummary{
				ID:           g.ID.Hex(),
				Title:        g.Title,
				Status:       g.Status,
				UserID:       g.UserID,
				DepartmentID: g.DepartmentID,
			}
		}
	}

	r, err := s.loadRefs(ctx, userIDs, nil)
	if err != nil {
		return nil, err
	}

	views := make([]models.WorkProgressView, 0, len(entries))
	for _, wp := range entries {
		views = append(views, models.WorkProgressView{
			ID:             wp.ID.Hex(),
			Grievance:      summaries[wp.GrievanceID],
			GrievanceID:    wp.GrievanceID.Hex(),
			AssignedTo:     models.NewUserRef(r.users[wp.AssignedTo]),
			Status:         wp.Status,
			StartDate:      wp.StartDate,
			CompletionDate: wp.CompletionDate,
			Remarks:        wp.Remarks,
			CreatedAt:      wp.CreatedAt,
			UpdatedAt:      wp.UpdatedAt,
		})
	}
	return views, nil
}
