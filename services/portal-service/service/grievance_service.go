package service

import (
	"context"
	"errors"
	"strings"

	"grievance-portal/pkg/apperror"
	"grievance-portal/pkg/logger"
	"grievance-portal/services/portal-service/models"
	"grievance-portal/services/portal-service/notification"
	"grievance-portal/services/portal-service/repository"
	"grievance-portal/services/portal-service/workflow"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultGrievancePageSize = 100
	defaultQueuePageSize     = 10
)

var ErrGrievanceNotFound = apperror.NotFound("Grievance not found")

type CreateGrievanceInput struct {
	Title        string
	Description  string
	Category     string
	SubCategory  string
	DepartmentID string
	Severity     string
	AddressText  string
	Files        []Upload
}

type GrievanceQuery struct {
	Status       string
	Category     string
	DepartmentID string
	AssignedTo   string
	Search       string
	Page         int
	Limit        int
}

type GrievanceService struct {
	Deps
}

func NewGrievanceService(d Deps) *GrievanceService {
	return &GrievanceService{Deps: d}
}

func (s *GrievanceService) load(ctx context.Context, id string) (*models.Grievance, error) {
	oid, err := parseObjectID(id, ErrGrievanceNotFound.Message)
	if err != nil {
		return nil, err
	}
	g, err := s.Grievances.FindByID(ctx, oid)
	if err != nil {
		return nil, lookupError(err, ErrGrievanceNotFound.Message)
	}
	return g, nil
}

// Create files a new grievance for a citizen and alerts the district
// magistrates.
func (s *GrievanceService) Create(ctx context.Context, a workflow.Actor, in CreateGrievanceInput) (*models.GrievanceView, error) {
	if !a.IsCitizen() {
		return nil, apperror.Forbidden("Only citizens can submit grievances")
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	in.DepartmentID = strings.TrimSpace(in.DepartmentID)
	if in.Title == "" || in.Description == "" || in.Category == "" || in.DepartmentID == "" {
		return nil, apperror.Validation("Please provide title, description, category and department")
	}

	severity := strings.TrimSpace(in.Severity)
	if severity == "" {
		severity = models.PriorityLow
	}
	if !models.IsValidPriority(severity) {
		return nil, apperror.Validation("Invalid severity: " + severity)
	}

	if len(in.Files) > MaxAttachments {
		return nil, apperror.Validation("You can upload a maximum of 5 files")
	}
	for _, f := range in.Files {
		if err := validateMedia(f, true); err != nil {
			return nil, err
		}
	}

	dept, err := s.Departments.FindByID(ctx, in.DepartmentID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Validation("Invalid department")
	}
	if err != nil {
		return nil, apperror.Internal("Internal server error", err)
	}

	now := s.now()
	g := &models.Grievance{
		ID:           primitive.NewObjectIDFromTimestamp(now),
		UserID:       a.ID,
		Title:        in.Title,
		Description:  in.Description,
		Category:     in.Category,
		SubCategory:  strings.TrimSpace(in.SubCategory),
		DepartmentID: dept.ID,
		Status:       models.StatusSubmitted,
		Priority:     severity,
		Severity:     severity,
		Location:     models.Location{Type: "Point", AddressText: strings.TrimSpace(in.AddressText)},
		Comments:     []models.Comment{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var keys []string
	g.Attachments, keys, err = s.storeAttachments(ctx, "grievances/"+g.ID.Hex()+"/", in.Files)
	if err != nil {
		return nil, err
	}

	if err := s.Grievances.Insert(ctx, g); err != nil {
		s.removeObjects(ctx, keys)
		return nil, apperror.Internal("Failed to create grievance", err)
	}

	n, err := s.Templates.GrievanceCreated(g, dept.Name, s.activeDMs(ctx))
	s.notify(ctx, n, err)

	return s.grievanceView(ctx, a, g)
}

// List returns the caller's visible grievances, newest first. Explicit
// filters narrow the caller's scope and never widen it.
func (s *GrievanceService) List(ctx context.Context, a workflow.Actor, q GrievanceQuery) (*models.GrievancePage, error) {
	filter := repository.GrievanceFilter{
		Scope:        workflow.ScopeFor(a),
		Status:       q.Status,
		Category:     q.Category,
		DepartmentID: q.DepartmentID,
		AssignedTo:   q.AssignedTo,
		Search:       q.Search,
	}
	return s.page(ctx, a, filter, workflow.NewPagination(q.Page, q.Limit, defaultGrievancePageSize))
}

func (s *GrievanceService) page(ctx context.Context, a workflow.Actor, filter repository.GrievanceFilter, p workflow.Pagination) (*models.GrievancePage, error) {
	grievances, total, err := s.Grievances.Find(ctx, filter, p.Skip(), p.Limit)
	if err != nil {
		return nil, apperror.Internal("Failed to list grievances", err)
	}
	return s.grievancePage(ctx, a, grievances, total, p)
}

func (s *GrievanceService) Get(ctx context.Context, a workflow.Actor, id string) (*models.GrievanceView, error) {
	g, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !workflow.CanView(a, g) {
		return nil, apperror.Forbidden("Not authorized to view this grievance")
	}
	return s.grievanceView(ctx, a, g)
}

// Update applies a partial update under the caller's role policy and sends
// the role-specific notifications.
func (s *GrievanceService) Update(ctx context.Context, a workflow.Actor, id string, req workflow.UpdateRequest) (*models.GrievanceView, error) {
	g, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	out, err := workflow.ApplyUpdate(g, a, req, s.now())
	if err != nil {
		return nil, err
	}
	if !out.Applied {
		return s.grievanceView(ctx, a, g)
	}

	if req.AssignedTo != nil && strings.TrimSpace(*req.AssignedTo) != "" {
		if err := s.checkAssignee(ctx, g); err != nil {
			return nil, err
		}
	}

	if err := s.Grievances.Replace(ctx, g); err != nil {
		return nil, lookupError(err, ErrGrievanceNotFound.Message)
	}

	s.notifyUpdate(ctx, a, g, out, req)
	return s.grievanceView(ctx, a, g)
}

// checkAssignee enforces that a directly set assignee is an active nodal
// officer of the grievance's department.
func (s *GrievanceService) checkAssignee(ctx context.Context, g *models.Grievance) error {
	officer, err := s.Users.FindByID(ctx, g.AssigneeID())
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return apperror.Internal("Internal server error", err)
	}
	if officer == nil || officer.AccountType != models.AccountNodal || !officer.Active || officer.Department() != g.DepartmentID {
		return apperror.Validation("Assigned officer must be an active nodal officer of the grievance's department")
	}
	return nil
}

func (s *GrievanceService) notifyUpdate(ctx context.Context, a workflow.Actor, g *models.Grievance, out workflow.Outcome, req workflow.UpdateRequest) {
	if out.Audience == workflow.NotifyNone {
		return
	}

	upd := notification.StatusUpdate{
		PreviousStatus: out.PreviousStatus,
		UpdatedBy:      a.FullName(),
		ByDM:           a.IsDM(),
	}
	if req.Note != nil {
		upd.Note = *req.Note
	}

	if out.Audience == workflow.NotifyDMsAndCitizen {
		n, err := s.Templates.StatusUpdatedForDMs(g, upd, s.activeDMs(ctx))
		s.notify(ctx, n, err)
	}
	if citizen := s.userForNotice(ctx, g.UserID); citizen != nil {
		n, err := s.Templates.StatusUpdatedForCitizen(g, upd, citizen)
		s.notify(ctx, n, err)
	}
}

// AddComment appends a comment by the caller. isPublic defaults to true.
func (s *GrievanceService) AddComment(ctx context.Context, a workflow.Actor, id, text string, isPublic *bool) (*models.GrievanceView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperror.Validation("Comment text is required")
	}

	g, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !workflow.CanView(a, g) {
		return nil, apperror.Forbidden("Not authorized to comment on this grievance")
	}

	public := true
	if isPublic != nil {
		public = *isPublic
	}
	comment := workflow.NewComment(a.ID, text, public, s.now())
	if err := s.Grievances.PushComment(ctx, g.ID, comment); err != nil {
		return nil, lookupError(err, ErrGrievanceNotFound.Message)
	}

	g.Comments = append(g.Comments, comment)
	g.UpdatedAt = comment.CreatedAt
	return s.grievanceView(ctx, a, g)
}

// Assign routes a grievance to a department's nodal officer. The grievance
// is left untouched when the department has no active officer.
func (s *GrievanceService) Assign(ctx context.Context, a workflow.Actor, id, departmentID, message string) (*models.GrievanceView, error) {
	if !a.IsDM() {
		return nil, apperror.Forbidden("Only district magistrates can assign grievances")
	}
	departmentID = strings.TrimSpace(departmentID)
	if departmentID == "" {
		return nil, apperror.Validation("Department is required")
	}

	g, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dept, err := s.Departments.FindByID(ctx, departmentID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Validation("Department not found")
	}
	if err != nil {
		return nil, apperror.Internal("Internal server error", err)
	}
	officer, err := s.Users.FindActiveNodalOfficer(ctx, dept.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Validation("No active nodal officer found for this department")
	}
	if err != nil {
		return nil, apperror.Internal("Internal server error", err)
	}

	now := s.now()
	workflow.Assign(g, dept.ID, officer.ID, a, message, now)
	if err := s.Grievances.Replace(ctx, g); err != nil {
		return nil, lookupError(err, ErrGrievanceNotFound.Message)
	}

	if err := s.WorkProgress.UpsertForGrievance(ctx, g.ID, officer.ID, now); err != nil {
		logger.Warn(ctx, "Failed to open work progress for grievance "+g.ID.Hex(), err)
	}

	n, err := s.Templates.AssignedToOfficer(g, dept.Name, officer, message)
	s.notify(ctx, n, err)
	if citizen := s.userForNotice(ctx, g.UserID); citizen != nil {
		n, err := s.Templates.AssignedToCitizen(g, dept.Name, citizen)
		s.notify(ctx, n, err)
	}

	return s.grievanceView(ctx, a, g)
}

// Delete removes the grievance only. Its work progress entry is left behind.
func (s *GrievanceService) Delete(ctx context.Context, a workflow.Actor, id string) error {
	if !a.IsDM() {
		return apperror.Forbidden("Only district magistrates can delete grievances")
	}
	oid, err := parseObjectID(id, ErrGrievanceNotFound.Message)
	if err != nil {
		return err
	}
	if err := s.Grievances.Delete(ctx, oid); err != nil {
		return lookupError(err, ErrGrievanceNotFound.Message)
	}
	return nil
}

func (s *GrievanceService) DashboardStats(ctx context.Context, a workflow.Actor) (*models.GrievanceStats, error) {
	counts, err := s.Grievances.CountByStatus(ctx, repository.GrievanceFilter{Scope: workflow.ScopeFor(a)})
	if err != nil {
		return nil, apperror.Internal("Failed to compute statistics", err)
	}
	stats := workflow.Tally(counts)
	return &stats, nil
}

// ListUnassigned is the district magistrate's triage queue.
func (s *GrievanceService) ListUnassigned(ctx context.Context, a workflow.Actor, page, limit int) (*models.GrievancePage, error) {
	if !a.IsDM() {
		return nil, apperror.Forbidden("Not authorized to access this route")
	}
	filter := repository.GrievanceFilter{
		Scope:      workflow.ScopeFor(a),
		Statuses:   []string{models.StatusSubmitted, models.StatusUnderReview},
		AssignedTo: repository.AssignedNone,
	}
	return s.page(ctx, a, filter, workflow.NewPagination(page, limit, defaultQueuePageSize))
}

// ListAssigned is the nodal officer's work queue.
func (s *GrievanceService) ListAssigned(ctx context.Context, a workflow.Actor, status string, page, limit int) (*models.GrievancePage, error) {
	if !a.IsNodal() {
		return nil, apperror.Forbidden("Not authorized to access this route")
	}
	filter := repository.GrievanceFilter{
		Scope:  workflow.ScopeFor(a),
		Status: status,
	}
	return s.page(ctx, a, filter, workflow.NewPagination(page, limit, defaultQueuePageSize))
}
