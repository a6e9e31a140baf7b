package service

import (
	"context"
	"errors"

	"grievance-portal/pkg/apperror"
	"grievance-portal/pkg/middleware"
	"grievance-portal/services/portal-service/models"
	"grievance-portal/services/portal-service/repository"
	"grievance-portal/services/portal-service/workflow"
)

type UserQuery struct {
	AccountType string
	Active      *bool
	Search      string
	Page        int
	Limit       int
}

type UserService struct {
	Deps
}

func NewUserService(d Deps) *UserService {
	return &UserService{Deps: d}
}

// LoadPrincipal resolves a token subject for the auth middleware.
func (s *UserService) LoadPrincipal(ctx context.Context, userID string) (*middleware.Principal, error) {
	u, err := s.Users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &middleware.Principal{
		ID:           u.ID,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		AccountType:  u.AccountType,
		DepartmentID: u.Department(),
		Active:       u.Active,
	}, nil
}

func (s *UserService) List(ctx context.Context, a workflow.Actor, q UserQuery) (*models.UserPage, error) {
	if !a.IsStaff() {
		return nil, apperror.Forbidden("Not authorized to access this route")
	}
	if q.AccountType != "" && !models.IsValidAccountType(q.AccountType) {
		return nil, apperror.Validation("Invalid account type: " + q.AccountType)
	}

	p := workflow.NewPagination(q.Page, q.Limit, defaultQueuePageSize)
	users, total, err := s.Users.List(ctx, repository.UserFilter{
		AccountType: q.AccountType,
		Active:      q.Active,
		Search:      q.Search,
	}, int(p.Skip()), p.Limit)
	if err != nil {
		return nil, apperror.Internal("Failed to list users", err)
	}

	views, err := s.userViews(ctx, users)
	if err != nil {
		return nil, err
	}
	return &models.UserPage{Users: views, Page: p.Page, Pages: p.Pages(total), Total: total}, nil
}

// UpdateStatus activates or deactivates an account other than the caller's.
func (s *UserService) UpdateStatus(ctx context.Context, a workflow.Actor, userID string, active *bool) (*models.UserView, error) {
	if !a.IsStaff() {
		return nil, apperror.Forbidden("Not authorized to access this route")
	}
	if active == nil {
		return nil, apperror.Validation("Active status must be a boolean")
	}
	if userID == a.ID {
		return nil, apperror.Validation("You cannot change your own account status")
	}

	u, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, lookupError(err, "User not found")
	}
	u.Active = *active
	if err := s.Users.Save(ctx, u); err != nil {
		return nil, apperror.Internal("Failed to update user status", err)
	}
	return s.userView(ctx, u)
}
