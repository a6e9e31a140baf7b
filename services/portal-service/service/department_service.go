package service

import (
	"context"
	"errors"
	"strings"

	"grievance-portal/pkg/apperror"
	"grievance-portal/services/portal-service/models"
	"grievance-portal/services/portal-service/repository"
	"grievance-portal/services/portal-service/workflow"
)

const departmentNotFound = "Department not found"

type DepartmentService struct {
	Deps
}

func NewDepartmentService(d Deps) *DepartmentService {
	return &DepartmentService{Deps: d}
}

func (s *DepartmentService) List(ctx context.Context) ([]models.Department, error) {
	depts, err := s.Departments.List(ctx)
	if err != nil {
		return nil, apperror.Internal("Failed to list departments", err)
	}
	if depts == nil {
		depts = []models.Department{}
	}
	return depts, nil
}

func (s *DepartmentService) ensureUniqueName(ctx context.Context, name, exceptID string) error {
	existing, err := s.Departments.FindByName(ctx, name)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return apperror.Internal("Internal server error", err)
	}
	if existing.ID != exceptID {
		return apperror.Conflict("Department already exists")
	}
	return nil
}

// Create adds a department and tells the district magistrates about it.
func (s *DepartmentService) Create(ctx context.Context, a workflow.Actor, name, description string) (*models.Department, error) {
	if !a.IsDM() {
		return nil, apperror.Forbidden("Not authorized to access this route")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.Validation("Department name is required")
	}
	if err := s.ensureUniqueName(ctx, name, ""); err != nil {
		return nil, err
	}

	dept := &models.Department{Name: name, Description: strings.TrimSpace(description)}
	if err := s.Departments.Create(ctx, dept); err != nil {
		if repository.IsDuplicate(err) {
			return nil, apperror.Conflict("Department already exists")
		}
		return nil, apperror.Internal("Failed to create department", err)
	}

	n, err := s.Templates.DepartmentCreated(dept, s.activeDMs(ctx))
	s.notify(ctx, n, err)
	return dept, nil
}

func (s *DepartmentService) Update(ctx context.Context, a workflow.Actor, id string, name, description *string) (*models.Department, error) {
	if !a.IsDM() {
		return nil, apperror.Forbidden("Not authorized to access this route")
	}
	dept, err := s.Departments.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, departmentNotFound)
	}

	if name != nil {
		n := strings.TrimSpace(*name)
		if n == "" {
			return nil, apperror.Validation("Department name cannot be empty")
		}
		if n != dept.Name {
			if err := s.ensureUniqueName(ctx, n, dept.ID); err != nil {
				return nil, err
			}
			dept.Name = n
		}
	}
	if description != nil {
		dept.Description = strings.TrimSpace(*description)
	}

	if err := s.Departments.Save(ctx, dept); err != nil {
		if repository.IsDuplicate(err) {
			return nil, apperror.Conflict("Department already exists")
		}
		return nil, apperror.Internal("Failed to update department", err)
	}
	return dept, nil
}

// Delete removes the department only. Grievances and officers that reference
// it keep the dangling id.
func (s *DepartmentService) Delete(ctx context.Context, a workflow.Actor, id string) error {
	if !a.IsDM() {
		return apperror.Forbidden("Not authorized to access this route")
	}
	if _, err := s.Departments.FindByID(ctx, id); err != nil {
		return lookupError(err, departmentNotFound)
	}
	if err := s.Departments.Delete(ctx, id); err != nil {
		return apperror.Internal("Failed to delete department", err)
	}
	return nil
}
