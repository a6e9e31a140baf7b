package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"grievance-portal/pkg/apperror"
	"grievance-portal/services/portal-service/models"
	"grievance-portal/services/portal-service/repository"
	"grievance-portal/services/portal-service/workflow"
)

// ProfileInput is a partial profile update. Nil fields are left unchanged.
type ProfileInput struct {
	FirstName     *string `json:"firstName"`
	LastName      *string `json:"lastName"`
	Gender        *string `json:"gender"`
	DateOfBirth   *string `json:"dateOfBirth"`
	ContactNumber *string `json:"contactNumber"`
	Address       *string `json:"address"`
	OfficerID     *string `json:"officerId"`
	DepartmentID  *string `json:"department"`
}

type ProfileService struct {
	Deps
}

func NewProfileService(d Deps) *ProfileService {
	return &ProfileService{Deps: d}
}

func profileImageKey(userID string) string {
	return "profiles/profile_" + userID
}

func (s *ProfileService) load(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, lookupError(err, "User not found")
	}
	return u, nil
}

// Get is open to the profile owner and to staff.
func (s *ProfileService) Get(ctx context.Context, a workflow.Actor, userID string) (*models.UserView, error) {
	u, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if a.ID != u.ID && !a.IsStaff() {
		return nil, apperror.Forbidden("Not authorized to view this profile")
	}
	return s.userView(ctx, u)
}

func canEditProfile(a workflow.Actor, userID string) bool {
	return a.ID == userID || a.IsDM()
}

func setTrimmed(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

// Update is open to the profile owner and to district magistrates.
func (s *ProfileService) Update(ctx context.Context, a workflow.Actor, userID string, in ProfileInput) (*models.UserView, error) {
	u, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !canEditProfile(a, u.ID) {
		return nil, apperror.Forbidden("Not authorized to update this profile")
	}

	if in.FirstName != nil && strings.TrimSpace(*in.FirstName) == "" {
		return nil, apperror.Validation("First name cannot be empty")
	}
	if in.LastName != nil && strings.TrimSpace(*in.LastName) == "" {
		return nil, apperror.Validation("Last name cannot be empty")
	}
	if in.Gender != nil && *in.Gender != "" && !models.IsValidGender(*in.Gender) {
		return nil, apperror.Validation("Invalid gender: " + *in.Gender)
	}

	setTrimmed(&u.FirstName, in.FirstName)
	setTrimmed(&u.LastName, in.LastName)
	setTrimmed(&u.AdditionalDetails.Gender, in.Gender)
	setTrimmed(&u.AdditionalDetails.ContactNumber, in.ContactNumber)
	setTrimmed(&u.AdditionalDetails.Address, in.Address)
	setTrimmed(&u.AdditionalDetails.OfficerID, in.OfficerID)

	if in.DateOfBirth != nil {
		if v := strings.TrimSpace(*in.DateOfBirth); v == "" {
			u.AdditionalDetails.DateOfBirth = nil
		} else {
			dob, err := time.Parse("2006-01-02", v)
			if err != nil {
				return nil, apperror.Validation("Date of birth must be in YYYY-MM-DD format")
			}
			u.AdditionalDetails.DateOfBirth = &dob
		}
	}

	if in.DepartmentID != nil {
		deptID := strings.TrimSpace(*in.DepartmentID)
		if deptID == "" {
			u.DepartmentID = nil
		} else {
			dept, err := s.Departments.FindByID(ctx, deptID)
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperror.Validation("Invalid department")
			}
			if err != nil {
				return nil, apperror.Internal("Internal server error", err)
			}
			u.DepartmentID = &dept.ID
		}
	}

	if err := s.Users.Save(ctx, u); err != nil {
		return nil, apperror.Internal("Failed to update profile", err)
	}
	return s.userView(ctx, u)
}

// UploadImage replaces the profile picture. The object key is fixed per
// account so a new upload overwrites the old one.
func (s *ProfileService) UploadImage(ctx context.Context, a workflow.Actor, userID string, file Upload) (*models.UserView, error) {
	u, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !canEditProfile(a, u.ID) {
		return nil, apperror.Forbidden("Not authorized to update this profile")
	}
	if err := validateMedia(file, false); err != nil {
		return nil, err
	}

	url, err := s.store(ctx, profileImageKey(u.ID), file)
	if err != nil {
		return nil, err
	}
	u.Image = url
	if err := s.Users.Save(ctx, u); err != nil {
		return nil, apperror.Internal("Failed to save profile image", err)
	}
	return s.userView(ctx, u)
}
