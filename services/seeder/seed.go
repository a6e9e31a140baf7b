package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"grievance-portal/pkg/security"
	"grievance-portal/services/portal-service/models"
	"grievance-portal/services/portal-service/repository"

	"gopkg.in/yaml.v3"
)

type SeedFile struct {
	Departments []DepartmentSeed `yaml:"departments"`
	Users       []UserSeed       `yaml:"users"`
}

type DepartmentSeed struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type UserSeed struct {
	FirstName   string      `yaml:"firstName"`
	LastName    string      `yaml:"lastName"`
	Email       string      `yaml:"email"`
	Password    string      `yaml:"password"`
	AccountType string      `yaml:"accountType"`
	Department  string      `yaml:"department"`
	Details     DetailsSeed `yaml:"additionalDetails"`
}

type DetailsSeed struct {
	Gender        string `yaml:"gender"`
	DateOfBirth   string `yaml:"dateOfBirth"`
	ContactNumber string `yaml:"contactNumber"`
	Address       string `yaml:"address"`
	OfficerID     string `yaml:"officerId"`
}

// Parse decodes and checks a seed file. Unknown keys are rejected so typos
// surface instead of silently producing half-filled accounts.
func Parse(r io.Reader) (*SeedFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f SeedFile
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode seed file: %w", err)
	}

	names := map[string]bool{}
	for i, d := range f.Departments {
		if strings.TrimSpace(d.Name) == "" {
			return nil, fmt.Errorf("departments[%d]: name is required", i)
		}
		names[d.Name] = true
	}

	for i, u := range f.Users {
		if u.FirstName == "" || u.LastName == "" || u.Email == "" || u.Password == "" {
			return nil, fmt.Errorf("users[%d]: firstName, lastName, email and password are required", i)
		}
		if !models.IsValidAccountType(u.AccountType) {
			return nil, fmt.Errorf("users[%d]: invalid account type %q", i, u.AccountType)
		}
		if u.AccountType == models.AccountNodal && u.Department == "" {
			return nil, fmt.Errorf("users[%d]: nodal officers need a department", i)
		}
		if u.Details.Gender != "" && !models.IsValidGender(u.Details.Gender) {
			return nil, fmt.Errorf("users[%d]: invalid gender %q", i, u.Details.Gender)
		}
		if u.Details.DateOfBirth != "" {
			if _, err := time.Parse(time.DateOnly, u.Details.DateOfBirth); err != nil {
				return nil, fmt.Errorf("users[%d]: dateOfBirth must be YYYY-MM-DD", i)
			}
		}
	}
	return &f, nil
}

type Summary struct {
	DepartmentsCreated int
	DepartmentsSkipped int
	UsersCreated       int
	UsersSkipped       int
}

// Seeder writes a seed file into the account store. Running it twice is
// safe: departments are matched by name and accounts by email.
type Seeder struct {
	users       repository.UserRepository
	departments repository.DepartmentRepository
}

func NewSeeder(users repository.UserRepository, departments repository.DepartmentRepository) *Seeder {
	return &Seeder{users: users, departments: departments}
}

func (s *Seeder) Apply(ctx context.Context, f *SeedFile) (Summary, error) {
	var sum Summary

	for _, d := range f.Departments {
		_, err := s.departments.FindByName(ctx, d.Name)
		if err == nil {
			sum.DepartmentsSkipped++
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return sum, err
		}
		dept := &models.Department{Name: d.Name, Description: d.Description}
		if err := s.departments.Create(ctx, dept); err != nil {
			return sum, fmt.Errorf("failed to create department %q: %w", d.Name, err)
		}
		log.Printf("[OK] Department created: %s", d.Name)
		sum.DepartmentsCreated++
	}

	for _, u := range f.Users {
		email := strings.ToLower(strings.TrimSpace(u.Email))
		_, err := s.users.FindByEmail(ctx, email)
		if err == nil {
			sum.UsersSkipped++
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return sum, err
		}

		user, err := s.account(ctx, u, email)
		if err != nil {
			return sum, err
		}
		if err := s.users.Create(ctx, user); err != nil {
			return sum, fmt.Errorf("failed to create account %s: %w", email, err)
		}
		log.Printf("[OK] %s created: %s", u.AccountType, email)
		sum.UsersCreated++
	}
	return sum, nil
}

func (s *Seeder) account(ctx context.Context, u UserSeed, email string) (*models.User, error) {
	hash, err := security.HashPassword(u.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       email,
		Password:    hash,
		AccountType: u.AccountType,
		Active:      true,
		AdditionalDetails: models.AdditionalDetails{
			Gender:        u.Details.Gender,
			ContactNumber: u.Details.ContactNumber,
			Address:       u.Details.Address,
			OfficerID:     u.Details.OfficerID,
		},
	}
	if u.Details.DateOfBirth != "" {
		dob, _ := time.Parse(time.DateOnly, u.Details.DateOfBirth)
		user.AdditionalDetails.DateOfBirth = &dob
	}

	if u.Department != "" {
		dept, err := s.departments.FindByName(ctx, u.Department)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("account %s: unknown department %q", email, u.Department)
		}
		if err != nil {
			return nil, err
		}
		user.DepartmentID = &dept.ID
	}
	return user, nil
}
