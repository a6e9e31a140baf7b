package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"grievance-portal/pkg/apperror"
	"grievance-portal/pkg/logger"
	"grievance-portal/pkg/security"
	"grievance-portal/services/portal-service/models"
	"grievance-portal/services/portal-service/repository"
	"grievance-portal/services/portal-service/workflow"

	"github.com/go-playground/validator/v10"
)

const (
	minPasswordLength = 6
	resetTokenTTL     = time.Hour
)

// Grievance statuses that block a citizen from deleting their account.
// "Pending" is not a grievance status; it is kept so the check matches the
// portal's historical behaviour.
var citizenOpenStatuses = []string{"Pending", models.StatusInProgress, models.StatusAssigned}

var officerOpenStatuses = []string{models.StatusAssigned, models.StatusInProgress}

var validate = validator.New()

type RegisterInput struct {
	FirstName     string
	LastName      string
	Email         string
	Password      string
	AccountType   string
	ContactNumber string
	Address       string
}

type StaffInput struct {
	RegisterInput
	DepartmentID string
	OfficerID    string
}

type LoginResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type AuthService struct {
	Deps
}

func NewAuthService(d Deps) *AuthService {
	return &AuthService{Deps: d}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) newAccount(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = normalizeEmail(in.Email)
	if in.FirstName == "" || in.LastName == "" || in.Email == "" || in.Password == "" {
		return nil, apperror.Validation("Please enter all required fields for registration.")
	}
	if err := validate.Var(in.Email, "email"); err != nil {
		return nil, apperror.Validation("Invalid email format.")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperror.Validation("Password must be at least 6 characters.")
	}

	if _, err := s.Users.FindByEmail(ctx, in.Email); err == nil {
		return nil, apperror.Conflict("User already exists.")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Internal("Internal server error", err)
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, apperror.Internal("Failed to process password", err)
	}

	return &models.User{
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Email:       in.Email,
		Password:    hash,
		AccountType: in.AccountType,
		Active:      true,
		AdditionalDetails: models.AdditionalDetails{
			ContactNumber: strings.TrimSpace(in.ContactNumber),
			Address:       strings.TrimSpace(in.Address),
		},
	}, nil
}

func (s *AuthService) create(ctx context.Context, u *models.User) error {
	if err := s.Users.Create(ctx, u); err != nil {
		if repository.IsDuplicate(err) {
			return apperror.Conflict("User already exists.")
		}
		return apperror.Internal("Failed to create account", err)
	}
	return nil
}

// Register creates a citizen account. Staff accounts are created through
// RegisterStaff only.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if in.AccountType == "" {
		in.AccountType = models.AccountCitizen
	}
	if in.AccountType != models.AccountCitizen {
		return nil, apperror.Validation("Only citizen accounts can be registered here.")
	}

	u, err := s.newAccount(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.create(ctx, u); err != nil {
		return nil, err
	}

	n, err := s.Templates.Welcome(u)
	s.notify(ctx, n, err)
	return u, nil
}

// RegisterStaff lets a district magistrate create DM and nodal officer accounts.
func (s *AuthService) RegisterStaff(ctx context.Context, a workflow.Actor, in StaffInput) (*models.User, error) {
	if !a.IsDM() {
		return nil, apperror.Forbidden("Not authorized to access this route")
	}
	if in.AccountType != models.AccountDM && in.AccountType != models.AccountNodal {
		return nil, apperror.Validation("Staff account type must be District Magistrate or Nodal Officers")
	}

	u, err := s.newAccount(ctx, in.RegisterInput)
	if err != nil {
		return nil, err
	}
	u.AdditionalDetails.OfficerID = strings.TrimSpace(in.OfficerID)

	if in.AccountType == models.AccountNodal {
		deptID := strings.TrimSpace(in.DepartmentID)
		if deptID == "" {
			return nil, apperror.Validation("Department is required for nodal officers")
		}
		dept, err := s.Departments.FindByID(ctx, deptID)
		if err != nil {
			return nil, lookupError(err, "Department not found")
		}
		u.DepartmentID = &dept.ID
	}

	if err := s.create(ctx, u); err != nil {
		return nil, err
	}

	n, err := s.Templates.StaffWelcome(u)
	s.notify(ctx, n, err)
	return u, nil
}

// Login requires the account type chosen at sign-in to match the account.
func (s *AuthService) Login(ctx context.Context, email, password, accountType string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" || accountType == "" {
		return nil, apperror.Validation("Please provide email, password and account type")
	}

	u, err := s.Users.FindByEmailAndType(ctx, email, accountType)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Unauthorized("Invalid email, password or account type")
	}
	if err != nil {
		return nil, apperror.Internal("Internal server error", err)
	}
	if !u.Active {
		return nil, apperror.Unauthorized("Account is inactive. Please contact support.")
	}
	if !security.CheckPasswordHash(password, u.Password) {
		return nil, apperror.Unauthorized("Invalid email, password or account type")
	}

	token, _, err := s.Tokens.Issue(u.ID, u.Email, u.AccountType)
	if err != nil {
		return nil, apperror.Internal("Failed to issue token", err)
	}
	return &LoginResult{Token: token, User: u}, nil
}

// Logout revokes the presented token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, claims *security.UserClaims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return apperror.Unauthorized("Not authorized, token failed")
	}
	if err := s.Denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return apperror.Internal("Failed to log out", err)
	}
	return nil
}

// ForgotPassword mails a reset link. Unknown emails succeed silently. If the
// mail cannot be sent the stored token is rolled back.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return apperror.Validation("Please provide an email")
	}

	u, err := s.Users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return apperror.Internal("Internal server error", err)
	}

	token, digest, err := security.NewResetToken()
	if err != nil {
		return apperror.Internal("Failed to generate reset token", err)
	}
	expires := s.now().Add(resetTokenTTL)
	u.ResetToken = &digest
	u.ResetPasswordExpires = &expires
	if err := s.Users.Save(ctx, u); err != nil {
		return apperror.Internal("Failed to save reset token", err)
	}

	subject, html, err := s.Templates.PasswordReset(token)
	if err == nil {
		err = s.Mailer.Send(ctx, []string{u.Email}, subject, html)
	}
	if err != nil {
		u.ResetToken = nil
		u.ResetPasswordExpires = nil
		if rbErr := s.Users.Save(ctx, u); rbErr != nil {
			logger.Error(ctx, "Failed to roll back reset token", rbErr)
		}
		return apperror.Internal("Email could not be sent", err)
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, password, confirm string) error {
	if password == "" || confirm == "" {
		return apperror.Validation("Please provide new password and confirm password")
	}
	if password != confirm {
		return apperror.Validation("Passwords do not match")
	}
	if len(password) < minPasswordLength {
		return apperror.Validation("Password must be at least 6 characters.")
	}

	u, err := s.Users.FindByResetToken(ctx, security.HashToken(token), s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.Validation("Invalid or expired token")
	}
	if err != nil {
		return apperror.Internal("Internal server error", err)
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return apperror.Internal("Failed to process password", err)
	}
	u.Password = hash
	u.ResetToken = nil
	u.ResetPasswordExpires = nil
	if err := s.Users.Save(ctx, u); err != nil {
		return apperror.Internal("Failed to reset password", err)
	}
	return nil
}

// SendOTP mails a sign-up code. The code is stored only once the mail has
// been accepted.
func (s *AuthService) SendOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return apperror.Validation("Email is required")
	}
	if err := validate.Var(email, "email"); err != nil {
		return apperror.Validation("Invalid email format.")
	}

	if _, err := s.Users.FindByEmail(ctx, email); err == nil {
		return apperror.Validation("User is already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return apperror.Internal("Internal server error", err)
	}

	code, err := security.NewOTP()
	if err != nil {
		return apperror.Internal("Failed to generate OTP", err)
	}
	subject, html, err := s.Templates.OTP(code)
	if err == nil {
		err = s.Mailer.Send(ctx, []string{email}, subject, html)
	}
	if err != nil {
		return apperror.Internal("Failed to send OTP email", err)
	}

	if err := s.OTPs.Save(ctx, &models.OTPRecord{Email: email, OTP: code, CreatedAt: s.now()}); err != nil {
		return apperror.Internal("Failed to store OTP", err)
	}
	return nil
}

// VerifyOTP checks a code against the latest unexpired one for the email.
// Registration does not require a prior successful verification.
func (s *AuthService) VerifyOTP(ctx context.Context, email, otp string) error {
	email = normalizeEmail(email)
	if email == "" || strings.TrimSpace(otp) == "" {
		return apperror.Validation("Email and OTP are required")
	}

	rec, err := s.OTPs.Latest(ctx, email)
	if err != nil {
		return apperror.Internal("Internal server error", err)
	}
	if rec == nil || rec.Expired(s.now()) {
		return apperror.Validation("No OTP found for this email or it has expired.")
	}
	if rec.OTP != strings.TrimSpace(otp) {
		return apperror.Validation("Invalid OTP. Please try again.")
	}

	if err := s.OTPs.DeleteAll(ctx, email); err != nil {
		logger.Warn(ctx, "Failed to clear verified OTP", err)
	}
	return nil
}

// ChangePassword checks confirm only when the client sends one.
func (s *AuthService) ChangePassword(ctx context.Context, a workflow.Actor, oldPassword, newPassword, confirm string) error {
	if oldPassword == "" || newPassword == "" {
		return apperror.Validation("Please provide old password and new password")
	}
	if confirm != "" && newPassword != confirm {
		return apperror.Validation("New passwords do not match")
	}
	if len(newPassword) < minPasswordLength {
		return apperror.Validation("Password must be at least 6 characters.")
	}

	u, err := s.Users.FindByID(ctx, a.ID)
	if err != nil {
		return lookupError(err, "User not found")
	}
	if !security.CheckPasswordHash(oldPassword, u.Password) {
		return apperror.Unauthorized("Old password is incorrect")
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return apperror.Internal("Failed to process password", err)
	}
	u.Password = hash
	if err := s.Users.Save(ctx, u); err != nil {
		return apperror.Internal("Failed to change password", err)
	}
	return nil
}

// DeleteAccount hard-deletes the caller after confirming the password and
// checking for open work.
func (s *AuthService) DeleteAccount(ctx context.Context, a workflow.Actor, password string) error {
	if password == "" {
		return apperror.Validation("Password is required to delete your account")
	}

	u, err := s.Users.FindByID(ctx, a.ID)
	if err != nil {
		return lookupError(err, "User not found")
	}
	if !security.CheckPasswordHash(password, u.Password) {
		return apperror.Unauthorized("Incorrect password")
	}

	switch u.AccountType {
	case models.AccountCitizen:
		open, err := s.Grievances.Count(ctx, repository.GrievanceFilter{UserID: u.ID, Statuses: citizenOpenStatuses})
		if err != nil {
			return apperror.Internal("Internal server error", err)
		}
		if open > 0 {
			return apperror.Validation("Cannot delete account with active grievances. Please wait for them to be resolved or closed.")
		}
	case models.AccountNodal:
		open, err := s.Grievances.Count(ctx, repository.GrievanceFilter{AssignedTo: u.ID, Statuses: officerOpenStatuses})
		if err != nil {
			return apperror.Internal("Internal server error", err)
		}
		if open > 0 {
			return apperror.Validation("Cannot delete account with assigned grievances in progress. Please reassign them first.")
		}
	}

	if err := s.OTPs.DeleteAll(ctx, u.Email); err != nil {
		logger.Warn(ctx, "Failed to remove OTP records", err)
	}
	if u.Image != "" && s.Objects != nil {
		if err := s.Objects.Delete(ctx, profileImageKey(u.ID)); err != nil {
			logger.Warn(ctx, "Failed to remove profile image", err)
		}
	}
	if err := s.Users.Delete(ctx, u.ID); err != nil {
		return apperror.Internal("Failed to delete account", err)
	}
	return nil
}
