package handlers

import (
	"net/http"

	"grievance-portal/pkg/middleware"
	"grievance-portal/pkg/response"
	"grievance-portal/services/portal-service/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type RegisterPayload struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	AccountType   string `json:"accountType"`
	ContactNumber string `json:"contactNumber"`
	Address       string `json:"address"`
}

func (p RegisterPayload) input() service.RegisterInput {
	return service.RegisterInput{
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		Email:         p.Email,
		Password:      p.Password,
		AccountType:   p.AccountType,
		ContactNumber: p.ContactNumber,
		Address:       p.Address,
	}
}

type LoginPayload struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	AccountType string `json:"accountType"`
}

type EmailPayload struct {
	Email string `json:"email"`
}

type VerifyOTPPayload struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type ResetPasswordPayload struct {
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type ChangePasswordPayload struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword,omitempty"`
}

type DeleteAccountPayload struct {
	Password string `json:"password"`
}

// Register godoc
// @Summary Register a citizen account
// @Tags Auth
// @Accept json
// @Produce json
// @Param account body RegisterPayload true "Account details"
// @Success 201 {object} response.APIResponse{data=models.User}
// @Failure 400 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse "User already exists"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var payload RegisterPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.ValidationFailed(c, err)
		return
	}
	u, err := h.auth.Register(c.Request.Context(), payload.input())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "User registered successfully", u)
}

// Login godoc
// @Summary Sign in
// @Description The account type must match the one the account was registered with.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginPayload true "Credentials"
// @Success 200 {object} response.APIResponse{data=service.LoginResult}
// @Failure 401 {object} response.APIResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var payload LoginPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.ValidationFailed(c, err)
		return
	}
	res, err := h.auth.Login(c.Request.Context(), payload.Email, payload.Password, payload.AccountType)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Login successful", res)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	claims, _ := middleware.CurrentClaims(c)
	if err := h.auth.Logout(c.Request.Context(), claims); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Logged out successfully", nil)
}

func (h *AuthHandler) SendOTP(c *gin.Context) {
	var payload EmailPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.ValidationFailed(c, err)
		return
	}
	if err := h.auth.SendOTP(c.Request.Context(), payload.Email); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "OTP sent successfully", nil)
}

func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var payload VerifyOTPPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.ValidationFailed(c, err)
		return
	}
	if err := h.auth.VerifyOTP(c.Request.Context(), payload.Email, payload.OTP); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "OTP verified successfully", nil)
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var payload EmailPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.ValidationFailed(c, err)
		return
	}
	if err := h.auth.ForgotPassword(c.Request.Context(), payload.Email); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "If the email is registered, a reset link has been sent", nil)
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var payload ResetPasswordPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.ValidationFailed(c, err)
		return
	}
	if err := h.auth.ResetPassword(c.Request.Context(), c.Param("token"), payload.NewPassword, payload.ConfirmPassword); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Password reset successful", nil)
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var payload ChangePasswordPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.ValidationFailed(c, err)
		return
	}
	if err := h.auth.ChangePassword(c.Request.Context(), a, payload.OldPassword, payload.NewPassword, payload.ConfirmPassword); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Password changed successfully", nil)
}

func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var payload DeleteAccountPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.ValidationFailed(c, err)
		return
	}
	if err := h.auth.DeleteAccount(c.Request.Context(), a, payload.Password); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Account deleted successfully", nil)
}
