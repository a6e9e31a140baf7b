package handlers

import (
	"net/http"

	"grievance-portal/pkg/response"
	"grievance-portal/services/portal-service/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users *service.UserService
	auth  *service.AuthService
}

func NewUserHandler(users *service.UserService, auth *service.AuthService) *UserHandler {
	return &UserHandler{users: users, auth: auth}
}

type StaffPayload struct {
	RegisterPayload
	Department string `json:"department"`
	OfficerID  string `json:"officerId"`
}

type UserListQuery struct {
	PageQuery
	AccountType string `form:"accountType"`
	Active      *bool  `form:"active"`
	Search      string `form:"search"`
}

type StatusPayload struct {
	Active *bool `json:"active"`
}

// RegisterStaff godoc
// @Summary Create a district magistrate or nodal officer account
// @Tags Users
// @Accept json
// @Produce json
// @Param account body StaffPayload true "Account details"
// @Success 201 {object} response.APIResponse{data=models.User}
// @Failure 400 {object} response.APIResponse
// @Failure 403 {object} response.APIResponse
// @Router /users/register-staff [post]
// @Security BearerAuth
func (h *UserHandler) RegisterStaff(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var payload StaffPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.ValidationFailed(c, err)
		return
	}
	u, err := h.auth.RegisterStaff(c.Request.Context(), a, service.StaffInput{
		RegisterInput: payload.input(),
		DepartmentID:  payload.Department,
		OfficerID:     payload.OfficerID,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "Staff account created successfully", u)
}

func (h *UserHandler) List(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var q UserListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ValidationFailed(c, err)
		return
	}
	page, err := h.users.List(c.Request.Context(), a, service.UserQuery{
		AccountType: q.AccountType,
		Active:      q.Active,
		Search:      q.Search,
		Page:        q.Page,
		Limit:       q.Limit,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "", page)
}

func (h *UserHandler) UpdateStatus(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var payload StatusPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.ValidationFailed(c, err)
		return
	}
	u, err := h.users.UpdateStatus(c.Request.Context(), a, c.Param("id"), payload.Active)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "User status updated successfully", u)
}
