package handlers

import (
	"net/http"

	"grievance-portal/pkg/response"
	"grievance-portal/services/portal-service/service"

	"github.com/gin-gonic/gin"
)

type DepartmentHandler struct {
	svc *service.DepartmentService
}

func NewDepartmentHandler(svc *service.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{svc: svc}
}

type DepartmentPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type DepartmentUpdatePayload struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (h *DepartmentHandler) List(c *gin.Context) {
	depts, err := h.svc.List(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "", depts)
}

func (h *DepartmentHandler) Create(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var payload DepartmentPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.ValidationFailed(c, err)
		return
	}
	d, err := h.svc.Create(c.Request.Context(), a, payload.Name, payload.Description)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "Department created successfully", d)
}

func (h *DepartmentHandler) Update(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var payload DepartmentUpdatePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.ValidationFailed(c, err)
		return
	}
	d, err := h.svc.Update(c.Request.Context(), a, c.Param("id"), payload.Name, payload.Description)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Department updated successfully", d)
}

func (h *DepartmentHandler) Delete(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), a, c.Param("id")); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Department deleted successfully", nil)
}
