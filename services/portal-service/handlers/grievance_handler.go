package handlers

import (
	"net/http"

	"grievance-portal/pkg/response"
	"grievance-portal/services/portal-service/service"
	"grievance-portal/services/portal-service/workflow"

	"github.com/gin-gonic/gin"
)

const attachmentsField = "attachments"

type GrievanceHandler struct {
	svc *service.GrievanceService
}

func NewGrievanceHandler(svc *service.GrievanceService) *GrievanceHandler {
	return &GrievanceHandler{svc: svc}
}

type GrievanceListQuery struct {
	PageQuery
	Status     string `form:"status"`
	Category   string `form:"category"`
	Department string `form:"department"`
	AssignedTo string `form:"assignedTo"`
	Search     string `form:"search"`
}

type QueueQuery struct {
	PageQuery
	Status string `form:"status"`
}

type CommentPayload struct {
	Text     string `json:"text"`
	IsPublic *bool  `json:"isPublic"`
}

type AssignPayload struct {
	DepartmentID string `json:"department"`
	Message      string `json:"message"`
}

// Create godoc
// @Summary Submit a grievance
// @Description Multipart form with up to 5 image or video attachments of at most 5 MB each.
// @Tags Grievances
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param description formData string true "Description"
// @Param category formData string true "Category"
// @Param department formData string true "Department id"
// @Param subCategory formData string false "Sub-category"
// @Param severity formData string false "Low, Medium, High or Critical"
// @Param addressText formData string false "Address"
// @Param attachments formData file false "Attachments"
// @Success 201 {object} response.APIResponse{data=models.GrievanceView}
// @Failure 400 {object} response.APIResponse
// @Failure 403 {object} response.APIResponse
// @Router /grievances [post]
// @Security BearerAuth
func (h *GrievanceHandler) Create(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	in := service.CreateGrievanceInput{
		Title:        c.PostForm("title"),
		Description:  c.PostForm("description"),
		Category:     c.PostForm("category"),
		SubCategory:  c.PostForm("subCategory"),
		DepartmentID: c.PostForm("department"),
		Severity:     c.PostForm("severity"),
		AddressText:  c.PostForm("addressText"),
	}
	if form, err := c.MultipartForm(); err == nil {
		defer form.RemoveAll()
		in.Files = uploads(form, attachmentsField)
		for _, key := range []string{"location[addressText]", "address"} {
			if in.AddressText == "" {
				in.AddressText = formValue(form, key)
			}
		}
	}

	g, err := h.svc.Create(c.Request.Context(), a, in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "Grievance submitted successfully", g)
}

// List godoc
// @Summary List grievances visible to the caller
// @Description Citizens see their own grievances, nodal officers the assigned grievances of their department.
// @Tags Grievances
// @Produce json
// @Param status query string false "Status"
// @Param category query string false "Category"
// @Param department query string false "Department id"
// @Param assignedTo query string false "true, false or an officer id"
// @Param search query string false "Matches title and description"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(100)
// @Success 200 {object} response.APIResponse{data=models.GrievancePage}
// @Router /grievances [get]
// @Security BearerAuth
func (h *GrievanceHandler) List(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var q GrievanceListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ValidationFailed(c, err)
		return
	}

	page, err := h.svc.List(c.Request.Context(), a, service.GrievanceQuery{
		Status:       q.Status,
		Category:     q.Category,
		DepartmentID: q.Department,
		AssignedTo:   q.AssignedTo,
		Search:       q.Search,
		Page:         q.Page,
		Limit:        q.Limit,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "", page)
}

func (h *GrievanceHandler) Get(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	g, err := h.svc.Get(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "", g)
}

// Update godoc
// @Summary Update a grievance
// @Description Citizens may only leave feedback. Staff may change status, assignee, resolution and rejection details and add a note.
// @Tags Grievances
// @Accept json
// @Produce json
// @Param id path string true "Grievance id"
// @Param update body workflow.UpdateRequest true "Fields to change"
// @Success 200 {object} response.APIResponse{data=models.GrievanceView}
// @Failure 403 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /grievances/{id} [put]
// @Security BearerAuth
func (h *GrievanceHandler) Update(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req workflow.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationFailed(c, err)
		return
	}
	g, err := h.svc.Update(c.Request.Context(), a, c.Param("id"), req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Grievance updated successfully", g)
}

func (h *GrievanceHandler) Delete(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), a, c.Param("id")); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Grievance deleted successfully", nil)
}

func (h *GrievanceHandler) AddComment(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var payload CommentPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.ValidationFailed(c, err)
		return
	}
	g, err := h.svc.AddComment(c.Request.Context(), a, c.Param("id"), payload.Text, payload.IsPublic)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "Comment added successfully", g)
}

// Assign godoc
// @Summary Assign a grievance to a department
// @Description The department's active nodal officer becomes the assignee.
// @Tags Grievances
// @Accept json
// @Produce json
// @Param id path string true "Grievance id"
// @Param assignment body AssignPayload true "Target department"
// @Success 200 {object} response.APIResponse{data=models.GrievanceView}
// @Failure 404 {object} response.APIResponse "No active nodal officer found for this department"
// @Router /grievances/{id}/assign [put]
// @Security BearerAuth
func (h *GrievanceHandler) Assign(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var payload AssignPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.ValidationFailed(c, err)
		return
	}
	g, err := h.svc.Assign(c.Request.Context(), a, c.Param("id"), payload.DepartmentID, payload.Message)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Grievance assigned successfully", g)
}

func (h *GrievanceHandler) Stats(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	stats, err := h.svc.DashboardStats(c.Request.Context(), a)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "", stats)
}

func (h *GrievanceHandler) Unassigned(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var q PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ValidationFailed(c, err)
		return
	}
	page, err := h.svc.ListUnassigned(c.Request.Context(), a, q.Page, q.Limit)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "", page)
}

func (h *GrievanceHandler) Assigned(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var q QueueQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ValidationFailed(c, err)
		return
	}
	page, err := h.svc.ListAssigned(c.Request.Context(), a, q.Status, q.Page, q.Limit)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "", page)
}
