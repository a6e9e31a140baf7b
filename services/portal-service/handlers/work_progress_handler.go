package handlers

import (
	"net/http"

	"grievance-portal/pkg/response"
	"grievance-portal/services/portal-service/service"
	"grievance-portal/services/portal-service/workflow"

	"github.com/gin-gonic/gin"
)

type WorkProgressHandler struct {
	svc *service.WorkProgressService
}

func NewWorkProgressHandler(svc *service.WorkProgressService) *WorkProgressHandler {
	return &WorkProgressHandler{svc: svc}
}

type WorkProgressListQuery struct {
	PageQuery
	AssignedTo string `form:"assignedTo"`
	Status     string `form:"status"`
	Grievance  string `form:"grievance"`
}

func (h *WorkProgressHandler) List(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var q WorkProgressListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ValidationFailed(c, err)
		return
	}
	page, err := h.svc.List(c.Request.Context(), a, service.WorkProgressQuery{
		AssignedTo:  q.AssignedTo,
		Status:      q.Status,
		GrievanceID: q.Grievance,
		Page:        q.Page,
		Limit:       q.Limit,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "", page)
}

func (h *WorkProgressHandler) Get(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	wp, err := h.svc.Get(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "", wp)
}

// Update godoc
// @Summary Update a work progress entry
// @Description Moving an entry into Completed resolves its grievance.
// @Tags WorkProgress
// @Accept json
// @Produce json
// @Param id path string true "Work progress id"
// @Param update body workflow.ProgressUpdate true "Fields to change"
// @Success 200 {object} response.APIResponse{data=models.WorkProgressView}
// @Failure 403 {object} response.APIResponse
// @Router /work-progress/{id} [put]
// @Security BearerAuth
func (h *WorkProgressHandler) Update(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var upd workflow.ProgressUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		response.ValidationFailed(c, err)
		return
	}
	wp, err := h.svc.Update(c.Request.Context(), a, c.Param("id"), upd)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Work progress updated successfully", wp)
}
