package handlers

import (
	"net/http"

	"grievance-portal/pkg/response"
	"grievance-portal/services/portal-service/service"

	"github.com/gin-gonic/gin"
)

const profileImageField = "profileImage"

type ProfileHandler struct {
	svc *service.ProfileService
}

func NewProfileHandler(svc *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

func (h *ProfileHandler) Get(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	u, err := h.svc.Get(c.Request.Context(), a, c.Param("userId"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "", u)
}

func (h *ProfileHandler) Update(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var in service.ProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.ValidationFailed(c, err)
		return
	}
	u, err := h.svc.Update(c.Request.Context(), a, c.Param("userId"), in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Profile updated successfully", u)
}

func (h *ProfileHandler) UploadImage(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	fh, err := c.FormFile(profileImageField)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Please upload an image", err.Error())
		return
	}
	if c.Request.MultipartForm != nil {
		defer c.Request.MultipartForm.RemoveAll()
	}

	u, err := h.svc.UploadImage(c.Request.Context(), a, c.Param("userId"), toUpload(fh))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Profile image updated successfully", u)
}
