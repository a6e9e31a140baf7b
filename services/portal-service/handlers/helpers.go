package handlers

import (
	"io"
	"mime/multipart"
	"net/http"

	"grievance-portal/pkg/middleware"
	"grievance-portal/pkg/response"
	"grievance-portal/services/portal-service/service"
	"grievance-portal/services/portal-service/workflow"

	"github.com/gin-gonic/gin"
)

// PageQuery is the shared page/limit query string.
type PageQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// actor converts the authenticated principal into the workflow's view of the
// caller. It writes a 401 and returns false when no principal is present.
func actor(c *gin.Context) (workflow.Actor, bool) {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "Not authorized, no token", "")
		return workflow.Actor{}, false
	}
	return workflow.Actor{
		ID:           p.ID,
		AccountType:  p.AccountType,
		DepartmentID: p.DepartmentID,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Email:        p.Email,
	}, true
}

func toUpload(fh *multipart.FileHeader) service.Upload {
	return service.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open:        func() (io.ReadCloser, error) { return fh.Open() },
	}
}

func uploads(form *multipart.Form, field string) []service.Upload {
	if form == nil {
		return nil
	}
	files := form.File[field]
	out := make([]service.Upload, 0, len(files))
	for _, fh := range files {
		out = append(out, toUpload(fh))
	}
	return out
}

func formValue(form *multipart.Form, key string) string {
	if form == nil || len(form.Value[key]) == 0 {
		return ""
	}
	return form.Value[key][0]
}
