package handlers

import (
	"net/http"

	"grievance-portal/pkg/middleware"
	"grievance-portal/services/portal-service/models"
	"grievance-portal/services/portal-service/service"

	"github.com/gin-gonic/gin"
)

// Handlers groups every resource handler of the portal API.
type Handlers struct {
	Auth         *AuthHandler
	Users        *UserHandler
	Departments  *DepartmentHandler
	Grievances   *GrievanceHandler
	WorkProgress *WorkProgressHandler
	Profiles     *ProfileHandler

	principals *service.UserService
}

func New(d service.Deps) *Handlers {
	auth := service.NewAuthService(d)
	users := service.NewUserService(d)
	return &Handlers{
		Auth:         NewAuthHandler(auth),
		Users:        NewUserHandler(users, auth),
		Departments:  NewDepartmentHandler(service.NewDepartmentService(d)),
		Grievances:   NewGrievanceHandler(service.NewGrievanceService(d)),
		WorkProgress: NewWorkProgressHandler(service.NewWorkProgressService(d)),
		Profiles:     NewProfileHandler(service.NewProfileService(d)),
		principals:   users,
	}
}

// PrincipalLoader resolves token subjects against the account store.
func (h *Handlers) PrincipalLoader() middleware.PrincipalLoader {
	return h.principals
}

// Register mounts the API under /api. Literal grievance paths are registered
// before /:id so they are never captured as an id.
func (h *Handlers) Register(r gin.IRouter, authn *middleware.Authenticator) {
	staff := middleware.RequireAccountType(models.AccountDM, models.AccountNodal)
	dmOnly := middleware.RequireAccountType(models.AccountDM)
	citizenOnly := middleware.RequireAccountType(models.AccountCitizen)
	required := authn.Required()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/send-otp", h.Auth.SendOTP)
		auth.POST("/verify-otp", h.Auth.VerifyOTP)
		auth.POST("/forgot-password", h.Auth.ForgotPassword)
		auth.PUT("/reset-password/:token", h.Auth.ResetPassword)
		auth.POST("/logout", required, h.Auth.Logout)
		auth.PUT("/change-password", required, h.Auth.ChangePassword)
		auth.DELETE("/delete-account", required, h.Auth.DeleteAccount)
	}

	users := api.Group("/users", required)
	{
		users.POST("/register-staff", dmOnly, h.Users.RegisterStaff)
		users.GET("", staff, h.Users.List)
		users.PUT("/:id/status", staff, h.Users.UpdateStatus)
	}

	departments := api.Group("/departments")
	{
		departments.GET("", h.Departments.List)
		departments.POST("", required, dmOnly, h.Departments.Create)
		departments.PUT("/:id", required, dmOnly, h.Departments.Update)
		departments.DELETE("/:id", required, dmOnly, h.Departments.Delete)
	}

	grievances := api.Group("/grievances", required)
	{
		grievances.GET("/stats/dashboard", h.Grievances.Stats)
		grievances.GET("/unassigned", dmOnly, h.Grievances.Unassigned)
		grievances.GET("/assigned", middleware.RequireAccountType(models.AccountNodal), h.Grievances.Assigned)
		grievances.POST("", citizenOnly, h.Grievances.Create)
		grievances.GET("", h.Grievances.List)
		grievances.GET("/:id", h.Grievances.Get)
		grievances.PUT("/:id", h.Grievances.Update)
		grievances.DELETE("/:id", dmOnly, h.Grievances.Delete)
		grievances.POST("/:id/comments", h.Grievances.AddComment)
		grievances.PUT("/:id/assign", dmOnly, h.Grievances.Assign)
	}

	progress := api.Group("/work-progress", required, staff)
	{
		progress.GET("", h.WorkProgress.List)
		progress.GET("/:id", h.WorkProgress.Get)
		progress.PUT("/:id", h.WorkProgress.Update)
	}

	profiles := api.Group("/profiles", required)
	{
		profiles.GET("/:userId", h.Profiles.Get)
		profiles.PUT("/:userId", h.Profiles.Update)
		profiles.POST("/:userId/upload-image", h.Profiles.UploadImage)
	}
}

// NewRouter builds the engine with the shared middleware chain.
func NewRouter(h *Handlers, authn *middleware.Authenticator, metrics *middleware.Metrics, exposeStack bool) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = 8 << 20
	r.Use(middleware.Trace(), middleware.Logger(), middleware.Recovery(exposeStack))
	if metrics != nil {
		r.Use(metrics.Handler())
		r.GET("/metrics", gin.WrapH(metrics.Exposer()))
	}
	h.Register(r, authn)
	return r
}
