package middleware

import (
	"net/http"

	"grievance-portal/pkg/response"

	"github.com/gin-gonic/gin"
)

// RequireAccountType ensures the authenticated caller has one of the allowed
// account types. It must run after Authenticator.Required.
func RequireAccountType(allowed ...string) gin.HandlerFunc {
	set := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		set[a] = true
	}

	return func(c *gin.Context) {
		principal, ok := CurrentPrincipal(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "Unauthorized", "")
			return
		}
		if !set[principal.AccountType] {
			response.Error(c, http.StatusForbidden, "Not authorized to access this route", "Insufficient account type")
			return
		}
		c.Next()
	}
}
