package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"grievance-portal/pkg/apperror"
	"grievance-portal/pkg/logger"
	"grievance-portal/pkg/response"
	"grievance-portal/pkg/security"

	"github.com/gin-gonic/gin"
)

const (
	claimsKey    = "claims"
	principalKey = "principal"
)

// Principal is the authenticated caller as loaded from the account store.
type Principal struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	AccountType  string
	DepartmentID string
	Active       bool
}

// PrincipalLoader resolves a token subject to a live account. It returns
// (nil, nil) when the account no longer exists.
type PrincipalLoader interface {
	LoadPrincipal(ctx context.Context, userID string) (*Principal, error)
}

// Denylist reports whether a token id has been revoked by logout.
type Denylist interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type Authenticator struct {
	tokens   *security.TokenManager
	denylist Denylist
	loader   PrincipalLoader
}

// NewAuthenticator builds the bearer-token gate. denylist and loader may be
// nil, in which case the principal is taken from the token claims alone.
func NewAuthenticator(tokens *security.TokenManager, denylist Denylist, loader PrincipalLoader) *Authenticator {
	return &Authenticator{tokens: tokens, denylist: denylist, loader: loader}
}

func BearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func (a *Authenticator) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, http.StatusUnauthorized, "Not authorized, no token", "")
			return
		}
		tokenString, ok := BearerToken(header)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "Invalid token format", "Format must be Bearer <token>")
			return
		}

		claims, err := a.tokens.Parse(tokenString)
		if err != nil {
			msg := "Not authorized, token failed"
			if errors.Is(err, security.ErrTokenExpired) {
				msg = "Not authorized, token expired"
			}
			response.Error(c, http.StatusUnauthorized, msg, err.Error())
			return
		}

		ctx := c.Request.Context()
		if a.denylist != nil {
			revoked, err := a.denylist.IsRevoked(ctx, claims.ID)
			if err != nil {
				logger.Error(ctx, "Failed to check token denylist", err)
				response.Fail(c, apperror.Internal("Failed to verify token", err))
				return
			}
			if revoked {
				response.Error(c, http.StatusUnauthorized, "Token has been invalidated (logged out)", "")
				return
			}
		}

		principal := &Principal{
			ID:          claims.UserID,
			Email:       claims.Email,
			AccountType: claims.AccountType,
			Active:      true,
		}
		if a.loader != nil {
			principal, err = a.loader.LoadPrincipal(ctx, claims.UserID)
			if err != nil {
				logger.Error(ctx, "Failed to load account for token", err)
				response.Fail(c, apperror.Internal("Failed to verify token", err))
				return
			}
			if principal == nil {
				response.Error(c, http.StatusUnauthorized, "Not authorized, user not found for token payload", "")
				return
			}
			if !principal.Active {
				response.Error(c, http.StatusUnauthorized, "Account is inactive. Please contact support.", "")
				return
			}
		}

		c.Set(claimsKey, claims)
		c.Set(principalKey, principal)
		c.Next()
	}
}

func CurrentPrincipal(c *gin.Context) (*Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*Principal)
	return p, ok
}

func CurrentClaims(c *gin.Context) (*security.UserClaims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*security.UserClaims)
	return claims, ok
}
