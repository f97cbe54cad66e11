package middleware

import (
	"errors"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/taskey/taskey-api/internal/constants"
	apierrors "github.com/taskey/taskey-api/internal/errors"
	"github.com/taskey/taskey-api/internal/models"
)

// Session keys
const (
	SessionKeyRole         = "active_role"
	SessionKeySecondFactor = "second_factor_verified"
)

var ErrInvalidRole = errors.New("role must be customer or helper")

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID               uint64      `json:"user_id"`
	Role                 models.Role `json:"role"`
	SecondFactorVerified bool        `json:"second_factor_verified"`
}

// RoleStore persists session values between requests. sessions.Session
// satisfies it.
type RoleStore interface {
	Get(key interface{}) interface{}
	Set(key interface{}, val interface{})
	Save() error
}

// ActiveRole returns the role stored in the session, customer by default.
func ActiveRole(store RoleStore) models.Role {
	if raw, ok := store.Get(SessionKeyRole).(string); ok {
		if role := models.Role(raw); role.Valid() {
			return role
		}
	}
	return models.RoleCustomer
}

// SwitchRole persists a new active role.
func SwitchRole(store RoleStore, role models.Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	store.Set(SessionKeyRole, string(role))
	return store.Save()
}

// RequireAuth checks if the user is authenticated via session and puts the
// principal on the request context
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := toUint64(session.Get(constants.ContextKeyUserID))
		if !ok {
			apierrors.Unauthorized(c, "")
			return
		}

		verified, _ := session.Get(SessionKeySecondFactor).(bool)
		principal := Principal{
			UserID:               userID,
			Role:                 ActiveRole(session),
			SecondFactorVerified: verified,
		}

		c.Set(constants.ContextKeyUserID, userID)
		c.Set(constants.ContextKeyPrincipal, principal)
		c.Next()
	}
}

// RequireRole rejects callers whose active role is not role
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			return
		}
		if principal.Role != role {
			apierrors.Forbidden(c, "switch to the "+string(role)+" role to perform this action")
			return
		}
		c.Next()
	}
}

// GetPrincipal retrieves the current principal from context
func GetPrincipal(c *gin.Context) (Principal, bool) {
	value, exists := c.Get(constants.ContextKeyPrincipal)
	if !exists {
		return Principal{}, false
	}
	principal, ok := value.(Principal)
	return principal, ok
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}
	return toUint64(userID)
}

func toUint64(value interface{}) (uint64, bool) {
	switch v := value.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}
