package middleware

import (
	"context"
	"errors"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/todo-api/internal/constants"
	apierrors "github.com/yukikurage/todo-api/internal/errors"
	"github.com/yukikurage/todo-api/internal/ident"
	"github.com/yukikurage/todo-api/internal/services"
)

// Authenticator resolves a raw session claim to an active user id
type Authenticator interface {
	Authenticate(ctx context.Context, claim any) (ident.ID, error)
}

// RequireAuth checks if the user is authenticated via session. A rejected
// session is left as is; only GET /me purges it.
func RequireAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)

		userID, err := auth.Authenticate(c.Request.Context(), session.Get(constants.ContextKeyUserID))
		if err != nil {
			if errors.Is(err, services.ErrUnauthorized) {
				apierrors.Unauthorized(c, "")
				return
			}
			apierrors.InternalError(c, err)
			return
		}

		// Store user ID in context for easy access in handlers
		c.Set(constants.ContextKeyUserID, userID)
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (ident.ID, bool) {
	v, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return ident.Nil, false
	}
	id, ok := v.(ident.ID)
	return id, ok
}
