package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/todo-api/internal/constants"
	apierrors "github.com/yukikurage/todo-api/internal/errors"
	"github.com/yukikurage/todo-api/internal/ident"
)

// RequireTaskID parses the :id path parameter of task routes. Ownership is
// checked by the task service, under the row lock for writes.
func RequireTaskID() gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID, err := ident.Parse(c.Param("id"))
		if err != nil {
			apierrors.BadRequest(c, "Invalid task ID")
			return
		}

		c.Set(constants.ContextKeyTaskID, taskID)
		c.Next()
	}
}

// GetTaskID retrieves the parsed task ID from context
func GetTaskID(c *gin.Context) (ident.ID, bool) {
	v, exists := c.Get(constants.ContextKeyTaskID)
	if !exists {
		return ident.Nil, false
	}
	id, ok := v.(ident.ID)
	return id, ok
}
