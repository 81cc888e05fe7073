package utils

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/todo-api/internal/constants"
)

var (
	ErrOffsetWithoutLimit = errors.New("offset requires limit")
	ErrInvalidLimit       = fmt.Errorf("limit must be between %d and %d", constants.MinPageSize, constants.MaxPageSize)
	ErrInvalidOffset      = errors.New("offset must be a non-negative integer")
)

// PaginationParams holds the pagination parameters. A nil Limit means the
// whole result set.
type PaginationParams struct {
	Limit  *int
	Offset int
}

// GetPaginationParams extracts and validates limit/offset from the request.
func GetPaginationParams(c *gin.Context) (PaginationParams, error) {
	limitStr, hasLimit := c.GetQuery("limit")
	offsetStr, hasOffset := c.GetQuery("offset")

	var params PaginationParams
	if hasOffset && !hasLimit {
		return params, ErrOffsetWithoutLimit
	}

	if hasLimit {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < constants.MinPageSize || limit > constants.MaxPageSize {
			return params, ErrInvalidLimit
		}
		params.Limit = &limit
	}

	if hasOffset {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return params, ErrInvalidOffset
		}
		params.Offset = offset
	}

	return params, nil
}
