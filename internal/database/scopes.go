package database

import (
	"gorm.io/gorm"

	"github.com/yukikurage/todo-api/internal/utils"
)

// Paginate applies pagination to a GORM query
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if params.Limit == nil {
			return db
		}
		return db.Limit(*params.Limit).Offset(params.Offset)
	}
}
