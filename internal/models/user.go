package models

import (
	"time"

	"github.com/yukikurage/todo-api/internal/ident"
)

// User is an account. Username is NULL once the account is soft-deleted,
// which frees it for reuse.
type User struct {
	ID             ident.ID   `gorm:"primaryKey" json:"id"`
	Username       *string    `gorm:"type:varchar(255);uniqueIndex" json:"username"`
	DisplayName    string     `gorm:"type:varchar(255);not null" json:"display_name"`
	HashedPassword []byte     `gorm:"not null" json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `gorm:"index" json:"-"`
}

// IsActive reports whether the account has not been removed.
func (u *User) IsActive() bool {
	return u.DeletedAt == nil
}
