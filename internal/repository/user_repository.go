package repository

import (
	"context"
	"time"

	"github.com/yukikurage/todo-api/internal/ident"
	"github.com/yukikurage/todo-api/internal/models"
	"github.com/yukikurage/todo-api/internal/patch"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db, now: time.Now}
}

// UsernameExists reports whether an active user holds username. Removed
// users have a NULL username and never match.
func (r *GormUserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", username).
		Count(&count).Error
	return count > 0, err
}

// Create creates a new user
func (r *GormUserRepository) Create(ctx context.Context, id *ident.ID, username, displayName string, hashedPassword []byte) (ident.ID, error) {
	userID := ident.New()
	if id != nil {
		userID = *id
	}

	user := &models.User{
		ID:             userID,
		Username:       &username,
		DisplayName:    displayName,
		HashedPassword: hashedPassword,
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return ident.Nil, err
	}
	return userID, nil
}

// Remove soft deletes a user: the row stays for the tasks that reference it
func (r *GormUserRepository) Remove(ctx context.Context, id ident.ID) error {
	now := r.now()
	return r.db.WithContext(ctx).
		Exec("UPDATE users SET deleted_at = ?, username = NULL, updated_at = ? WHERE id = ? AND deleted_at IS NULL", now, now, id).
		Error
}

// Update writes the Set fields of p in a single statement
func (r *GormUserRepository) Update(ctx context.Context, id ident.ID, p UserPatch) error {
	b := patch.NewBuilder("users").Stamp("updated_at", r.now())
	patch.Add(b, "username", p.Username)
	patch.Add(b, "display_name", p.DisplayName)
	patch.Add(b, "hashed_password", p.HashedPassword)

	query, args, ok := b.Build("id", id)
	if !ok {
		return nil
	}
	return r.db.WithContext(ctx).Exec(query, args...).Error
}

// FindByID finds an active user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id ident.ID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ? AND deleted_at IS NULL", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername finds an active user by username
func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ? AND deleted_at IS NULL", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// VerifyPassword reports whether the active user's stored hash equals
// hashedCandidate.
func (r *GormUserRepository) VerifyPassword(ctx context.Context, id ident.ID, hashedCandidate []byte) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND hashed_password = ? AND deleted_at IS NULL", id, hashedCandidate).
		Count(&count).Error
	return count > 0, err
}

// IsValidID reports whether id names an active user
func (r *GormUserRepository) IsValidID(ctx context.Context, id ident.ID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Count(&count).Error
	return count > 0, err
}
