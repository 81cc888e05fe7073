package repository

import (
	"context"
	"time"

	"github.com/yukikurage/todo-api/internal/ident"
	"github.com/yukikurage/todo-api/internal/models"
	"github.com/yukikurage/todo-api/internal/patch"
	"github.com/yukikurage/todo-api/internal/utils"
)

// TaskRepository defines the interface for task data access.
// It never checks ownership; callers compare AuthorID themselves.
type TaskRepository interface {
	// List returns one page of the author's tasks and the number of tasks
	// matching the filter regardless of the page window.
	List(ctx context.Context, authorID ident.ID, filter TaskFilter, page utils.PaginationParams, sort TaskSort) ([]models.Task, int64, error)

	// FindByID finds a task by ID
	FindByID(ctx context.Context, id ident.ID) (*models.Task, error)

	// FindByIDForUpdate finds a task and write-locks its row until the
	// enclosing transaction ends.
	FindByIDForUpdate(ctx context.Context, id ident.ID) (*models.Task, error)

	// Create inserts a fully formed task; the caller supplies the ID
	Create(ctx context.Context, task *models.Task) error

	// Update applies the Set fields of p; an empty patch touches nothing
	Update(ctx context.Context, id ident.ID, p TaskPatch) error

	// Delete hard deletes a task; deleting a missing task is not an error
	Delete(ctx context.Context, id ident.ID) error
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	// Phrase matches title or description, case-insensitively.
	Phrase string
	States []models.TaskState
	// Priorities selects by priority; IncludeUnprioritized adds tasks
	// without one.
	Priorities           []models.TaskPriority
	IncludeUnprioritized bool
}

// SortKey names a sortable column.
type SortKey string

const (
	SortByCreatedAt SortKey = "created_at"
	SortByUpdatedAt SortKey = "updated_at"
	SortByPriority  SortKey = "priority"
)

// SortTerm is one ORDER BY key.
type SortTerm struct {
	Key  SortKey
	Desc bool
}

// TaskSort orders a listing. Then is only honoured behind a priority key.
type TaskSort struct {
	Primary SortTerm
	Then    *SortTerm
}

// DefaultTaskSort lists oldest first.
var DefaultTaskSort = TaskSort{Primary: SortTerm{Key: SortByCreatedAt}}

// TaskPatch is a partial task update. Nullable columns take pointers:
// Set(nil) clears them.
type TaskPatch struct {
	Title       patch.Field[string]
	Description patch.Field[string]
	State       patch.Field[models.TaskState]
	Priority    patch.Field[*models.TaskPriority]
	DueDate     patch.Field[*time.Time]
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// UsernameExists reports whether an active user holds name
	UsernameExists(ctx context.Context, name string) (bool, error)

	// Create inserts a user, generating an ID when id is nil
	Create(ctx context.Context, id *ident.ID, username, displayName string, hashedPassword []byte) (ident.ID, error)

	// Remove soft deletes a user and releases the username
	Remove(ctx context.Context, id ident.ID) error

	// Update applies the Set fields of p
	Update(ctx context.Context, id ident.ID, p UserPatch) error

	// FindByID finds an active user by ID
	FindByID(ctx context.Context, id ident.ID) (*models.User, error)

	// FindByUsername finds an active user by username
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// VerifyPassword compares hashedCandidate with the stored hash
	VerifyPassword(ctx context.Context, id ident.ID, hashedCandidate []byte) (bool, error)

	// IsValidID reports whether id names an active user
	IsValidID(ctx context.Context, id ident.ID) (bool, error)
}

// UserPatch is a partial account update.
type UserPatch struct {
	Username       patch.Field[string]
	DisplayName    patch.Field[string]
	HashedPassword patch.Field[[]byte]
}

// Store hands out repositories bound to one connection pool or transaction.
type Store interface {
	Tasks() TaskRepository
	Users() UserRepository

	// Transaction runs fn in a transaction that commits when fn returns nil
	// and rolls back on error, panic or cancellation of ctx.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}
