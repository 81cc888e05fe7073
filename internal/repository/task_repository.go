package repository

import (
	"context"
	"strings"
	"time"

	"github.com/yukikurage/todo-api/internal/database"
	"github.com/yukikurage/todo-api/internal/ident"
	"github.com/yukikurage/todo-api/internal/models"
	"github.com/yukikurage/todo-api/internal/patch"
	"github.com/yukikurage/todo-api/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// priorityRank orders low < unset < medium < high.
const priorityRank = "CASE tasks.priority WHEN 'low' THEN 0 WHEN 'medium' THEN 2 WHEN 'high' THEN 3 ELSE 1 END"

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db, now: time.Now}
}

// List retrieves the author's tasks with filtering, sorting and pagination
func (r *GormTaskRepository) List(ctx context.Context, authorID ident.ID, filter TaskFilter, page utils.PaginationParams, sort TaskSort) ([]models.Task, int64, error) {
	scope := taskFilterScope(authorID, filter)

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Task{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	tasks := []models.Task{}
	err := r.db.WithContext(ctx).
		Scopes(scope, taskOrderScope(sort), database.Paginate(page)).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// FindByID finds a task by ID
func (r *GormTaskRepository) FindByID(ctx context.Context, id ident.ID) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// FindByIDForUpdate finds a task with SELECT ... FOR UPDATE
func (r *GormTaskRepository) FindByIDForUpdate(ctx context.Context, id ident.ID) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// Update writes the Set fields of p in a single statement
func (r *GormTaskRepository) Update(ctx context.Context, id ident.ID, p TaskPatch) error {
	b := patch.NewBuilder("tasks").Stamp("updated_at", r.now())
	patch.Add(b, "title", p.Title)
	patch.Add(b, "description", p.Description)
	patch.Add(b, "state", p.State)
	patch.Add(b, "priority", p.Priority)
	patch.Add(b, "due_date", p.DueDate)

	query, args, ok := b.Build("id", id)
	if !ok {
		return nil
	}
	return r.db.WithContext(ctx).Exec(query, args...).Error
}

// Delete hard deletes a task
func (r *GormTaskRepository) Delete(ctx context.Context, id ident.ID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Task{}).Error
}

func taskFilterScope(authorID ident.ID, filter TaskFilter) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("tasks.author_id = ?", authorID)

		if phrase := strings.TrimSpace(filter.Phrase); phrase != "" {
			pattern := "%" + escapeLike(strings.ToLower(phrase)) + "%"
			db = db.Where("(LOWER(tasks.title) LIKE ? ESCAPE '!' OR LOWER(tasks.description) LIKE ? ESCAPE '!')", pattern, pattern)
		}

		if len(filter.States) > 0 {
			db = db.Where("tasks.state IN ?", filter.States)
		}

		switch {
		case len(filter.Priorities) > 0 && filter.IncludeUnprioritized:
			db = db.Where("(tasks.priority IN ? OR tasks.priority IS NULL)", filter.Priorities)
		case len(filter.Priorities) > 0:
			db = db.Where("tasks.priority IN ?", filter.Priorities)
		case filter.IncludeUnprioritized:
			db = db.Where("tasks.priority IS NULL")
		}

		return db
	}
}

func taskOrderScope(sort TaskSort) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Order(orderTerm(sort.Primary))
		if sort.Primary.Key == SortByPriority && sort.Then != nil && sort.Then.Key != SortByPriority {
			db = db.Order(orderTerm(*sort.Then))
		}
		// id is a ULID, so this is also creation order among equal keys
		return db.Order("tasks.id ASC")
	}
}

func orderTerm(term SortTerm) string {
	var column string
	switch term.Key {
	case SortByUpdatedAt:
		column = "tasks.updated_at"
	case SortByPriority:
		column = priorityRank
	default:
		column = "tasks.created_at"
	}
	if term.Desc {
		return column + " DESC"
	}
	return column + " ASC"
}

func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
