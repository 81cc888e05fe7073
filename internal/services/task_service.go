package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yukikurage/todo-api/internal/constants"
	"github.com/yukikurage/todo-api/internal/ident"
	"github.com/yukikurage/todo-api/internal/models"
	"github.com/yukikurage/todo-api/internal/patch"
	"github.com/yukikurage/todo-api/internal/repository"
	"github.com/yukikurage/todo-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrTaskForbidden   = errors.New("task belongs to another user")
	ErrTitleRequired   = errors.New("title is required")
	ErrTitleTooLong    = fmt.Errorf("title must be at most %d characters", constants.MaxTitleLength)
	ErrInvalidState    = errors.New("state must be one of icebox, todo, in-progress, done")
	ErrInvalidPriority = errors.New("priority must be one of low, medium, high")
)

// TaskService handles task business logic
type TaskService struct {
	store repository.Store
	now   func() time.Time
}

// NewTaskService creates a new TaskService
func NewTaskService(store repository.Store) *TaskService {
	return &TaskService{
		store: store,
		now:   time.Now,
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	UserID ident.ID
	Filter repository.TaskFilter
	Page   utils.PaginationParams
	Sort   repository.TaskSort
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	State       models.TaskState
	Priority    *models.TaskPriority
	DueDate     *time.Time
}

// List returns one page of the caller's tasks and the total match count
func (s *TaskService) List(ctx context.Context, input ListTasksInput) ([]models.Task, int64, error) {
	for _, state := range input.Filter.States {
		if !state.Valid() {
			return nil, 0, ErrInvalidState
		}
	}
	for _, priority := range input.Filter.Priorities {
		if !priority.Valid() {
			return nil, 0, ErrInvalidPriority
		}
	}

	tasks, total, err := s.store.Tasks().List(ctx, input.UserID, input.Filter, input.Page, input.Sort)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// Get returns a task owned by userID
func (s *TaskService) Get(ctx context.Context, userID, taskID ident.ID) (*models.Task, error) {
	task, err := s.store.Tasks().FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	if !task.OwnedBy(userID) {
		return nil, ErrTaskForbidden
	}
	return task, nil
}

// Create creates a new task authored by userID
func (s *TaskService) Create(ctx context.Context, userID ident.ID, input CreateTaskInput) (*models.Task, error) {
	title, err := validateTitle(input.Title)
	if err != nil {
		return nil, err
	}

	if input.State == "" {
		input.State = models.TaskStateTodo
	}
	if !input.State.Valid() {
		return nil, ErrInvalidState
	}
	if input.Priority != nil && !input.Priority.Valid() {
		return nil, ErrInvalidPriority
	}

	now := s.now().Truncate(time.Second)
	task := &models.Task{
		ID:          ident.New(),
		AuthorID:    &userID,
		Title:       title,
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
		State:       input.State,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
	}

	if err := s.store.Tasks().Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

// Update applies a partial update to a task owned by userID. The row stays
// locked from the ownership check until the write commits.
func (s *TaskService) Update(ctx context.Context, userID, taskID ident.ID, p repository.TaskPatch) error {
	p, err := validateTaskPatch(p)
	if err != nil {
		return err
	}

	return s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := lockOwnedTask(ctx, tx.Tasks(), userID, taskID); err != nil {
			return err
		}
		if err := tx.Tasks().Update(ctx, taskID, p); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		return nil
	})
}

// Delete removes a task owned by userID
func (s *TaskService) Delete(ctx context.Context, userID, taskID ident.ID) error {
	return s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := lockOwnedTask(ctx, tx.Tasks(), userID, taskID); err != nil {
			return err
		}
		if err := tx.Tasks().Delete(ctx, taskID); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		return nil
	})
}

func lockOwnedTask(ctx context.Context, tasks repository.TaskRepository, userID, taskID ident.ID) (*models.Task, error) {
	task, err := tasks.FindByIDForUpdate(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to lock task: %w", err)
	}
	if !task.OwnedBy(userID) {
		return nil, ErrTaskForbidden
	}
	return task, nil
}

func validateTaskPatch(p repository.TaskPatch) (repository.TaskPatch, error) {
	title, err := patch.TryMap(p.Title, validateTitle)
	if err != nil {
		return p, err
	}
	p.Title = title

	if state, ok := p.State.Get(); ok && !state.Valid() {
		return p, ErrInvalidState
	}
	if priority, ok := p.Priority.Get(); ok && priority != nil && !priority.Valid() {
		return p, ErrInvalidPriority
	}
	return p, nil
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > constants.MaxTitleLength {
		return "", ErrTitleTooLong
	}
	return title, nil
}
