package dto

import (
	"errors"
	"time"

	"github.com/yukikurage/todo-api/internal/constants"
	"github.com/yukikurage/todo-api/internal/ident"
	"github.com/yukikurage/todo-api/internal/models"
	"github.com/yukikurage/todo-api/internal/patch"
	"github.com/yukikurage/todo-api/internal/repository"
	"github.com/yukikurage/todo-api/internal/services"
)

// ErrInvalidDueDate is returned for due dates in neither accepted layout
var ErrInvalidDueDate = errors.New("due_date must be formatted as YYYY-MM-DD or YYYY-MM-DD HH:MM:SS")

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID          ident.ID             `json:"id"`
	AuthorID    *ident.ID            `json:"author_id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	State       models.TaskState     `json:"state"`
	Priority    *models.TaskPriority `json:"priority"`
	DueDate     *string              `json:"due_date"`
	CreatedAt   string               `json:"created_at"`
	UpdatedAt   string               `json:"updated_at"`
}

// TaskListResponse represents one page of the caller's tasks
type TaskListResponse struct {
	Items  []TaskDTO `json:"items"`
	Total  int64     `json:"total"`
	Limit  *int      `json:"limit"`
	Offset int       `json:"offset"`
}

// CreateTaskRequest is the body of POST /tasks
type CreateTaskRequest struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	State       models.TaskState     `json:"state"`
	Priority    *models.TaskPriority `json:"priority"`
	DueDate     *string              `json:"due_date"`
}

// ToInput converts the request into the service input
func (r CreateTaskRequest) ToInput() (services.CreateTaskInput, error) {
	input := services.CreateTaskInput{
		Title:       r.Title,
		Description: r.Description,
		State:       r.State,
		Priority:    r.Priority,
	}
	if r.DueDate != nil {
		due, err := ParseDueDate(*r.DueDate)
		if err != nil {
			return input, err
		}
		input.DueDate = &due
	}
	return input, nil
}

// UpdateTaskRequest is the body of PUT/PATCH /tasks/:id. priority and
// due_date may be null to clear them; null on the other fields is ignored.
type UpdateTaskRequest struct {
	Title       patch.Field[*string]              `json:"title"`
	Description patch.Field[*string]              `json:"description"`
	State       patch.Field[*models.TaskState]    `json:"state"`
	Priority    patch.Field[*models.TaskPriority] `json:"priority"`
	DueDate     patch.Field[*string]              `json:"due_date"`
}

// ToPatch converts the request into a repository patch
func (r UpdateTaskRequest) ToPatch() (repository.TaskPatch, error) {
	title, _ := patch.Flatten(r.Title)
	description, _ := patch.Flatten(r.Description)
	state, _ := patch.Flatten(r.State)

	dueDate, err := patch.TryMap(r.DueDate, func(s *string) (*time.Time, error) {
		if s == nil {
			return nil, nil
		}
		due, err := ParseDueDate(*s)
		if err != nil {
			return nil, err
		}
		return &due, nil
	})
	if err != nil {
		return repository.TaskPatch{}, err
	}

	return repository.TaskPatch{
		Title:       title,
		Description: description,
		State:       state,
		Priority:    r.Priority,
		DueDate:     dueDate,
	}, nil
}

// ParseDueDate accepts a full timestamp or a bare date, both in UTC
func ParseDueDate(s string) (time.Time, error) {
	for _, layout := range []string{constants.TimestampLayout, constants.DateLayout} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidDueDate
}

// FormatTimestamp renders t in the wire format
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(constants.TimestampLayout)
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:          task.ID,
		AuthorID:    task.AuthorID,
		Title:       task.Title,
		Description: task.Description,
		State:       task.State,
		Priority:    task.Priority,
		CreatedAt:   FormatTimestamp(task.CreatedAt),
		UpdatedAt:   FormatTimestamp(task.UpdatedAt),
	}
	if task.DueDate != nil {
		due := FormatTimestamp(*task.DueDate)
		dto.DueDate = &due
	}
	return dto
}

// ToTaskListResponse converts one page of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, total int64, limit *int, offset int) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}

	return TaskListResponse{
		Items:  items,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
}
