package models

import (
	"time"

	"github.com/yukikurage/todo-api/internal/ident"
)

type TaskState string

const (
	TaskStateIcebox     TaskState = "icebox"
	TaskStateTodo       TaskState = "todo"
	TaskStateInProgress TaskState = "in-progress"
	TaskStateDone       TaskState = "done"
)

// Valid reports whether s is one of the known states.
func (s TaskState) Valid() bool {
	switch s {
	case TaskStateIcebox, TaskStateTodo, TaskStateInProgress, TaskStateDone:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// Task is a to-do item. AuthorID is only nil for legacy rows; such tasks
// belong to nobody and every ownership check fails.
type Task struct {
	ID          ident.ID      `gorm:"primaryKey" json:"id"`
	AuthorID    *ident.ID     `gorm:"index:idx_tasks_author_created,priority:1" json:"author_id"`
	Title       string        `gorm:"type:varchar(255);not null" json:"title"`
	Description string        `gorm:"type:text;not null" json:"description"`
	CreatedAt   time.Time     `gorm:"index:idx_tasks_author_created,priority:2" json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	State       TaskState     `gorm:"type:varchar(20);not null;default:'todo'" json:"state"`
	Priority    *TaskPriority `gorm:"type:varchar(20)" json:"priority"`
	DueDate     *time.Time    `json:"due_date"`
}

// OwnedBy reports whether userID authored the task.
func (t *Task) OwnedBy(userID ident.ID) bool {
	return t.AuthorID != nil && *t.AuthorID == userID
}
