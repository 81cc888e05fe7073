package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/todo-api/internal/ident"
	"github.com/yukikurage/todo-api/internal/models"
	"github.com/yukikurage/todo-api/internal/patch"
	"github.com/yukikurage/todo-api/internal/repository"
	"github.com/yukikurage/todo-api/internal/utils"
	"gorm.io/gorm"
)

func ownedTask(author ident.ID) *models.Task {
	return &models.Task{ID: ident.New(), AuthorID: &author, Title: "t", State: models.TaskStateTodo}
}

func TestCreateTask_Defaults(t *testing.T) {
	ctx := context.Background()
	userID := ident.New()
	store := newMockStore()
	svc := NewTaskService(store)
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 678, time.UTC)
	svc.now = func() time.Time { return fixed }

	store.tasks.On("Create", ctx, mock.AnythingOfType("*models.Task")).Return(nil)

	task, err := svc.Create(ctx, userID, CreateTaskInput{Title: "  buy milk "})
	require.NoError(t, err)
	assert.Equal(t, "buy milk", task.Title)
	assert.Equal(t, models.TaskStateTodo, task.State)
	assert.True(t, task.OwnedBy(userID))
	assert.False(t, task.ID.IsNil())
	assert.Equal(t, fixed.Truncate(time.Second), task.CreatedAt)
	assert.Nil(t, task.Priority)
}

func TestCreateTask_Validation(t *testing.T) {
	svc := NewTaskService(newMockStore())
	bad := models.TaskPriority("urgent")

	cases := []struct {
		name  string
		input CreateTaskInput
		want  error
	}{
		{"empty title", CreateTaskInput{Title: "   "}, ErrTitleRequired},
		{"long title", CreateTaskInput{Title: strings.Repeat("x", 256)}, ErrTitleTooLong},
		{"bad state", CreateTaskInput{Title: "x", State: "later"}, ErrInvalidState},
		{"bad priority", CreateTaskInput{Title: "x", Priority: &bad}, ErrInvalidPriority},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), ident.New(), tc.input)
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestGetTask(t *testing.T) {
	ctx := context.Background()
	owner := ident.New()
	task := ownedTask(owner)

	t.Run("owner", func(t *testing.T) {
		store := newMockStore()
		store.tasks.On("FindByID", ctx, task.ID).Return(task, nil)

		got, err := NewTaskService(store).Get(ctx, owner, task.ID)
		require.NoError(t, err)
		assert.Equal(t, task, got)
	})

	t.Run("other user", func(t *testing.T) {
		store := newMockStore()
		store.tasks.On("FindByID", ctx, task.ID).Return(task, nil)

		_, err := NewTaskService(store).Get(ctx, ident.New(), task.ID)
		assert.ErrorIs(t, err, ErrTaskForbidden)
	})

	t.Run("missing", func(t *testing.T) {
		store := newMockStore()
		store.tasks.On("FindByID", ctx, task.ID).Return(nil, gorm.ErrRecordNotFound)

		_, err := NewTaskService(store).Get(ctx, owner, task.ID)
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})

	t.Run("authorless task belongs to nobody", func(t *testing.T) {
		store := newMockStore()
		orphan := &models.Task{ID: ident.New()}
		store.tasks.On("FindByID", ctx, orphan.ID).Return(orphan, nil)

		_, err := NewTaskService(store).Get(ctx, owner, orphan.ID)
		assert.ErrorIs(t, err, ErrTaskForbidden)
	})
}

func TestUpdateTask_LocksThenWrites(t *testing.T) {
	ctx := context.Background()
	owner := ident.New()
	task := ownedTask(owner)
	store := newMockStore()

	p := repository.TaskPatch{
		Title:    patch.Set(" renamed "),
		Priority: patch.Set[*models.TaskPriority](nil),
	}
	want := repository.TaskPatch{
		Title:    patch.Set("renamed"),
		Priority: patch.Set[*models.TaskPriority](nil),
	}

	store.On("Transaction", ctx).Return()
	store.tasks.On("FindByIDForUpdate", ctx, task.ID).Return(task, nil)
	store.tasks.On("Update", ctx, task.ID, want).Return(nil)

	require.NoError(t, NewTaskService(store).Update(ctx, owner, task.ID, p))
	store.AssertExpectations(t)
	store.tasks.AssertExpectations(t)
	store.tasks.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestUpdateTask_Forbidden(t *testing.T) {
	ctx := context.Background()
	task := ownedTask(ident.New())
	store := newMockStore()

	store.On("Transaction", ctx).Return()
	store.tasks.On("FindByIDForUpdate", ctx, task.ID).Return(task, nil)

	err := NewTaskService(store).Update(ctx, ident.New(), task.ID, repository.TaskPatch{State: patch.Set(models.TaskStateDone)})
	assert.ErrorIs(t, err, ErrTaskForbidden)
	store.tasks.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateTask_NotFound(t *testing.T) {
	ctx := context.Background()
	id := ident.New()
	store := newMockStore()

	store.On("Transaction", ctx).Return()
	store.tasks.On("FindByIDForUpdate", ctx, id).Return(nil, gorm.ErrRecordNotFound)

	err := NewTaskService(store).Update(ctx, ident.New(), id, repository.TaskPatch{})
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestUpdateTask_InvalidPatch(t *testing.T) {
	store := newMockStore()
	bad := models.TaskPriority("urgent")
	svc := NewTaskService(store)

	err := svc.Update(context.Background(), ident.New(), ident.New(), repository.TaskPatch{Title: patch.Set("")})
	assert.ErrorIs(t, err, ErrTitleRequired)

	err = svc.Update(context.Background(), ident.New(), ident.New(), repository.TaskPatch{State: patch.Set(models.TaskState("x"))})
	assert.ErrorIs(t, err, ErrInvalidState)

	err = svc.Update(context.Background(), ident.New(), ident.New(), repository.TaskPatch{Priority: patch.Set(&bad)})
	assert.ErrorIs(t, err, ErrInvalidPriority)

	store.AssertNotCalled(t, "Transaction", mock.Anything)
}

func TestDeleteTask(t *testing.T) {
	ctx := context.Background()
	owner := ident.New()
	task := ownedTask(owner)

	t.Run("owner", func(t *testing.T) {
		store := newMockStore()
		store.On("Transaction", ctx).Return()
		store.tasks.On("FindByIDForUpdate", ctx, task.ID).Return(task, nil)
		store.tasks.On("Delete", ctx, task.ID).Return(nil)

		require.NoError(t, NewTaskService(store).Delete(ctx, owner, task.ID))
		store.tasks.AssertExpectations(t)
	})

	t.Run("storage failure propagates", func(t *testing.T) {
		store := newMockStore()
		boom := errors.New("boom")
		store.On("Transaction", ctx).Return()
		store.tasks.On("FindByIDForUpdate", ctx, task.ID).Return(task, nil)
		store.tasks.On("Delete", ctx, task.ID).Return(boom)

		err := NewTaskService(store).Delete(ctx, owner, task.ID)
		assert.ErrorIs(t, err, boom)
	})
}

func TestListTasks(t *testing.T) {
	ctx := context.Background()
	owner := ident.New()
	limit := 10
	input := ListTasksInput{
		UserID: owner,
		Filter: repository.TaskFilter{States: []models.TaskState{models.TaskStateDone}},
		Page:   utils.PaginationParams{Limit: &limit},
		Sort:   repository.DefaultTaskSort,
	}
	store := newMockStore()
	store.tasks.On("List", ctx, owner, input.Filter, input.Page, input.Sort).
		Return([]models.Task{*ownedTask(owner)}, int64(7), nil)

	tasks, total, err := NewTaskService(store).List(ctx, input)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
	assert.Equal(t, int64(7), total)

	input.Filter.States = []models.TaskState{"later"}
	_, _, err = NewTaskService(store).List(ctx, input)
	assert.ErrorIs(t, err, ErrInvalidState)
}
