package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/todo-api/internal/config"
	"github.com/yukikurage/todo-api/internal/database"
	"github.com/yukikurage/todo-api/internal/ident"
	"github.com/yukikurage/todo-api/internal/models"
	"github.com/yukikurage/todo-api/internal/patch"
	"github.com/yukikurage/todo-api/internal/repository"
	"go.uber.org/zap"
)

// pausingStore holds every transaction for a moment after the locked read so
// that concurrent writers overlap
type pausingStore struct {
	repository.Store
	pause time.Duration
}

func (s pausingStore) Tasks() repository.TaskRepository {
	return pausingTasks{TaskRepository: s.Store.Tasks(), pause: s.pause}
}

func (s pausingStore) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.Store.Transaction(ctx, func(tx repository.Store) error {
		return fn(pausingStore{Store: tx, pause: s.pause})
	})
}

type pausingTasks struct {
	repository.TaskRepository
	pause time.Duration
}

func (r pausingTasks) FindByIDForUpdate(ctx context.Context, id ident.ID) (*models.Task, error) {
	task, err := r.TaskRepository.FindByIDForUpdate(ctx, id)
	time.Sleep(r.pause)
	return task, err
}

func TestUpdateTask_ConcurrentWritersOnSQLite(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop()

	db, err := database.Connect(&config.Config{
		GinMode:        "test",
		DBDriver:       config.DriverSQLite,
		SQLitePath:     filepath.Join(t.TempDir(), "todo.db"),
		DBMaxOpenConns: 10,
	}, log)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, log))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	svc := NewTaskService(pausingStore{Store: repository.NewStore(db), pause: 50 * time.Millisecond})
	author := ident.New()
	task, err := svc.Create(ctx, author, CreateTaskInput{Title: "draft"})
	require.NoError(t, err)

	patches := []repository.TaskPatch{
		{Title: patch.Set("final")},
		{Description: patch.Set("reviewed")},
	}

	errs := make([]error, len(patches))
	var wg sync.WaitGroup
	for i, p := range patches {
		wg.Add(1)
		go func(i int, p repository.TaskPatch) {
			defer wg.Done()
			errs[i] = svc.Update(ctx, author, task.ID, p)
		}(i, p)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}

	got, err := svc.Get(ctx, author, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Title)
	assert.Equal(t, "reviewed", got.Description)
}
