package services

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/yukikurage/todo-api/internal/ident"
	"github.com/yukikurage/todo-api/internal/models"
	"github.com/yukikurage/todo-api/internal/repository"
	"github.com/yukikurage/todo-api/internal/utils"
)

// MockStore hands out the same mocked repositories inside and outside of
// transactions and records how many transactions were opened.
type MockStore struct {
	mock.Mock
	tasks *MockTaskRepository
	users *MockUserRepository
}

func newMockStore() *MockStore {
	return &MockStore{
		tasks: new(MockTaskRepository),
		users: new(MockUserRepository),
	}
}

func (m *MockStore) Tasks() repository.TaskRepository { return m.tasks }

func (m *MockStore) Users() repository.UserRepository { return m.users }

func (m *MockStore) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	m.Called(ctx)
	return fn(m)
}

// MockTaskRepository mocks repository.TaskRepository
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) List(ctx context.Context, authorID ident.ID, filter repository.TaskFilter, page utils.PaginationParams, sort repository.TaskSort) ([]models.Task, int64, error) {
	args := m.Called(ctx, authorID, filter, page, sort)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Task), args.Get(1).(int64), args.Error(2)
}

func (m *MockTaskRepository) FindByID(ctx context.Context, id ident.ID) (*models.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *MockTaskRepository) FindByIDForUpdate(ctx context.Context, id ident.ID) (*models.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *MockTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return m.Called(ctx, task).Error(0)
}

func (m *MockTaskRepository) Update(ctx context.Context, id ident.ID, p repository.TaskPatch) error {
	return m.Called(ctx, id, p).Error(0)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id ident.ID) error {
	return m.Called(ctx, id).Error(0)
}

// MockUserRepository mocks repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) UsernameExists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, id *ident.ID, username, displayName string, hashedPassword []byte) (ident.ID, error) {
	args := m.Called(ctx, id, username, displayName, hashedPassword)
	return args.Get(0).(ident.ID), args.Error(1)
}

func (m *MockUserRepository) Remove(ctx context.Context, id ident.ID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, id ident.ID, p repository.UserPatch) error {
	return m.Called(ctx, id, p).Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id ident.ID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) VerifyPassword(ctx context.Context, id ident.ID, hashedCandidate []byte) (bool, error) {
	args := m.Called(ctx, id, hashedCandidate)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) IsValidID(ctx context.Context, id ident.ID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// fakeHasher makes hashes readable in expectations
type fakeHasher struct{}

func (fakeHasher) Hash(plaintext string, salt ident.ID) ([]byte, error) {
	if plaintext == "" {
		return nil, utils.ErrEmptyPassword
	}
	return []byte(plaintext + "@" + salt.String()), nil
}

func (h fakeHasher) Verify(plaintext string, salt ident.ID, hash []byte) bool {
	got, err := h.Hash(plaintext, salt)
	return err == nil && string(got) == string(hash)
}
