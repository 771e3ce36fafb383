package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	apperrors "taskdeck/internal/errors"
	"taskdeck/internal/model"
)

// MockTodoRepository is a mock implementation of TodoRepository.
type MockTodoRepository struct {
	mock.Mock
}

func (m *MockTodoRepository) Create(ctx context.Context, todo *model.Todo) error {
	args := m.Called(ctx, todo)
	return args.Error(0)
}

func (m *MockTodoRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Todo, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Todo), args.Error(1)
}

func (m *MockTodoRepository) FindAllByOwner(ctx context.Context, ownerID uuid.UUID, status *model.TodoStatus) ([]model.Todo, error) {
	args := m.Called(ctx, ownerID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Todo), args.Error(1)
}

func (m *MockTodoRepository) UpdateOwned(ctx context.Context, id, ownerID uuid.UUID, fields map[string]interface{}) (bool, error) {
	args := m.Called(ctx, id, ownerID, fields)
	return args.Bool(0), args.Error(1)
}

func (m *MockTodoRepository) DeleteOwned(ctx context.Context, id, ownerID uuid.UUID) (bool, error) {
	args := m.Called(ctx, id, ownerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTodoRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID, status *model.TodoStatus) (int64, error) {
	args := m.Called(ctx, ownerID, status)
	return args.Get(0).(int64), args.Error(1)
}

func statusMatcher(want model.TodoStatus) interface{} {
	return mock.MatchedBy(func(st *model.TodoStatus) bool {
		return st != nil && *st == want
	})
}

func TestTodoService_Create(t *testing.T) {
	ownerID := uuid.New()
	mockRepo := new(MockTodoRepository)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Todo")).Run(func(args mock.Arguments) {
		args.Get(1).(*model.Todo).ID = uuid.New()
	}).Return(nil)

	service := NewTodoService(mockRepo, nil)
	desc := "2 liters"
	todo, err := service.Create(context.Background(), ownerID, "Buy milk", &desc)

	assert.NoError(t, err)
	assert.Equal(t, "Buy milk", todo.Title)
	assert.Equal(t, model.StatusPending, todo.Status)
	assert.Equal(t, ownerID, todo.UserID)
	mockRepo.AssertExpectations(t)
}

func TestTodoService_Get_OwnershipChecks(t *testing.T) {
	ownerID := uuid.New()
	otherID := uuid.New()
	todoID := uuid.New()

	tests := []struct {
		name          string
		requesterID   uuid.UUID
		setupMock     func(*MockTodoRepository)
		expectedError error
	}{
		{
			name:        "owner can read",
			requesterID: ownerID,
			setupMock: func(m *MockTodoRepository) {
				m.On("FindByID", mock.Anything, todoID).Return(&model.Todo{ID: todoID, UserID: ownerID}, nil)
			},
			expectedError: nil,
		},
		{
			name:        "non-owner gets forbidden",
			requesterID: otherID,
			setupMock: func(m *MockTodoRepository) {
				m.On("FindByID", mock.Anything, todoID).Return(&model.Todo{ID: todoID, UserID: ownerID}, nil)
			},
			expectedError: apperrors.ErrNotOwner,
		},
		{
			name:        "missing todo is not-found even for a non-owner",
			requesterID: otherID,
			setupMock: func(m *MockTodoRepository) {
				m.On("FindByID", mock.Anything, todoID).Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrTodoNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTodoRepository)
			tt.setupMock(mockRepo)

			service := NewTodoService(mockRepo, nil)
			todo, err := service.Get(context.Background(), todoID, tt.requesterID)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, todo)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, todoID, todo.ID)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTodoService_Update(t *testing.T) {
	ownerID := uuid.New()
	otherID := uuid.New()
	todoID := uuid.New()
	done := model.StatusDone

	t.Run("owner can update status", func(t *testing.T) {
		mockRepo := new(MockTodoRepository)
		existing := &model.Todo{ID: todoID, UserID: ownerID, Title: "Buy milk", Status: model.StatusPending}
		updated := &model.Todo{ID: todoID, UserID: ownerID, Title: "Buy milk", Status: model.StatusDone}
		mockRepo.On("FindByID", mock.Anything, todoID).Return(existing, nil).Once()
		mockRepo.On("UpdateOwned", mock.Anything, todoID, ownerID, map[string]interface{}{"status": model.StatusDone}).Return(true, nil)
		mockRepo.On("FindByID", mock.Anything, todoID).Return(updated, nil).Once()

		service := NewTodoService(mockRepo, nil)
		todo, err := service.Update(context.Background(), todoID, ownerID, TodoUpdate{Status: &done})

		assert.NoError(t, err)
		assert.Equal(t, model.StatusDone, todo.Status)
		mockRepo.AssertExpectations(t)
	})

	t.Run("non-owner gets forbidden", func(t *testing.T) {
		mockRepo := new(MockTodoRepository)
		mockRepo.On("FindByID", mock.Anything, todoID).Return(&model.Todo{ID: todoID, UserID: ownerID}, nil)

		service := NewTodoService(mockRepo, nil)
		todo, err := service.Update(context.Background(), todoID, otherID, TodoUpdate{Status: &done})

		assert.ErrorIs(t, err, apperrors.ErrNotOwner)
		assert.Nil(t, todo)
		mockRepo.AssertNotCalled(t, "UpdateOwned", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("todo deleted between check and act", func(t *testing.T) {
		mockRepo := new(MockTodoRepository)
		mockRepo.On("FindByID", mock.Anything, todoID).Return(&model.Todo{ID: todoID, UserID: ownerID}, nil).Once()
		mockRepo.On("UpdateOwned", mock.Anything, todoID, ownerID, mock.Anything).Return(false, nil)

		service := NewTodoService(mockRepo, nil)
		todo, err := service.Update(context.Background(), todoID, ownerID, TodoUpdate{Status: &done})

		assert.ErrorIs(t, err, apperrors.ErrTodoNotFound)
		assert.Nil(t, todo)
	})
}

func TestTodoService_Delete(t *testing.T) {
	ownerID := uuid.New()
	otherID := uuid.New()
	todoID := uuid.New()

	t.Run("owner can delete", func(t *testing.T) {
		mockRepo := new(MockTodoRepository)
		mockRepo.On("FindByID", mock.Anything, todoID).Return(&model.Todo{ID: todoID, UserID: ownerID}, nil)
		mockRepo.On("DeleteOwned", mock.Anything, todoID, ownerID).Return(true, nil)

		service := NewTodoService(mockRepo, nil)
		assert.NoError(t, service.Delete(context.Background(), todoID, ownerID))
		mockRepo.AssertExpectations(t)
	})

	t.Run("non-owner gets forbidden", func(t *testing.T) {
		mockRepo := new(MockTodoRepository)
		mockRepo.On("FindByID", mock.Anything, todoID).Return(&model.Todo{ID: todoID, UserID: ownerID}, nil)

		service := NewTodoService(mockRepo, nil)
		err := service.Delete(context.Background(), todoID, otherID)

		assert.ErrorIs(t, err, apperrors.ErrNotOwner)
		mockRepo.AssertNotCalled(t, "DeleteOwned", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing todo is not-found", func(t *testing.T) {
		mockRepo := new(MockTodoRepository)
		mockRepo.On("FindByID", mock.Anything, todoID).Return(nil, gorm.ErrRecordNotFound)

		service := NewTodoService(mockRepo, nil)
		err := service.Delete(context.Background(), todoID, ownerID)

		assert.ErrorIs(t, err, apperrors.ErrTodoNotFound)
	})
}

func TestTodoService_List_IgnoresUnknownStatusFilter(t *testing.T) {
	ownerID := uuid.New()
	mockRepo := new(MockTodoRepository)
	mockRepo.On("FindAllByOwner", mock.Anything, ownerID, (*model.TodoStatus)(nil)).Return([]model.Todo{}, nil)

	service := NewTodoService(mockRepo, nil)
	_, err := service.List(context.Background(), ownerID, "BOGUS")

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestTodoService_GetStatistics(t *testing.T) {
	ownerID := uuid.New()

	tests := []struct {
		name         string
		total        int64
		pending      int64
		started      int64
		done         int64
		expectedRate int
	}{
		{name: "empty set", total: 0, pending: 0, started: 0, done: 0, expectedRate: 0},
		{name: "all done", total: 1, pending: 0, started: 0, done: 1, expectedRate: 100},
		{name: "one third done rounds down", total: 3, pending: 2, started: 0, done: 1, expectedRate: 33},
		{name: "two thirds done rounds up", total: 3, pending: 1, started: 0, done: 2, expectedRate: 67},
		{name: "mixed", total: 10, pending: 4, started: 3, done: 3, expectedRate: 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTodoRepository)
			mockRepo.On("CountByOwner", mock.Anything, ownerID, (*model.TodoStatus)(nil)).Return(tt.total, nil)
			mockRepo.On("CountByOwner", mock.Anything, ownerID, statusMatcher(model.StatusPending)).Return(tt.pending, nil)
			mockRepo.On("CountByOwner", mock.Anything, ownerID, statusMatcher(model.StatusStarted)).Return(tt.started, nil)
			mockRepo.On("CountByOwner", mock.Anything, ownerID, statusMatcher(model.StatusDone)).Return(tt.done, nil)

			service := NewTodoService(mockRepo, nil)
			stats, err := service.GetStatistics(context.Background(), ownerID)

			assert.NoError(t, err)
			assert.Equal(t, tt.total, stats.Total)
			assert.Equal(t, tt.total, stats.Pending+stats.Started+stats.Done)
			assert.Equal(t, tt.expectedRate, stats.CompletionRate)
		})
	}
}
