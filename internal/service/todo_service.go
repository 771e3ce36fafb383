package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskdeck/internal/cache"
	apperrors "taskdeck/internal/errors"
	"taskdeck/internal/model"
	"taskdeck/internal/repository"
)

const statsCacheTTL = 5 * time.Minute

// TodoUpdate carries the optional fields of a partial todo update.
type TodoUpdate struct {
	Title       *string
	Description *string
	Status      *model.TodoStatus
}

// Statistics summarizes an owner's todos by status.
type Statistics struct {
	Total          int64 `json:"total"`
	Pending        int64 `json:"pending"`
	Started        int64 `json:"started"`
	Done           int64 `json:"done"`
	CompletionRate int   `json:"completion_rate"`
}

// TodoService handles todo operations for the authenticated owner. Every
// read and mutation checks existence before ownership, so probing a
// nonexistent id yields not-found rather than forbidden.
type TodoService interface {
	Create(ctx context.Context, ownerID uuid.UUID, title string, description *string) (*model.Todo, error)
	List(ctx context.Context, ownerID uuid.UUID, status string) ([]model.Todo, error)
	Get(ctx context.Context, id, ownerID uuid.UUID) (*model.Todo, error)
	Update(ctx context.Context, id, ownerID uuid.UUID, upd TodoUpdate) (*model.Todo, error)
	Delete(ctx context.Context, id, ownerID uuid.UUID) error
	GetStatistics(ctx context.Context, ownerID uuid.UUID) (*Statistics, error)
}

type todoService struct {
	todos repository.TodoRepository
	cache *cache.Client
}

// NewTodoService creates a new todo service.
func NewTodoService(todos repository.TodoRepository, cache *cache.Client) TodoService {
	return &todoService{
		todos: todos,
		cache: cache,
	}
}

func (s *todoService) statsCacheKey(ownerID uuid.UUID) string {
	return fmt.Sprintf("stats:%s", ownerID.String())
}

// Create stores a new todo owned by ownerID with status PENDING.
func (s *todoService) Create(ctx context.Context, ownerID uuid.UUID, title string, description *string) (*model.Todo, error) {
	todo := &model.Todo{
		Title:       title,
		Description: description,
		Status:      model.StatusPending,
		UserID:      ownerID,
	}
	if err := s.todos.Create(ctx, todo); err != nil {
		return nil, fmt.Errorf("create todo: %w", err)
	}

	_ = s.cache.Delete(ctx, s.statsCacheKey(ownerID))
	return todo, nil
}

// List returns the owner's todos, newest first. An unknown status value is
// ignored rather than rejected.
func (s *todoService) List(ctx context.Context, ownerID uuid.UUID, status string) ([]model.Todo, error) {
	var filter *model.TodoStatus
	if st := model.TodoStatus(status); st.Valid() {
		filter = &st
	}
	return s.todos.FindAllByOwner(ctx, ownerID, filter)
}

// Get returns a todo if it exists and belongs to ownerID.
func (s *todoService) Get(ctx context.Context, id, ownerID uuid.UUID) (*model.Todo, error) {
	todo, err := s.todos.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTodoNotFound
		}
		return nil, fmt.Errorf("find todo: %w", err)
	}

	if todo.UserID != ownerID {
		return nil, apperrors.ErrNotOwner
	}

	return todo, nil
}

// Update applies a partial update after the existence and ownership checks.
// The store-level mutation is owner-scoped again, so a todo deleted between
// check and act surfaces as not-found instead of silently succeeding.
func (s *todoService) Update(ctx context.Context, id, ownerID uuid.UUID, upd TodoUpdate) (*model.Todo, error) {
	if _, err := s.Get(ctx, id, ownerID); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if upd.Title != nil {
		fields["title"] = *upd.Title
	}
	if upd.Description != nil {
		fields["description"] = *upd.Description
	}
	if upd.Status != nil {
		if !upd.Status.Valid() {
			return nil, apperrors.ErrInvalidStatus
		}
		fields["status"] = *upd.Status
	}

	if len(fields) > 0 {
		updated, err := s.todos.UpdateOwned(ctx, id, ownerID, fields)
		if err != nil {
			return nil, fmt.Errorf("update todo: %w", err)
		}
		if !updated {
			return nil, apperrors.ErrTodoNotFound
		}
		_ = s.cache.Delete(ctx, s.statsCacheKey(ownerID))
	}

	return s.Get(ctx, id, ownerID)
}

// Delete removes a todo after the existence and ownership checks.
func (s *todoService) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	if _, err := s.Get(ctx, id, ownerID); err != nil {
		return err
	}

	deleted, err := s.todos.DeleteOwned(ctx, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	if !deleted {
		return apperrors.ErrTodoNotFound
	}

	_ = s.cache.Delete(ctx, s.statsCacheKey(ownerID))
	return nil
}

// GetStatistics returns per-status counts and the completion rate, cached
// per owner and invalidated on every mutation.
func (s *todoService) GetStatistics(ctx context.Context, ownerID uuid.UUID) (*Statistics, error) {
	if data, _ := s.cache.Get(ctx, s.statsCacheKey(ownerID)); data != nil {
		var cached Statistics
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	total, err := s.todos.CountByOwner(ctx, ownerID, nil)
	if err != nil {
		return nil, fmt.Errorf("count todos: %w", err)
	}

	counts := map[model.TodoStatus]int64{}
	for _, st := range []model.TodoStatus{model.StatusPending, model.StatusStarted, model.StatusDone} {
		st := st
		n, err := s.todos.CountByOwner(ctx, ownerID, &st)
		if err != nil {
			return nil, fmt.Errorf("count todos by status: %w", err)
		}
		counts[st] = n
	}

	stats := &Statistics{
		Total:   total,
		Pending: counts[model.StatusPending],
		Started: counts[model.StatusStarted],
		Done:    counts[model.StatusDone],
	}
	if total > 0 {
		stats.CompletionRate = int(math.Round(float64(stats.Done) / float64(total) * 100))
	}

	if payload, err := json.Marshal(stats); err == nil {
		_ = s.cache.Set(ctx, s.statsCacheKey(ownerID), payload, statsCacheTTL)
	}

	return stats, nil
}
