package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskdeck/internal/model"
)

// TodoRepository defines todo persistence operations. Mutations are scoped
// by owner in a single statement so a concurrent delete between an
// ownership check and the mutation cannot touch another owner's row.
type TodoRepository interface {
	Create(ctx context.Context, todo *model.Todo) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Todo, error)
	FindAllByOwner(ctx context.Context, ownerID uuid.UUID, status *model.TodoStatus) ([]model.Todo, error)
	UpdateOwned(ctx context.Context, id, ownerID uuid.UUID, fields map[string]interface{}) (bool, error)
	DeleteOwned(ctx context.Context, id, ownerID uuid.UUID) (bool, error)
	CountByOwner(ctx context.Context, ownerID uuid.UUID, status *model.TodoStatus) (int64, error)
}

type todoRepository struct {
	db *gorm.DB
}

// NewTodoRepository builds a GORM-backed repository.
func NewTodoRepository(db *gorm.DB) TodoRepository {
	return &todoRepository{db: db}
}

func (r *todoRepository) Create(ctx context.Context, todo *model.Todo) error {
	return r.db.WithContext(ctx).Create(todo).Error
}

func (r *todoRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Todo, error) {
	var todo model.Todo
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&todo).Error; err != nil {
		return nil, err
	}
	return &todo, nil
}

// FindAllByOwner lists an owner's todos, newest first, optionally filtered
// by status.
func (r *todoRepository) FindAllByOwner(ctx context.Context, ownerID uuid.UUID, status *model.TodoStatus) ([]model.Todo, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", ownerID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}

	var todos []model.Todo
	if err := q.Order("created_at DESC").Find(&todos).Error; err != nil {
		return nil, err
	}
	return todos, nil
}

// UpdateOwned applies fields to the todo identified by id only if it still
// belongs to ownerID. Returns false when no row matched.
func (r *todoRepository) UpdateOwned(ctx context.Context, id, ownerID uuid.UUID, fields map[string]interface{}) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Todo{}).
		Where("id = ? AND user_id = ?", id, ownerID).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteOwned removes the todo identified by id only if it belongs to
// ownerID. Returns false when no row matched.
func (r *todoRepository) DeleteOwned(ctx context.Context, id, ownerID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&model.Todo{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *todoRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID, status *model.TodoStatus) (int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Todo{}).Where("user_id = ?", ownerID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
