package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TodoStatus is the lifecycle state of a todo item.
type TodoStatus string

const (
	StatusPending TodoStatus = "PENDING"
	StatusStarted TodoStatus = "STARTED"
	StatusDone    TodoStatus = "DONE"
)

// Valid reports whether s is a known status value.
func (s TodoStatus) Valid() bool {
	switch s {
	case StatusPending, StatusStarted, StatusDone:
		return true
	}
	return false
}

// Todo represents a task item owned by a single user. UserID is set at
// creation and never reassigned.
type Todo struct {
	ID          uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	Title       string     `json:"title" gorm:"size:255;not null"`
	Description *string    `json:"description,omitempty" gorm:"type:text"`
	Status      TodoStatus `json:"status" gorm:"size:20;not null;default:'PENDING';index"`
	UserID      uuid.UUID  `json:"user_id" gorm:"type:char(36);not null;index"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// BeforeCreate sets UUID and the default status before creating the record.
func (t *Todo) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	return nil
}
