package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskdeck/internal/auth"
	"taskdeck/internal/cache"
	apperrors "taskdeck/internal/errors"
	"taskdeck/internal/model"
	"taskdeck/internal/repository"
)

const profileCacheTTL = 5 * time.Minute

// ProfileUpdate carries the optional fields of a profile update.
type ProfileUpdate struct {
	Name     *string
	Email    *string
	Password *string
}

// UserService exposes profile operations for the authenticated user.
type UserService interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*model.PublicUser, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, upd ProfileUpdate) (*model.PublicUser, error)
	// DeleteAccount removes the user. Outstanding tokens for the subject
	// die on their next use, when subject resolution fails.
	DeleteAccount(ctx context.Context, id uuid.UUID) error
}

type userService struct {
	users  repository.UserRepository
	hasher *auth.PasswordHasher
	cache  *cache.Client
}

// NewUserService builds a UserService with repository, hasher and cache.
func NewUserService(users repository.UserRepository, hasher *auth.PasswordHasher, cache *cache.Client) UserService {
	return &userService{
		users:  users,
		hasher: hasher,
		cache:  cache,
	}
}

func (s *userService) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s", id.String())
}

// GetProfile retrieves the public profile with caching.
func (s *userService) GetProfile(ctx context.Context, id uuid.UUID) (*model.PublicUser, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.PublicUser
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	public := user.Public()
	if payload, err := json.Marshal(public); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, profileCacheTTL)
	}
	return public, nil
}

// UpdateProfile applies a partial update. Changing the email re-checks
// uniqueness; changing the password re-hashes it.
func (s *userService) UpdateProfile(ctx context.Context, id uuid.UUID, upd ProfileUpdate) (*model.PublicUser, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if upd.Email != nil && *upd.Email != user.Email {
		existing, err := s.users.FindByEmail(ctx, *upd.Email)
		if err == nil && existing != nil {
			return nil, apperrors.ErrEmailTaken
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("check email: %w", err)
		}
		user.Email = *upd.Email
	}
	if upd.Name != nil {
		user.Name = *upd.Name
	}
	if upd.Password != nil {
		hashed, err := s.hasher.Hash(*upd.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hashed
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return user.Public(), nil
}

// DeleteAccount removes the user and drops the cached profile.
func (s *userService) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	if _, err := s.users.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return nil
}
