package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"taskdeck/internal/auth"
	apperrors "taskdeck/internal/errors"
	"taskdeck/internal/model"
	"taskdeck/internal/repository"
)

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (token string, user *model.PublicUser, err error)
	Login(ctx context.Context, email, password string) (token string, user *model.PublicUser, err error)
	// ValidateSubject re-fetches the user referenced by verified claims.
	// A deleted user fails here, which is what invalidates its outstanding
	// tokens on first subsequent use.
	ValidateSubject(ctx context.Context, claims *auth.Claims) (*model.PublicUser, error)
}

type authService struct {
	users  repository.UserRepository
	hasher *auth.PasswordHasher
	jwt    *auth.JWTService
}

// NewAuthService creates a new authentication service.
func NewAuthService(users repository.UserRepository, hasher *auth.PasswordHasher, jwt *auth.JWTService) AuthService {
	return &authService{
		users:  users,
		hasher: hasher,
		jwt:    jwt,
	}
}

// Register creates a new user with a hashed password and issues a token
// for the new subject.
func (s *authService) Register(ctx context.Context, name, email, password string) (string, *model.PublicUser, error) {
	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return "", nil, apperrors.ErrEmailTaken
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, fmt.Errorf("check user existence: %w", err)
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return "", nil, err
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrEmailTaken) {
			return "", nil, apperrors.ErrEmailTaken
		}
		return "", nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.jwt.Generate(user.ID, user.Email, user.Name)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}

	return token, user.Public(), nil
}

// Login authenticates a user and issues a token. Unknown email and wrong
// password produce the same error so callers cannot tell which check failed.
func (s *authService) Login(ctx context.Context, email, password string) (string, *model.PublicUser, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, apperrors.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("find user: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return "", nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return "", nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.jwt.Generate(user.ID, user.Email, user.Name)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}

	return token, user.Public(), nil
}

// ValidateSubject resolves the claims subject to a live user.
func (s *authService) ValidateSubject(ctx context.Context, claims *auth.Claims) (*model.PublicUser, error) {
	userID, err := claims.UserID()
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	return user.Public(), nil
}
