package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"taskdeck/internal/auth"
	apperrors "taskdeck/internal/errors"
	"taskdeck/internal/model"

	"github.com/google/uuid"
)

// stubAuthService implements service.AuthService for guard tests.
type stubAuthService struct {
	user *model.PublicUser
	err  error
}

func (s *stubAuthService) Register(ctx context.Context, name, email, password string) (string, *model.PublicUser, error) {
	return "", nil, nil
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *model.PublicUser, error) {
	return "", nil, nil
}

func (s *stubAuthService) ValidateSubject(ctx context.Context, claims *auth.Claims) (*model.PublicUser, error) {
	return s.user, s.err
}

func newGuardedServer(jwtService *auth.JWTService, authService *stubAuthService) *echo.Echo {
	e := echo.New()
	g := e.Group("/api", RequireAuth(jwtService, authService)...)
	g.GET("/protected", func(c echo.Context) error {
		identity, ok := Identity(c)
		if !ok {
			return echo.NewHTTPError(http.StatusInternalServerError, "identity missing")
		}
		return c.JSON(http.StatusOK, identity)
	})
	return e
}

func TestRequireAuth_UniformUnauthorized(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret", time.Hour)
	otherKey := auth.NewJWTService("other-secret", time.Hour)

	userID := uuid.New()
	validToken, err := jwtService.Generate(userID, "john@example.com", "John Doe")
	assert.NoError(t, err)
	foreignToken, err := otherKey.Generate(userID, "john@example.com", "John Doe")
	assert.NoError(t, err)

	expiredClaims := &auth.Claims{Email: "john@example.com", Name: "John Doe"}
	expiredClaims.Subject = userID.String()
	expiredClaims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	expiredToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expiredClaims).SignedString([]byte("test-secret"))
	assert.NoError(t, err)

	const wantBody = `{"error":"unauthorized","code":"UNAUTHORIZED"}`

	tests := []struct {
		name        string
		authHeader  string
		authService *stubAuthService
	}{
		{
			name:        "missing bearer header",
			authHeader:  "",
			authService: &stubAuthService{},
		},
		{
			name:        "malformed token",
			authHeader:  "Bearer garbage",
			authService: &stubAuthService{},
		},
		{
			name:        "token signed with a different key",
			authHeader:  "Bearer " + foreignToken,
			authService: &stubAuthService{},
		},
		{
			name:        "expired token",
			authHeader:  "Bearer " + expiredToken,
			authService: &stubAuthService{},
		},
		{
			name:        "deleted subject",
			authHeader:  "Bearer " + validToken,
			authService: &stubAuthService{err: apperrors.ErrUnauthorized},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newGuardedServer(jwtService, tt.authService)

			req := httptest.NewRequest(http.MethodGet, "/api/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.authHeader)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			// Every failure point must be indistinguishable to the caller.
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, wantBody, rec.Body.String())
		})
	}
}

func TestRequireAuth_AttachesIdentity(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret", time.Hour)
	userID := uuid.New()

	token, err := jwtService.Generate(userID, "john@example.com", "John Doe")
	assert.NoError(t, err)

	authService := &stubAuthService{user: &model.PublicUser{
		ID:    userID,
		Name:  "John Doe",
		Email: "john@example.com",
	}}
	e := newGuardedServer(jwtService, authService)

	req := httptest.NewRequest(http.MethodGet, "/api/protected", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), userID.String())
	assert.Contains(t, rec.Body.String(), "john@example.com")
}
