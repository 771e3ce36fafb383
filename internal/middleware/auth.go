package middleware

import (
	"errors"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"taskdeck/internal/auth"
	apperrors "taskdeck/internal/errors"
	"taskdeck/internal/model"
	"taskdeck/internal/service"
)

const (
	// identityKey is the echo context key the resolved identity is stored under.
	identityKey = "identity"
	// claimsKey is the echo context key the verified token claims are stored under.
	claimsKey = "token_claims"
)

// RequireAuth returns the middleware chain guarding protected routes:
// bearer token verification followed by subject resolution. A missing
// header, a bad signature, an expired token and a deleted subject all
// produce an identical 401 response.
func RequireAuth(jwtService *auth.JWTService, authService service.AuthService) []echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		ContextKey: claimsKey,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return jwtService.ValidateToken(token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return errUnauthorized()
		},
	})

	resolve := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(claimsKey).(*auth.Claims)
			if !ok {
				return errUnauthorized()
			}

			identity, err := authService.ValidateSubject(c.Request().Context(), claims)
			if err != nil {
				if errors.Is(err, apperrors.ErrUnauthorized) {
					return errUnauthorized()
				}
				httpErr := apperrors.MapErrorToHTTP(err)
				return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
			}

			c.Set(identityKey, identity)
			return next(c)
		}
	}

	return []echo.MiddlewareFunc{verify, resolve}
}

// Identity returns the authenticated user attached by RequireAuth.
func Identity(c echo.Context) (*model.PublicUser, bool) {
	identity, ok := c.Get(identityKey).(*model.PublicUser)
	return identity, ok
}

func errUnauthorized() *echo.HTTPError {
	httpErr := apperrors.MapErrorToHTTP(apperrors.ErrUnauthorized)
	return echo.NewHTTPError(http.StatusUnauthorized, httpErr.ToErrorResponse())
}
