package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"taskdeck/internal/auth"
	"taskdeck/internal/handler"
	appmw "taskdeck/internal/middleware"
	"taskdeck/internal/service"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	jwtService *auth.JWTService,
	authService service.AuthService,
	authHandler *handler.AuthHandler,
	todoHandler *handler.TodoHandler,
	userHandler *handler.UserHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	// Secured routes (require a verified token and a live subject)
	secured := api.Group("", appmw.RequireAuth(jwtService, authService)...)

	secured.GET("/auth/profile", authHandler.Profile)

	// Profile routes
	secured.GET("/users/me", userHandler.GetProfile)
	secured.PATCH("/users/me", userHandler.UpdateProfile)
	secured.DELETE("/users/me", userHandler.DeleteAccount)

	// Todo routes
	secured.POST("/todos", todoHandler.Create)
	secured.GET("/todos", todoHandler.List)
	secured.GET("/todos/statistics", todoHandler.Statistics)
	secured.GET("/todos/:id", todoHandler.Get)
	secured.PATCH("/todos/:id", todoHandler.Update)
	secured.DELETE("/todos/:id", todoHandler.Delete)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
