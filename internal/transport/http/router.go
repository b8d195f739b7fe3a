package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"userhub/internal/handlers"
	"userhub/internal/middleware"
	"userhub/internal/roles"
)

type Deps struct {
	AuthHandler *handlers.AuthHandler
	UserHandler *handlers.UserHandler
	AuthMW      *middleware.Auth
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	auth := e.Group("/api/auth")

	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.Logout)
	auth.GET("/me", d.AuthHandler.Me, d.AuthMW.RequireAuth)

	users := e.Group("/api/users", d.AuthMW.RequireAuth)

	users.PATCH("/:id", d.UserHandler.Patch)

	admin := users.Group("", middleware.RequireRole(roles.Admin))

	admin.GET("", d.UserHandler.List)
	admin.GET("/search", d.UserHandler.Search)
	admin.GET("/:id", d.UserHandler.Get)
	admin.DELETE("/:id", d.UserHandler.Delete)
}
