package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"userhub/internal/events"
	"userhub/internal/logging"
	"userhub/internal/middleware"
	"userhub/internal/search"
	"userhub/internal/service"
)

type AuthHandler struct {
	Svc      *service.AuthService
	Index    *search.UserIndex
	Producer *events.Producer
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req struct {
		FirstName string   `json:"first_name"`
		LastName  string   `json:"last_name"`
		Email     string   `json:"email"`
		Password  string   `json:"password"`
		Roles     []string `json:"roles"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("register_failed", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	pair, err := h.Svc.Register(ctx, service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Roles:     req.Roles,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, "all fields are required")
		case errors.Is(err, service.ErrEmailTaken):
			return echo.NewHTTPError(http.StatusConflict, "email already in use")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	if user, err := h.Svc.GetSelf(ctx, pair.UserID); err == nil {
		if err := h.Index.IndexUser(ctx, user); err != nil {
			l.Error("index_failed", "user_id", user.ID, "error", err)
		}
	}
	if err := h.Producer.PublishUserEvent(ctx, events.TypeUserRegistered, pair.UserID, req.Email); err != nil {
		l.Error("event_publish_failed", "error", err)
	}

	return c.JSON(http.StatusOK, pair)
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("login_failed", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	pair, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		case errors.Is(err, service.ErrBadPassword):
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid password")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	if err := h.Producer.PublishUserEvent(ctx, events.TypeUserLoggedIn, pair.UserID, req.Email); err != nil {
		l.Error("event_publish_failed", "error", err)
	}

	return c.JSON(http.StatusOK, pair)
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	var req struct {
		Token string `json:"token"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("refresh_failed", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "refresh token required")
	}

	pair, err := h.Svc.Refresh(ctx, req.Token)
	if err != nil {
		if errors.Is(err, service.ErrTokenRejected) {
			return echo.NewHTTPError(http.StatusForbidden, "invalid refresh token")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, pair)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	var req struct {
		Token string `json:"token"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("logout_failed", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "refresh token required")
	}

	if err := h.Svc.Logout(ctx, req.Token); err != nil {
		if errors.Is(err, service.ErrTokenRejected) {
			return echo.NewHTTPError(http.StatusForbidden, "invalid token")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHandler) Me(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := h.Svc.GetSelf(ctx, middleware.UserID(c))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "user retrieved",
		"user":    user,
	})
}
