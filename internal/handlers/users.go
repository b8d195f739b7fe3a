package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"userhub/internal/events"
	"userhub/internal/logging"
	"userhub/internal/repo"
	"userhub/internal/search"
	"userhub/internal/service"
)

type UserHandler struct {
	Svc      *service.UserService
	Index    *search.UserIndex
	Producer *events.Producer
}

func (h *UserHandler) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users_patch")

	var req struct {
		FirstName *string  `json:"first_name"`
		LastName  *string  `json:"last_name"`
		Email     *string  `json:"email"`
		Password  *string  `json:"password"`
		Roles     []string `json:"roles"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("patch_failed", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.Update(ctx, c.Param("id"), service.UpdateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Roles:     req.Roles,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, "invalid fields")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	if err := h.Index.IndexUser(ctx, user); err != nil {
		l.Error("index_failed", "user_id", user.ID, "error", err)
	}
	if err := h.Producer.PublishUserEvent(ctx, events.TypeUserUpdated, user.ID, user.Email); err != nil {
		l.Error("event_publish_failed", "error", err)
	}

	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("limit"))

	users, total, err := h.Svc.List(ctx, repo.ListFilter{
		Role:      c.QueryParam("role"),
		Email:     c.QueryParam("email"),
		FirstName: c.QueryParam("first_name"),
		LastName:  c.QueryParam("last_name"),
		SortBy:    c.QueryParam("sort_by"),
		Order:     c.QueryParam("order"),
		Page:      page,
		Size:      size,
	})
	if err != nil {
		if errors.Is(err, repo.ErrBadFilter) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid filter")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 10
	}
	pages := (total + int64(size) - 1) / int64(size)

	return c.JSON(http.StatusOK, echo.Map{
		"users": users,
		"pagination": echo.Map{
			"total": total,
			"page":  page,
			"pages": pages,
		},
	})
}

func (h *UserHandler) Get(c echo.Context) error {
	user, err := h.Svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users_delete")
	id := c.Param("id")

	if err := h.Svc.Delete(ctx, id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if err := h.Index.DeleteUser(ctx, id); err != nil {
		l.Error("index_delete_failed", "user_id", id, "error", err)
	}
	if err := h.Producer.PublishUserEvent(ctx, events.TypeUserDeleted, id, ""); err != nil {
		l.Error("event_publish_failed", "error", err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "user deleted"})
}

func (h *UserHandler) Search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing query")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 10
	}

	total, docs, err := h.Index.Search(c.Request().Context(), q, (page-1)*size, size)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "search unavailable")
	}

	return c.JSON(http.StatusOK, echo.Map{"total": total, "users": docs})
}
