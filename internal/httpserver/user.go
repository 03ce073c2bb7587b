package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/phone_shop/internal/service"
	"github.com/Skotchmaster/phone_shop/internal/transport"
	"github.com/Skotchmaster/phone_shop/internal/util"
	"github.com/Skotchmaster/phone_shop/pkg/logging"
)

type UserHTTP struct {
	Svc *service.UserService
}

func (h *UserHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "register_error", "invalid body", err)
	}

	user, err := h.Svc.Register(ctx, req)
	if err != nil {
		return fail(l, "register_error", err)
	}

	l.Info("register_success", "user_id", user.ID)
	return c.JSON(http.StatusCreated, user)
}

func (h *UserHTTP) GetSelf(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.get_self")

	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(l, "get_self_error")
	}
	user, err := h.Svc.GetUser(ctx, actor.UserID)
	if err != nil {
		return fail(l, "get_self_error", err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHTTP) PatchSelf(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.patch_self")

	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(l, "patch_self_error")
	}
	var req transport.PatchUserRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "patch_self_error", "invalid body", err)
	}

	user, err := h.Svc.PatchUser(ctx, actor.UserID, req, false)
	if err != nil {
		return fail(l, "patch_self_error", err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHTTP) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.list_users")

	p, offset, limit := page(c)
	total, users, err := h.Svc.ListUsers(ctx, offset, limit)
	if err != nil {
		return fail(l, "list_users_error", err)
	}
	return c.JSON(http.StatusOK, listResponse(users, util.NewMeta(p, offset, limit, total)))
}

func (h *UserHTTP) GetUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.get_user")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "get_user_error", err.Error(), err)
	}
	user, err := h.Svc.GetUser(ctx, id)
	if err != nil {
		return fail(l, "get_user_error", err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHTTP) PatchUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.patch_user")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "patch_user_error", err.Error(), err)
	}
	var req transport.PatchUserRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "patch_user_error", "invalid body", err)
	}

	user, err := h.Svc.PatchUser(ctx, id, req, true)
	if err != nil {
		return fail(l, "patch_user_error", err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHTTP) DeleteUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.delete_user")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "delete_user_error", err.Error(), err)
	}
	if err := h.Svc.DeleteUser(ctx, id); err != nil {
		return fail(l, "delete_user_error", err)
	}

	l.Info("delete_user_success", "user_id", id)
	return c.NoContent(http.StatusNoContent)
}
