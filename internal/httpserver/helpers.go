package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/phone_shop/internal/inventory"
	"github.com/Skotchmaster/phone_shop/internal/service"
	"github.com/Skotchmaster/phone_shop/internal/util"
	authmw "github.com/Skotchmaster/phone_shop/pkg/middleware/auth"
	"github.com/Skotchmaster/phone_shop/pkg/tokens"
)

// actorFrom reads the caller put into the context by the auth middleware.
func actorFrom(c echo.Context) (service.Actor, bool) {
	id, ok := c.Get(authmw.ContextUserID).(uint)
	if !ok || id == 0 {
		return service.Actor{}, false
	}
	role, _ := c.Get(authmw.ContextRole).(string)
	return service.Actor{UserID: id, Admin: role == tokens.RoleAdmin}, true
}

func parseID(c echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, errors.New(name + " is not a positive integer")
	}
	return uint(v), nil
}

func queryUint(c echo.Context, name string) (uint, error) {
	s := c.QueryParam(name)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.New(name + " is not a positive integer")
	}
	return uint(v), nil
}

func queryInt64(c echo.Context, name string) (*int64, error) {
	s := c.QueryParam(name)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, errors.New(name + " is not an integer")
	}
	return &v, nil
}

// page reads ?page= and ?size=.
func page(c echo.Context) (p, offset, limit int) {
	p = util.ParseIntDefault(c.QueryParam("page"), 1)
	if p < 1 {
		p = 1
	}
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit = util.Calculate(p, size)
	return p, offset, limit
}

func listResponse(items any, meta util.Meta) map[string]any {
	return map[string]any{"data": items, "meta": meta}
}

func badRequest(l *slog.Logger, event, reason string, err error) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, reason)
}

// fail logs a service error and maps it to the response the client gets.
func fail(l *slog.Logger, event string, err error) error {
	if se, ok := inventory.AsInsufficientStock(err); ok {
		l.Warn(event, "status", http.StatusBadRequest, "reason", "insufficient stock",
			"telephone_id", se.ProductID, "requested", se.Requested, "available", se.Available)
		return echo.NewHTTPError(http.StatusBadRequest, map[string]any{
			"error":        "not enough items in stock",
			"telephone_id": se.ProductID,
		})
	}

	var status int
	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrInvalidTransition):
		status = http.StatusConflict
	default:
		l.Error(event, "status", http.StatusInternalServerError, "reason", "internal error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	l.Warn(event, "status", status, "reason", err.Error())
	return echo.NewHTTPError(status, err.Error())
}

func unauthorized(l *slog.Logger, event string) error {
	l.Warn(event, "status", http.StatusUnauthorized, "reason", "no user in context")
	return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
}
