package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/phone_shop/internal/service"
	"github.com/Skotchmaster/phone_shop/pkg/logging"
)

type WishlistHTTP struct {
	Svc *service.WishlistService
}

func (h *WishlistHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.list")

	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(l, "list_wishlist_error")
	}
	items, err := h.Svc.List(ctx, actor.UserID)
	if err != nil {
		return fail(l, "list_wishlist_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": items})
}

func (h *WishlistHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.add")

	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(l, "add_wishlist_error")
	}
	productID, err := parseID(c, "product_id")
	if err != nil {
		return badRequest(l, "add_wishlist_error", err.Error(), err)
	}

	item, err := h.Svc.Add(ctx, actor.UserID, productID)
	if err != nil {
		return fail(l, "add_wishlist_error", err)
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *WishlistHTTP) Remove(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.remove")

	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(l, "remove_wishlist_error")
	}
	productID, err := parseID(c, "product_id")
	if err != nil {
		return badRequest(l, "remove_wishlist_error", err.Error(), err)
	}
	if err := h.Svc.Remove(ctx, actor.UserID, productID); err != nil {
		return fail(l, "remove_wishlist_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}
