package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/phone_shop/internal/models"
	"github.com/Skotchmaster/phone_shop/internal/service"
	"github.com/Skotchmaster/phone_shop/internal/transport"
	"github.com/Skotchmaster/phone_shop/internal/util"
	"github.com/Skotchmaster/phone_shop/pkg/logging"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

// CreateOrder places an order for the logged in user, or for a guest when the
// request carries no access token.
func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_order")

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_order_error", "invalid body", err)
	}

	buyer := service.Guest(req.Email, req.NumberTelephone)
	if actor, ok := actorFrom(c); ok {
		buyer = service.Registered(actor.UserID)
	}

	order, err := h.Svc.PlaceOrder(ctx, service.PlaceOrderInput{
		Buyer:      buyer,
		FirstName:  req.FirstName,
		SecondName: req.SecondName,
		Surname:    req.Surname,
		Address:    req.Address,
		Lines:      req.Products,
	})
	if err != nil {
		return fail(l, "create_order_error", err)
	}

	l.Info("create_order_success", "order_id", order.ID, "guest", buyer.IsGuest())
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) ListMyOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_my_orders")

	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(l, "list_my_orders_error")
	}

	p, offset, limit := page(c)
	total, orders, err := h.Svc.ListUserOrders(ctx, actor.UserID, offset, limit)
	if err != nil {
		return fail(l, "list_my_orders_error", err)
	}
	return c.JSON(http.StatusOK, listResponse(orders, util.NewMeta(p, offset, limit, total)))
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_orders")

	f := service.OrderListFilter{Status: models.OrderStatus(c.QueryParam("status"))}
	userID, err := queryUint(c, "user_id")
	if err != nil {
		return badRequest(l, "list_orders_error", err.Error(), err)
	}
	if userID != 0 {
		f.UserID = &userID
	}

	p, offset, limit := page(c)
	f.Offset, f.Limit = offset, limit
	total, orders, err := h.Svc.ListOrders(ctx, f)
	if err != nil {
		return fail(l, "list_orders_error", err)
	}
	return c.JSON(http.StatusOK, listResponse(orders, util.NewMeta(p, offset, limit, total)))
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(l, "get_order_error")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "get_order_error", err.Error(), err)
	}

	order, err := h.Svc.GetOrder(ctx, id, actor)
	if err != nil {
		return fail(l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) ChangeStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.change_status")

	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(l, "change_status_error")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "change_status_error", err.Error(), err)
	}
	var req transport.ChangeStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "change_status_error", "invalid body", err)
	}

	order, err := h.Svc.ChangeStatus(ctx, id, req.Status, actor)
	if err != nil {
		return fail(l, "change_status_error", err)
	}

	l.Info("change_status_success", "order_id", id, "status", order.Status)
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) PatchOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.patch_order")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "patch_order_error", err.Error(), err)
	}
	var req transport.PatchOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "patch_order_error", "invalid body", err)
	}

	order, err := h.Svc.PatchOrder(ctx, id, req)
	if err != nil {
		return fail(l, "patch_order_error", err)
	}
	return c.JSON(http.StatusOK, order)
}
