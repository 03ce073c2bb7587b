package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/phone_shop/internal/service"
	"github.com/Skotchmaster/phone_shop/internal/transport"
	"github.com/Skotchmaster/phone_shop/pkg/logging"
)

type VendorHTTP struct {
	Svc *service.VendorService
}

func (h *VendorHTTP) ListVendors(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "vendor.list_vendors")

	vendors, err := h.Svc.ListVendors(ctx, c.QueryParam("sort"), c.QueryParam("order"))
	if err != nil {
		return fail(l, "list_vendors_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": vendors})
}

func (h *VendorHTTP) GetVendor(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "vendor.get_vendor")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "get_vendor_error", err.Error(), err)
	}
	vendor, err := h.Svc.GetVendor(ctx, id)
	if err != nil {
		return fail(l, "get_vendor_error", err)
	}
	return c.JSON(http.StatusOK, vendor)
}

func (h *VendorHTTP) CreateVendor(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "vendor.create_vendor")

	var req transport.VendorRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_vendor_error", "invalid body", err)
	}
	vendor, err := h.Svc.CreateVendor(ctx, req)
	if err != nil {
		return fail(l, "create_vendor_error", err)
	}
	return c.JSON(http.StatusCreated, vendor)
}

func (h *VendorHTTP) PatchVendor(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "vendor.patch_vendor")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "patch_vendor_error", err.Error(), err)
	}
	var req transport.PatchVendorRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "patch_vendor_error", "invalid body", err)
	}
	vendor, err := h.Svc.PatchVendor(ctx, id, req)
	if err != nil {
		return fail(l, "patch_vendor_error", err)
	}
	return c.JSON(http.StatusOK, vendor)
}

func (h *VendorHTTP) DeleteVendor(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "vendor.delete_vendor")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "delete_vendor_error", err.Error(), err)
	}
	if err := h.Svc.DeleteVendor(ctx, id); err != nil {
		return fail(l, "delete_vendor_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *VendorHTTP) ListDeliveries(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "vendor.list_deliveries")

	vendorID, err := queryUint(c, "vendor_id")
	if err != nil {
		return badRequest(l, "list_deliveries_error", err.Error(), err)
	}
	deliveries, err := h.Svc.ListDeliveries(ctx, vendorID)
	if err != nil {
		return fail(l, "list_deliveries_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": deliveries})
}

func (h *VendorHTTP) GetDelivery(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "vendor.get_delivery")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "get_delivery_error", err.Error(), err)
	}
	delivery, err := h.Svc.GetDelivery(ctx, id)
	if err != nil {
		return fail(l, "get_delivery_error", err)
	}
	return c.JSON(http.StatusOK, delivery)
}

func (h *VendorHTTP) CreateDelivery(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "vendor.create_delivery")

	var req transport.CreateDeliveryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_delivery_error", "invalid body", err)
	}
	delivery, err := h.Svc.CreateDelivery(ctx, req)
	if err != nil {
		return fail(l, "create_delivery_error", err)
	}

	l.Info("create_delivery_success", "delivery_id", delivery.ID, "lines", len(delivery.Lines))
	return c.JSON(http.StatusCreated, delivery)
}

func (h *VendorHTTP) PatchDelivery(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "vendor.patch_delivery")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "patch_delivery_error", err.Error(), err)
	}
	var req transport.PatchDeliveryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "patch_delivery_error", "invalid body", err)
	}
	delivery, err := h.Svc.PatchDelivery(ctx, id, req)
	if err != nil {
		return fail(l, "patch_delivery_error", err)
	}
	return c.JSON(http.StatusOK, delivery)
}

func (h *VendorHTTP) PatchDeliveryLine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "vendor.patch_delivery_line")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "patch_delivery_line_error", err.Error(), err)
	}
	var req transport.PatchDeliveryLineRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "patch_delivery_line_error", "invalid body", err)
	}
	line, err := h.Svc.PatchDeliveryLine(ctx, id, req)
	if err != nil {
		return fail(l, "patch_delivery_line_error", err)
	}
	return c.JSON(http.StatusOK, line)
}

func (h *VendorHTTP) DeleteDelivery(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "vendor.delete_delivery")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "delete_delivery_error", err.Error(), err)
	}
	if err := h.Svc.DeleteDelivery(ctx, id); err != nil {
		return fail(l, "delete_delivery_error", err)
	}

	l.Info("delete_delivery_success", "delivery_id", id)
	return c.NoContent(http.StatusNoContent)
}
