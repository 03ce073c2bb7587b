package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/phone_shop/internal/service"
	"github.com/Skotchmaster/phone_shop/internal/transport"
	"github.com/Skotchmaster/phone_shop/internal/util"
	"github.com/Skotchmaster/phone_shop/pkg/logging"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_products")

	brandID, err := queryUint(c, "brand_id")
	if err != nil {
		return badRequest(l, "get_products_error", err.Error(), err)
	}
	minPrice, err := queryInt64(c, "min_price")
	if err != nil {
		return badRequest(l, "get_products_error", err.Error(), err)
	}
	maxPrice, err := queryInt64(c, "max_price")
	if err != nil {
		return badRequest(l, "get_products_error", err.Error(), err)
	}

	p, offset, limit := page(c)
	total, items, err := h.Svc.GetProducts(ctx, service.ProductListFilter{
		BrandID:  brandID,
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		InStock:  c.QueryParam("in_stock") == "true",
		SortBy:   c.QueryParam("sort"),
		SortDir:  c.QueryParam("order"),
		Offset:   offset,
		Limit:    limit,
	})
	if err != nil {
		return fail(l, "get_products_error", err)
	}

	l.Info("get_products_success", "total", total)
	return c.JSON(http.StatusOK, listResponse(items, util.NewMeta(p, offset, limit, total)))
}

// GetProductsByIDs accepts ?id=1&id=2 as well as ?id=1,2.
func (h *CatalogHTTP) GetProductsByIDs(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_products_by_ids")

	var ids []uint
	for _, raw := range c.QueryParams()["id"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			v, err := strconv.ParseUint(part, 10, 64)
			if err != nil {
				return badRequest(l, "get_products_by_ids_error", "id is not a positive integer", err)
			}
			ids = append(ids, uint(v))
		}
	}

	items, err := h.Svc.GetProductsByIDs(ctx, ids)
	if err != nil {
		return fail(l, "get_products_by_ids_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": items})
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.search_products")

	p, offset, limit := page(c)
	total, items, err := h.Svc.SearchProducts(ctx, c.QueryParam("q"), offset, limit)
	if err != nil {
		return fail(l, "search_products_error", err)
	}

	l.Info("search_products_success", "total", total)
	return c.JSON(http.StatusOK, listResponse(items, util.NewMeta(p, offset, limit, total)))
}

func (h *CatalogHTTP) GetFilters(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_filters")

	f, err := h.Svc.GetFilters(ctx)
	if err != nil {
		return fail(l, "get_filters_error", err)
	}
	return c.JSON(http.StatusOK, f)
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_product")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "get_product_error", err.Error(), err)
	}

	product, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return fail(l, "get_product_error", err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.create_product")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_product_error", "invalid body", err)
	}

	product, err := h.Svc.CreateProduct(ctx, req)
	if err != nil {
		return fail(l, "create_product_error", err)
	}

	l.Info("create_product_success", "product_id", product.ID)
	return c.JSON(http.StatusCreated, product)
}

func (h *CatalogHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.patch_product")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "patch_product_error", err.Error(), err)
	}
	var req transport.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "patch_product_error", "invalid body", err)
	}

	product, err := h.Svc.PatchProduct(ctx, id, req)
	if err != nil {
		return fail(l, "patch_product_error", err)
	}

	l.Info("patch_product_success", "product_id", id)
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.delete_product")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "delete_product_error", err.Error(), err)
	}
	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		return fail(l, "delete_product_error", err)
	}

	l.Info("delete_product_success", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHTTP) AdjustStock(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.adjust_stock")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "adjust_stock_error", err.Error(), err)
	}
	var req transport.AdjustStockRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "adjust_stock_error", "invalid body", err)
	}

	product, err := h.Svc.AdjustStock(ctx, id, req.Delta)
	if err != nil {
		return fail(l, "adjust_stock_error", err)
	}

	l.Info("adjust_stock_success", "product_id", id, "delta", req.Delta, "stock_count", product.StockCount)
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) AddImage(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.add_image")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "add_image_error", err.Error(), err)
	}
	var req transport.AddImageRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_image_error", "invalid body", err)
	}

	img, err := h.Svc.AddImage(ctx, id, req)
	if err != nil {
		return fail(l, "add_image_error", err)
	}
	return c.JSON(http.StatusCreated, img)
}

func (h *CatalogHTTP) DeleteImage(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.delete_image")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "delete_image_error", err.Error(), err)
	}
	if err := h.Svc.DeleteImage(ctx, id); err != nil {
		return fail(l, "delete_image_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHTTP) ListBrands(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.list_brands")

	brands, err := h.Svc.ListBrands(ctx)
	if err != nil {
		return fail(l, "list_brands_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": brands})
}

func (h *CatalogHTTP) GetBrand(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_brand")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "get_brand_error", err.Error(), err)
	}
	brand, err := h.Svc.GetBrand(ctx, id)
	if err != nil {
		return fail(l, "get_brand_error", err)
	}
	return c.JSON(http.StatusOK, brand)
}

func (h *CatalogHTTP) CreateBrand(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.create_brand")

	var req transport.BrandRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_brand_error", "invalid body", err)
	}
	brand, err := h.Svc.CreateBrand(ctx, req)
	if err != nil {
		return fail(l, "create_brand_error", err)
	}

	l.Info("create_brand_success", "brand_id", brand.ID)
	return c.JSON(http.StatusCreated, brand)
}

func (h *CatalogHTTP) PatchBrand(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.patch_brand")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "patch_brand_error", err.Error(), err)
	}
	var req transport.BrandRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "patch_brand_error", "invalid body", err)
	}
	brand, err := h.Svc.PatchBrand(ctx, id, req)
	if err != nil {
		return fail(l, "patch_brand_error", err)
	}
	return c.JSON(http.StatusOK, brand)
}

func (h *CatalogHTTP) DeleteBrand(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.delete_brand")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "delete_brand_error", err.Error(), err)
	}
	if err := h.Svc.DeleteBrand(ctx, id); err != nil {
		return fail(l, "delete_brand_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHTTP) ListCities(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.list_cities")

	cities, err := h.Svc.ListCities(ctx)
	if err != nil {
		return fail(l, "list_cities_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": cities})
}

func (h *CatalogHTTP) CreateCity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.create_city")

	var req transport.CityRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_city_error", "invalid body", err)
	}
	city, err := h.Svc.CreateCity(ctx, req)
	if err != nil {
		return fail(l, "create_city_error", err)
	}
	return c.JSON(http.StatusCreated, city)
}
