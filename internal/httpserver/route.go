package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/phone_shop/pkg/authclient"
	"github.com/Skotchmaster/phone_shop/pkg/logging"
	middleware "github.com/Skotchmaster/phone_shop/pkg/middleware/auth"
)

type Deps struct {
	CatalogHandler  *CatalogHTTP
	OrderHandler    *OrderHTTP
	UserHandler     *UserHTTP
	CommentHandler  *CommentHTTP
	WishlistHandler *WishlistHTTP
	VendorHandler   *VendorHTTP
	JWTSecret       []byte
	AuthClient      *authclient.Client
	// Ready reports whether the backing stores answer. Nil means always ready.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				logging.FromContext(c.Request().Context()).Warn("not_ready", "error", err)
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})

	authMW := middleware.NewAutoRefreshMiddleware(d.JWTSecret, d.AuthClient)
	api := e.Group("/api/v1")

	products := api.Group("/products")
	products.GET("", d.CatalogHandler.GetProducts)
	products.GET("/by-ids", d.CatalogHandler.GetProductsByIDs)
	products.GET("/search", d.CatalogHandler.SearchProducts)
	products.GET("/filters", d.CatalogHandler.GetFilters)
	products.GET("/:id", d.CatalogHandler.GetProduct)
	adminProducts := products.Group("", authMW.RequireAdmin)
	adminProducts.POST("", d.CatalogHandler.CreateProduct)
	adminProducts.PATCH("/:id", d.CatalogHandler.PatchProduct)
	adminProducts.DELETE("/:id", d.CatalogHandler.DeleteProduct)
	adminProducts.POST("/:id/stock", d.CatalogHandler.AdjustStock)
	adminProducts.POST("/:id/images", d.CatalogHandler.AddImage)
	adminProducts.DELETE("/images/:id", d.CatalogHandler.DeleteImage)

	brands := api.Group("/brands")
	brands.GET("", d.CatalogHandler.ListBrands)
	brands.GET("/:id", d.CatalogHandler.GetBrand)
	adminBrands := brands.Group("", authMW.RequireAdmin)
	adminBrands.POST("", d.CatalogHandler.CreateBrand)
	adminBrands.PATCH("/:id", d.CatalogHandler.PatchBrand)
	adminBrands.DELETE("/:id", d.CatalogHandler.DeleteBrand)

	cities := api.Group("/cities")
	cities.GET("", d.CatalogHandler.ListCities)
	cities.POST("", d.CatalogHandler.CreateCity, authMW.RequireAdmin)

	users := api.Group("/users")
	users.POST("", d.UserHandler.Register)
	users.GET("/self", d.UserHandler.GetSelf, authMW.RequireAuth)
	users.PATCH("/self", d.UserHandler.PatchSelf, authMW.RequireAuth)
	adminUsers := users.Group("", authMW.RequireAdmin)
	adminUsers.GET("", d.UserHandler.ListUsers)
	adminUsers.GET("/:id", d.UserHandler.GetUser)
	adminUsers.PATCH("/:id", d.UserHandler.PatchUser)
	adminUsers.DELETE("/:id", d.UserHandler.DeleteUser)

	orders := api.Group("/orders")
	orders.POST("", d.OrderHandler.CreateOrder, authMW.OptionalAuth)
	orders.GET("/self", d.OrderHandler.ListMyOrders, authMW.RequireAuth)
	orders.GET("/:id", d.OrderHandler.GetOrder, authMW.RequireAuth)
	orders.PATCH("/:id/status", d.OrderHandler.ChangeStatus, authMW.RequireAuth)
	orders.GET("", d.OrderHandler.ListOrders, authMW.RequireAdmin)
	orders.PATCH("/:id", d.OrderHandler.PatchOrder, authMW.RequireAdmin)

	comments := api.Group("/comments")
	comments.GET("", d.CommentHandler.ListComments)
	comments.POST("", d.CommentHandler.CreateComment, authMW.RequireAuth)
	comments.PATCH("/:id", d.CommentHandler.PatchComment, authMW.RequireAuth)
	comments.DELETE("/:id", d.CommentHandler.DeleteComment, authMW.RequireAuth)

	wishlist := api.Group("/wish_list", authMW.RequireAuth)
	wishlist.GET("", d.WishlistHandler.List)
	wishlist.POST("/:product_id", d.WishlistHandler.Add)
	wishlist.DELETE("/:product_id", d.WishlistHandler.Remove)

	vendors := api.Group("/vendors", authMW.RequireAdmin)
	vendors.GET("", d.VendorHandler.ListVendors)
	vendors.POST("", d.VendorHandler.CreateVendor)
	vendors.GET("/:id", d.VendorHandler.GetVendor)
	vendors.PATCH("/:id", d.VendorHandler.PatchVendor)
	vendors.DELETE("/:id", d.VendorHandler.DeleteVendor)

	deliveries := api.Group("/deliveries", authMW.RequireAdmin)
	deliveries.GET("", d.VendorHandler.ListDeliveries)
	deliveries.POST("", d.VendorHandler.CreateDelivery)
	deliveries.GET("/:id", d.VendorHandler.GetDelivery)
	deliveries.PATCH("/:id", d.VendorHandler.PatchDelivery)
	deliveries.DELETE("/:id", d.VendorHandler.DeleteDelivery)
	deliveries.PATCH("/lines/:id", d.VendorHandler.PatchDeliveryLine)
}
