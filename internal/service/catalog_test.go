package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/phone_shop/internal/inventory"
	"github.com/Skotchmaster/phone_shop/internal/models"
	"github.com/Skotchmaster/phone_shop/internal/repo"
	"github.com/Skotchmaster/phone_shop/internal/transport"
)

func ptr[T any](v T) *T { return &v }

func TestCreateProduct(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	brand := e.fx.Brand("Google")

	p, err := e.catalog.CreateProduct(ctx, transport.CreateProductRequest{
		Title:       " Pixel 9 ",
		Description: "Phone",
		BrandID:     brand.ID,
		Price:       70000,
		Discount:    10,
		StockCount:  4,
	})
	require.NoError(t, err)
	assert.Equal(t, "Pixel 9", p.Title)
	require.NotNil(t, p.Brand)
	assert.Equal(t, "Google", p.Brand.Title)
	assert.EqualValues(t, 4, p.StockCount)

	doc, ok := e.index.docs[p.ID]
	require.True(t, ok)
	assert.Equal(t, "Google", doc.Brand)
	assert.EqualValues(t, 63000, doc.Price)
	assert.Contains(t, e.events.types(), "product_created")

	_, err = e.catalog.CreateProduct(ctx, transport.CreateProductRequest{Title: "Pixel 9", Description: "dup", BrandID: brand.ID})
	require.ErrorIs(t, err, ErrConflict)
}

func TestCreateProductValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	brand := e.fx.Brand("Google")

	cases := map[string]transport.CreateProductRequest{
		"no title":          {Description: "d", BrandID: brand.ID},
		"no description":    {Title: "t", BrandID: brand.ID},
		"negative price":    {Title: "t", Description: "d", BrandID: brand.ID, Price: -1},
		"discount over 100": {Title: "t", Description: "d", BrandID: brand.ID, Discount: 101},
		"negative discount": {Title: "t", Description: "d", BrandID: brand.ID, Discount: -5},
		"negative stock":    {Title: "t", Description: "d", BrandID: brand.ID, StockCount: -1},
		"no brand":          {Title: "t", Description: "d"},
		"bad recommended":   {Title: "t", Description: "d", BrandID: brand.ID, RecommendedPrice: ptr(int64(-3))},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := e.catalog.CreateProduct(ctx, req)
			require.ErrorIs(t, err, ErrValidation)
		})
	}

	_, err := e.catalog.CreateProduct(ctx, transport.CreateProductRequest{Title: "t", Description: "d", BrandID: 999})
	require.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, e.fx.Count(&models.Product{}))
}

func TestPatchProductLeavesStockAlone(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.fx.Product(models.Product{Title: "P", Price: 100, StockCount: 7})

	updated, err := e.catalog.PatchProduct(ctx, p.ID, transport.PatchProductRequest{
		Price:    ptr(int64(200)),
		Discount: ptr(25),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 200, updated.Price)
	assert.Equal(t, 25, updated.Discount)
	assert.Equal(t, "P", updated.Title)
	assert.EqualValues(t, 7, updated.StockCount)
	assert.EqualValues(t, 150, e.index.docs[p.ID].Price)

	_, err = e.catalog.PatchProduct(ctx, p.ID, transport.PatchProductRequest{Discount: ptr(150)})
	require.ErrorIs(t, err, ErrValidation)

	_, err = e.catalog.PatchProduct(ctx, 999, transport.PatchProductRequest{Price: ptr(int64(1))})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPatchProductTitleConflict(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.fx.Product(models.Product{Title: "A", Price: 1})
	e.fx.Product(models.Product{Title: "B", Price: 1})

	_, err := e.catalog.PatchProduct(ctx, a.ID, transport.PatchProductRequest{Title: ptr("B")})
	require.ErrorIs(t, err, ErrConflict)

	same, err := e.catalog.PatchProduct(ctx, a.ID, transport.PatchProductRequest{Title: ptr("A")})
	require.NoError(t, err)
	assert.Equal(t, "A", same.Title)
}

func TestDeleteProduct(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user := e.fx.User("anna", "user")
	free := e.fx.Product(models.Product{Title: "Free", Price: 100, StockCount: 3})
	e.fx.Image(free.ID, "/media/free.jpg")
	_, err := e.wishlist.Add(ctx, user.ID, free.ID)
	require.NoError(t, err)
	_, err = e.comments.CreateComment(ctx, user.ID, transport.CommentRequest{ProductID: free.ID, Text: "nice"})
	require.NoError(t, err)
	e.catalog.ProductsChanged(ctx, free.ID)

	sold := e.fx.Product(models.Product{Title: "Sold", Price: 100, StockCount: 3})
	_, err = e.orders.PlaceOrder(ctx, e.placeInput(Registered(user.ID), item(sold.ID, 1)))
	require.NoError(t, err)

	require.NoError(t, e.catalog.DeleteProduct(ctx, free.ID))
	assert.Zero(t, e.fx.Count(&models.ProductImage{}))
	assert.Zero(t, e.fx.Count(&models.WishlistItem{}))
	assert.Zero(t, e.fx.Count(&models.Comment{}))
	assert.NotContains(t, e.index.docs, free.ID)
	assert.Contains(t, e.events.types(), "product_deleted")

	err = e.catalog.DeleteProduct(ctx, sold.ID)
	require.ErrorIs(t, err, ErrConflict)
	assert.EqualValues(t, 2, e.fx.Stock(sold.ID))

	require.ErrorIs(t, e.catalog.DeleteProduct(ctx, 999), ErrNotFound)
}

func TestDeleteProductWithStoredOrderLine(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.fx.Product(models.Product{Title: "P", Price: 100, StockCount: 1})
	e.fx.OrderLine(p.ID, 100, 1)

	err := e.catalog.DeleteProduct(ctx, p.ID)
	require.ErrorIs(t, err, ErrConflict)
	require.ErrorIs(t, err, repo.ErrProductReferenced)
	assert.EqualValues(t, 1, e.fx.Count(&models.Product{}))
	assert.NotContains(t, e.events.types(), "product_deleted")
}

func TestStoreErrMapsConstraintViolations(t *testing.T) {
	assert.ErrorIs(t, storeErr("delete", gorm.ErrForeignKeyViolated), ErrConflict)
	assert.ErrorIs(t, storeErr("insert", gorm.ErrDuplicatedKey), ErrConflict)
	assert.ErrorIs(t, storeErr("read", gorm.ErrRecordNotFound), ErrNotFound)
	assert.NotErrorIs(t, storeErr("read", errors.New("boom")), ErrConflict)
	assert.NoError(t, storeErr("noop", nil))
}

func TestAdjustStock(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.fx.Product(models.Product{Title: "P", Price: 100, StockCount: 2})

	got, err := e.catalog.AdjustStock(ctx, p.ID, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 7, got.StockCount)
	assert.EqualValues(t, 7, e.index.docs[p.ID].StockCount)

	_, err = e.catalog.AdjustStock(ctx, p.ID, -8)
	se, ok := inventory.AsInsufficientStock(err)
	require.True(t, ok)
	assert.EqualValues(t, 8, se.Requested)
	assert.EqualValues(t, 7, se.Available)
	assert.EqualValues(t, 7, e.fx.Stock(p.ID))

	_, err = e.catalog.AdjustStock(ctx, p.ID, 0)
	require.ErrorIs(t, err, ErrValidation)

	_, err = e.catalog.AdjustStock(ctx, 999, 1)
	require.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{"stock_adjusted"}, e.events.types())
}

func TestGetProductsSortAndFilter(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	brand := e.fx.Brand("Apple")
	cheap := e.fx.Product(models.Product{Title: "C", Price: 100, StockCount: 0, BrandID: brand.ID})
	mid := e.fx.Product(models.Product{Title: "A", Price: 500, StockCount: 3, BrandID: brand.ID})
	pricey := e.fx.Product(models.Product{Title: "B", Price: 900, StockCount: 1})

	total, items, err := e.catalog.GetProducts(ctx, ProductListFilter{SortBy: "price", SortDir: "desc", Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, items, 3)
	assert.Equal(t, []uint{pricey.ID, mid.ID, cheap.ID}, []uint{items[0].ID, items[1].ID, items[2].ID})

	_, items, err = e.catalog.GetProducts(ctx, ProductListFilter{SortBy: "title", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, "A", items[0].Title)

	_, items, err = e.catalog.GetProducts(ctx, ProductListFilter{SortBy: "1; DROP TABLE products", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, cheap.ID, items[0].ID)

	total, items, err = e.catalog.GetProducts(ctx, ProductListFilter{BrandID: brand.ID, InStock: true, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, mid.ID, items[0].ID)

	total, _, err = e.catalog.GetProducts(ctx, ProductListFilter{MinPrice: ptr(int64(200)), MaxPrice: ptr(int64(900)), Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	_, _, err = e.catalog.GetProducts(ctx, ProductListFilter{MinPrice: ptr(int64(900)), MaxPrice: ptr(int64(100)), Limit: 10})
	require.ErrorIs(t, err, ErrValidation)
}

func TestGetProductsByIDsKeepsOrder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.fx.Product(models.Product{Title: "A", Price: 1})
	b := e.fx.Product(models.Product{Title: "B", Price: 1})

	items, err := e.catalog.GetProductsByIDs(ctx, []uint{b.ID, 999, a.ID})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, b.ID, items[0].ID)
	assert.Equal(t, a.ID, items[1].ID)

	_, err = e.catalog.GetProductsByIDs(ctx, make([]uint, 101))
	require.ErrorIs(t, err, ErrValidation)
}

func TestSearchProducts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	pixel := e.fx.Product(models.Product{Title: "Pixel 9", Price: 1})
	e.fx.Product(models.Product{Title: "iPhone 16", Price: 1})
	e.catalog.ProductsChanged(ctx, pixel.ID)

	total, items, err := e.catalog.SearchProducts(ctx, "pixel", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, pixel.ID, items[0].ID)

	// iPhone was never indexed, the database fallback still finds it.
	e.index.err = errors.New("cluster down")
	total, items, err = e.catalog.SearchProducts(ctx, "IPHONE", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "iPhone 16", items[0].Title)

	e.catalog.Index = nil
	total, _, err = e.catalog.SearchProducts(ctx, "description", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	total, items, err = e.catalog.SearchProducts(ctx, "  ", 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
}

func TestGetFilters(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	empty, err := e.catalog.GetFilters(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.Brands)
	assert.Zero(t, empty.Min)

	e.fx.Product(models.Product{Title: "A", Price: 300})
	e.fx.Product(models.Product{Title: "B", Price: 1200})

	f, err := e.catalog.GetFilters(ctx)
	require.NoError(t, err)
	assert.Len(t, f.Brands, 2)
	assert.EqualValues(t, 300, f.Min)
	assert.EqualValues(t, 1200, f.Max)
}

func TestImages(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.fx.Product(models.Product{Title: "P", Price: 1})

	img, err := e.catalog.AddImage(ctx, p.ID, transport.AddImageRequest{Title: "front", Image: "/media/front.jpg"})
	require.NoError(t, err)

	got, err := e.catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Images, 1)

	_, err = e.catalog.AddImage(ctx, 999, transport.AddImageRequest{Title: "x", Image: "/x.jpg"})
	require.ErrorIs(t, err, ErrNotFound)
	_, err = e.catalog.AddImage(ctx, p.ID, transport.AddImageRequest{Title: "x"})
	require.ErrorIs(t, err, ErrValidation)

	require.NoError(t, e.catalog.DeleteImage(ctx, img.ID))
	require.ErrorIs(t, e.catalog.DeleteImage(ctx, img.ID), ErrNotFound)
}

func TestBrands(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	b, err := e.catalog.CreateBrand(ctx, transport.BrandRequest{Title: "Nokia"})
	require.NoError(t, err)
	_, err = e.catalog.CreateBrand(ctx, transport.BrandRequest{Title: "Nokia"})
	require.ErrorIs(t, err, ErrConflict)
	_, err = e.catalog.CreateBrand(ctx, transport.BrandRequest{Title: " "})
	require.ErrorIs(t, err, ErrValidation)

	renamed, err := e.catalog.PatchBrand(ctx, b.ID, transport.BrandRequest{Title: "HMD"})
	require.NoError(t, err)
	assert.Equal(t, "HMD", renamed.Title)

	e.fx.Product(models.Product{Title: "3310", Price: 1, BrandID: b.ID})
	require.ErrorIs(t, e.catalog.DeleteBrand(ctx, b.ID), ErrConflict)

	other, err := e.catalog.CreateBrand(ctx, transport.BrandRequest{Title: "Empty"})
	require.NoError(t, err)
	require.NoError(t, e.catalog.DeleteBrand(ctx, other.ID))
	require.ErrorIs(t, e.catalog.DeleteBrand(ctx, other.ID), ErrNotFound)

	brands, err := e.catalog.ListBrands(ctx)
	require.NoError(t, err)
	require.Len(t, brands, 1)
	assert.Equal(t, "HMD", brands[0].Title)
}

func TestCities(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	c, err := e.catalog.CreateCity(ctx, transport.CityRequest{Name: "Kazan"})
	require.NoError(t, err)
	assert.NotZero(t, c.ID)

	_, err = e.catalog.CreateCity(ctx, transport.CityRequest{Name: "Moscow"})
	require.ErrorIs(t, err, ErrConflict)
	_, err = e.catalog.CreateCity(ctx, transport.CityRequest{})
	require.ErrorIs(t, err, ErrValidation)

	cities, err := e.catalog.ListCities(ctx)
	require.NoError(t, err)
	require.Len(t, cities, 2)
	assert.Equal(t, "Kazan", cities[0].Name)
}
