package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Skotchmaster/phone_shop/internal/inventory"
	"github.com/Skotchmaster/phone_shop/internal/models"
	"github.com/Skotchmaster/phone_shop/internal/repo"
	"github.com/Skotchmaster/phone_shop/internal/transport"
	"github.com/Skotchmaster/phone_shop/pkg/events"
	"github.com/Skotchmaster/phone_shop/pkg/logging"
	"github.com/Skotchmaster/phone_shop/pkg/search"
)

type CatalogService struct {
	Repo   *repo.GormRepo
	Ledger *inventory.Ledger
	Cache  ProductCache
	Index  ProductIndex
	Events EventPublisher
}

type ProductListFilter struct {
	BrandID  uint
	MinPrice *int64
	MaxPrice *int64
	InStock  bool
	SortBy   string
	SortDir  string
	Offset   int
	Limit    int
}

func (s *CatalogService) GetProducts(ctx context.Context, f ProductListFilter) (int64, []models.Product, error) {
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return 0, nil, fmt.Errorf("%w: min_price greater than max_price", ErrValidation)
	}
	total, items, err := s.Repo.ListProducts(ctx, repo.ProductFilter{
		BrandID:  f.BrandID,
		MinPrice: f.MinPrice,
		MaxPrice: f.MaxPrice,
		InStock:  f.InStock,
		Sort:     repo.ResolveSort(repo.ProductSorts, f.SortBy, f.SortDir, repo.DefaultProductSort),
		Offset:   f.Offset,
		Limit:    f.Limit,
	})
	if err != nil {
		return 0, nil, storeErr("list products", err)
	}
	return total, items, nil
}

// GetProduct reads through the cache when one is configured.
func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	load := func(ctx context.Context) (*models.Product, error) {
		return s.Repo.GetProduct(ctx, id)
	}
	var (
		p   *models.Product
		err error
	)
	if s.Cache != nil {
		p, err = s.Cache.Product(ctx, id, load)
	} else {
		p, err = load(ctx)
	}
	if err != nil {
		return nil, storeErr(fmt.Sprintf("read product %d", id), err)
	}
	return p, nil
}

func (s *CatalogService) GetProductsByIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	if len(ids) > 100 {
		return nil, fmt.Errorf("%w: at most 100 ids", ErrValidation)
	}
	items, err := s.Repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, storeErr("read products", err)
	}
	return items, nil
}

// SearchProducts asks the search index for ids and loads the rows from the
// database. Without an index it falls back to a LIKE query.
func (s *CatalogService) SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return 0, []models.Product{}, nil
	}
	if s.Index != nil {
		total, ids, err := s.Index.SearchProducts(ctx, q, offset, limit)
		if err == nil {
			items, err := s.Repo.GetProductsByIDs(ctx, ids)
			if err != nil {
				return 0, nil, storeErr("read products", err)
			}
			return total, items, nil
		}
		logging.FromContext(ctx).Warn("search_index_failed", "reason", "falling back to database search", "error", err)
	}
	total, items, err := s.Repo.SearchProducts(ctx, q, offset, limit)
	if err != nil {
		return 0, nil, storeErr("search products", err)
	}
	return total, items, nil
}

type Filters struct {
	Brands []models.Brand `json:"brands"`
	repo.PriceRange
}

func (s *CatalogService) GetFilters(ctx context.Context) (*Filters, error) {
	brands, err := s.ListBrands(ctx)
	if err != nil {
		return nil, err
	}
	pr, err := s.Repo.PriceRange(ctx)
	if err != nil {
		return nil, storeErr("read price range", err)
	}
	return &Filters{Brands: brands, PriceRange: pr}, nil
}

// productFields is the part of a product that create and patch both check.
type productFields struct {
	Title            string `json:"title"             validate:"required,max=100"`
	Description      string `json:"description"       validate:"required,max=200"`
	BuiltInMemory    string `json:"built_in_memory"   validate:"max=20"`
	Price            int64  `json:"price"             validate:"gte=0"`
	Discount         int    `json:"discount"          validate:"gte=0,lte=100"`
	RecommendedPrice *int64 `json:"recommended_price" validate:"omitempty,gte=0"`
}

func fieldsOf(p *models.Product) productFields {
	return productFields{
		Title:            p.Title,
		Description:      p.Description,
		BuiltInMemory:    p.BuiltInMemory,
		Price:            p.Price,
		Discount:         p.Discount,
		RecommendedPrice: p.RecommendedPrice,
	}
}

func (s *CatalogService) ensureBrand(ctx context.Context, id uint) error {
	if id == 0 {
		return fmt.Errorf("%w: brand_id required", ErrValidation)
	}
	if _, err := s.Repo.GetBrand(ctx, id); err != nil {
		return storeErr(fmt.Sprintf("brand %d", id), err)
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	p := &models.Product{
		Title:            strings.TrimSpace(req.Title),
		Description:      strings.TrimSpace(req.Description),
		BrandID:          req.BrandID,
		DiagonalScreen:   req.DiagonalScreen,
		BuiltInMemory:    strings.TrimSpace(req.BuiltInMemory),
		Price:            req.Price,
		Discount:         req.Discount,
		RecommendedPrice: req.RecommendedPrice,
		Weight:           req.Weight,
		StockCount:       req.StockCount,
		ReleaseDate:      req.ReleaseDate,
	}
	if err := checkStruct(fieldsOf(p)); err != nil {
		return nil, err
	}
	if req.StockCount < 0 {
		return nil, fmt.Errorf("%w: stock_count must be >= 0", ErrValidation)
	}
	if err := s.ensureBrand(ctx, req.BrandID); err != nil {
		return nil, err
	}
	taken, err := s.Repo.ProductTitleTaken(ctx, p.Title, 0)
	if err != nil {
		return nil, storeErr("check product title", err)
	}
	if taken {
		return nil, fmt.Errorf("%w: product %q already exists", ErrConflict, p.Title)
	}

	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, storeErr("insert product", err)
	}

	created, err := s.Repo.GetProduct(ctx, p.ID)
	if err != nil {
		return nil, storeErr("read product", err)
	}
	s.reindex(ctx, created)
	s.publishProduct(ctx, "product_created", created)
	return created, nil
}

// PatchProduct applies only the fields present in req.
func (s *CatalogService) PatchProduct(ctx context.Context, id uint, req transport.PatchProductRequest) (*models.Product, error) {
	current, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, storeErr(fmt.Sprintf("read product %d", id), err)
	}

	next := *current
	fields := map[string]any{}
	if req.Title != nil {
		next.Title = strings.TrimSpace(*req.Title)
		fields["title"] = next.Title
	}
	if req.Description != nil {
		next.Description = strings.TrimSpace(*req.Description)
		fields["description"] = next.Description
	}
	if req.BrandID != nil {
		if err := s.ensureBrand(ctx, *req.BrandID); err != nil {
			return nil, err
		}
		fields["brand_id"] = *req.BrandID
	}
	if req.DiagonalScreen != nil {
		fields["diagonal_screen"] = *req.DiagonalScreen
	}
	if req.BuiltInMemory != nil {
		next.BuiltInMemory = strings.TrimSpace(*req.BuiltInMemory)
		fields["built_in_memory"] = next.BuiltInMemory
	}
	if req.Price != nil {
		next.Price = *req.Price
		fields["price"] = next.Price
	}
	if req.Discount != nil {
		next.Discount = *req.Discount
		fields["discount"] = next.Discount
	}
	if req.RecommendedPrice != nil {
		next.RecommendedPrice = req.RecommendedPrice
		fields["recommended_price"] = *req.RecommendedPrice
	}
	if req.Weight != nil {
		fields["weight"] = *req.Weight
	}
	if req.ReleaseDate != nil {
		fields["release_date"] = *req.ReleaseDate
	}

	if err := checkStruct(fieldsOf(&next)); err != nil {
		return nil, err
	}
	if req.Title != nil {
		taken, err := s.Repo.ProductTitleTaken(ctx, next.Title, id)
		if err != nil {
			return nil, storeErr("check product title", err)
		}
		if taken {
			return nil, fmt.Errorf("%w: product %q already exists", ErrConflict, next.Title)
		}
	}

	if err := s.Repo.UpdateProduct(ctx, id, fields); err != nil {
		return nil, storeErr("update product", err)
	}
	updated, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, storeErr("read product", err)
	}

	s.invalidate(ctx, id)
	s.reindex(ctx, updated)
	s.publishProduct(ctx, "product_updated", updated)
	return updated, nil
}

// DeleteProduct refuses to drop products that order or delivery history points at.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, repo.ErrProductReferenced) {
			return fmt.Errorf("%w: product %d: %w", ErrConflict, id, err)
		}
		return storeErr(fmt.Sprintf("delete product %d", id), err)
	}

	s.invalidate(ctx, id)
	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("search_delete_failed", "product_id", id, "error", err)
		}
	}
	publish(ctx, s.Events, events.TopicProductEvents, strconv.FormatUint(uint64(id), 10), map[string]any{
		"type":       "product_deleted",
		"product_id": id,
	})
	return nil
}

// AdjustStock is the manual stock correction. It goes through the ledger like
// every other stock change.
func (s *CatalogService) AdjustStock(ctx context.Context, id uint, delta int64) (*models.Product, error) {
	if delta == 0 {
		return nil, fmt.Errorf("%w: delta must not be zero", ErrValidation)
	}
	p, err := s.Ledger.Adjust(ctx, id, delta)
	if err != nil {
		return nil, ledgerErr(err)
	}
	s.ProductsChanged(ctx, id)
	publish(ctx, s.Events, events.TopicStockEvents, strconv.FormatUint(uint64(id), 10), map[string]any{
		"type":        "stock_adjusted",
		"product_id":  id,
		"delta":       delta,
		"stock_count": p.StockCount,
	})
	return s.GetProduct(ctx, id)
}

func (s *CatalogService) AddImage(ctx context.Context, productID uint, req transport.AddImageRequest) (*models.ProductImage, error) {
	req.Title, req.Image = strings.TrimSpace(req.Title), strings.TrimSpace(req.Image)
	if err := checkStruct(req); err != nil {
		return nil, err
	}
	ok, err := s.Repo.ProductExists(ctx, productID)
	if err != nil {
		return nil, storeErr("check product", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: product %d", ErrNotFound, productID)
	}
	img := &models.ProductImage{ProductID: productID, Title: req.Title, Image: req.Image}
	if err := s.Repo.AddProductImage(ctx, img); err != nil {
		return nil, storeErr("insert image", err)
	}
	s.invalidate(ctx, productID)
	return img, nil
}

func (s *CatalogService) DeleteImage(ctx context.Context, imageID uint) error {
	productID, err := s.Repo.DeleteProductImage(ctx, imageID)
	if err != nil {
		return storeErr(fmt.Sprintf("delete image %d", imageID), err)
	}
	s.invalidate(ctx, productID)
	return nil
}

// ProductsChanged refreshes derived copies of products after their rows
// changed in the database. Safe to call on a nil service.
func (s *CatalogService) ProductsChanged(ctx context.Context, ids ...uint) {
	if s == nil || len(ids) == 0 {
		return
	}
	s.invalidate(ctx, ids...)
	if s.Index == nil {
		return
	}
	products, err := s.Repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		logging.FromContext(ctx).Warn("reindex_products_failed", "error", err)
		return
	}
	for i := range products {
		s.reindex(ctx, &products[i])
	}
}

func (s *CatalogService) invalidate(ctx context.Context, ids ...uint) {
	if s.Cache != nil {
		s.Cache.InvalidateProducts(ctx, ids...)
	}
}

func (s *CatalogService) reindex(ctx context.Context, p *models.Product) {
	if s.Index == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()
	if err := s.Index.IndexProduct(ctx, ProductDocument(p)); err != nil {
		logging.FromContext(ctx).Warn("search_index_failed", "product_id", p.ID, "error", err)
	}
}

func (s *CatalogService) publishProduct(ctx context.Context, eventType string, p *models.Product) {
	publish(ctx, s.Events, events.TopicProductEvents, strconv.FormatUint(uint64(p.ID), 10), map[string]any{
		"type":       eventType,
		"product_id": p.ID,
		"title":      p.Title,
		"price":      p.Price,
		"discount":   p.Discount,
	})
}

func ProductDocument(p *models.Product) search.ProductDocument {
	doc := search.ProductDocument{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Price:       EffectivePrice(p.Price, p.Discount),
		Discount:    p.Discount,
		StockCount:  p.StockCount,
	}
	if p.Brand != nil {
		doc.Brand = p.Brand.Title
	}
	return doc
}

func (s *CatalogService) ListBrands(ctx context.Context) ([]models.Brand, error) {
	load := s.Repo.ListBrands
	var (
		brands []models.Brand
		err    error
	)
	if s.Cache != nil {
		brands, err = s.Cache.Brands(ctx, load)
	} else {
		brands, err = load(ctx)
	}
	if err != nil {
		return nil, storeErr("list brands", err)
	}
	return brands, nil
}

func (s *CatalogService) GetBrand(ctx context.Context, id uint) (*models.Brand, error) {
	b, err := s.Repo.GetBrand(ctx, id)
	if err != nil {
		return nil, storeErr(fmt.Sprintf("read brand %d", id), err)
	}
	return b, nil
}

func validateBrandTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if err := checkVar("title", title, "required,max=100"); err != nil {
		return "", err
	}
	return title, nil
}

func (s *CatalogService) CreateBrand(ctx context.Context, req transport.BrandRequest) (*models.Brand, error) {
	title, err := validateBrandTitle(req.Title)
	if err != nil {
		return nil, err
	}
	taken, err := s.Repo.BrandTitleTaken(ctx, title, 0)
	if err != nil {
		return nil, storeErr("check brand title", err)
	}
	if taken {
		return nil, fmt.Errorf("%w: brand %q already exists", ErrConflict, title)
	}
	b := &models.Brand{Title: title}
	if err := s.Repo.CreateBrand(ctx, b); err != nil {
		return nil, storeErr("insert brand", err)
	}
	s.invalidateBrands(ctx)
	return b, nil
}

func (s *CatalogService) PatchBrand(ctx context.Context, id uint, req transport.BrandRequest) (*models.Brand, error) {
	title, err := validateBrandTitle(req.Title)
	if err != nil {
		return nil, err
	}
	taken, err := s.Repo.BrandTitleTaken(ctx, title, id)
	if err != nil {
		return nil, storeErr("check brand title", err)
	}
	if taken {
		return nil, fmt.Errorf("%w: brand %q already exists", ErrConflict, title)
	}
	b, err := s.Repo.RenameBrand(ctx, id, title)
	if err != nil {
		return nil, storeErr(fmt.Sprintf("update brand %d", id), err)
	}
	s.invalidateBrands(ctx)
	return b, nil
}

func (s *CatalogService) DeleteBrand(ctx context.Context, id uint) error {
	n, err := s.Repo.CountBrandProducts(ctx, id)
	if err != nil {
		return storeErr("count brand products", err)
	}
	if n > 0 {
		return fmt.Errorf("%w: brand %d still has %d products", ErrConflict, id, n)
	}
	if err := s.Repo.DeleteBrand(ctx, id); err != nil {
		return storeErr(fmt.Sprintf("delete brand %d", id), err)
	}
	s.invalidateBrands(ctx)
	return nil
}

func (s *CatalogService) invalidateBrands(ctx context.Context) {
	if s.Cache != nil {
		s.Cache.InvalidateBrands(ctx)
	}
}

func (s *CatalogService) ListCities(ctx context.Context) ([]models.City, error) {
	cities, err := s.Repo.ListCities(ctx)
	if err != nil {
		return nil, storeErr("list cities", err)
	}
	return cities, nil
}

func (s *CatalogService) CreateCity(ctx context.Context, req transport.CityRequest) (*models.City, error) {
	name := strings.TrimSpace(req.Name)
	if err := checkVar("name", name, "required,max=100"); err != nil {
		return nil, err
	}
	city := &models.City{Name: name}
	created, err := s.Repo.CreateCity(ctx, city)
	if err != nil {
		return nil, storeErr("insert city", err)
	}
	if !created {
		return nil, fmt.Errorf("%w: city %q already exists", ErrConflict, name)
	}
	return city, nil
}
