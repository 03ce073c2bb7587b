package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/phone_shop/internal/models"
)

var ProductSorts = map[string]SortSpec{
	"title":      {Table: "products", Column: "title"},
	"price":      {Table: "products", Column: "price"},
	"created_at": {Table: "products", Column: "created_at"},
	"release":    {Table: "products", Column: "release_date"},
}

var DefaultProductSort = SortSpec{Table: "products", Column: "id"}

type ProductFilter struct {
	BrandID  uint
	MinPrice *int64
	MaxPrice *int64
	InStock  bool
	Sort     SortSpec
	Offset   int
	Limit    int
}

func (r *GormRepo) withProductRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Brand").Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	})
}

func (r *GormRepo) ListProducts(ctx context.Context, f ProductFilter) (int64, []models.Product, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{})
	if f.BrandID != 0 {
		q = q.Where("brand_id = ?", f.BrandID)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.InStock {
		q = q.Where("stock_count > 0")
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Product, 0, f.Limit)
	if err := r.withProductRelations(q).
		Order(f.Sort.clause()).
		Order("products.id ASC").
		Offset(f.Offset).
		Limit(f.Limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.withProductRelations(r.DB.WithContext(ctx)).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductsByIDs returns the products in the order of ids, skipping unknown ones.
func (r *GormRepo) GetProductsByIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var found []models.Product
	if err := r.withProductRelations(r.DB.WithContext(ctx)).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]models.Product, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
			delete(byID, id)
		}
	}
	return out, nil
}

func (r *GormRepo) ProductTitleTaken(ctx context.Context, title string, exceptID uint) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("title = ? AND id <> ?", title, exceptID).
		Count(&n).Error
	return n > 0, err
}

func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

// UpdateProduct writes only the given columns.
func (r *GormRepo) UpdateProduct(ctx context.Context, id uint, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	res := r.DB.WithContext(ctx).Model(&models.Product{ID: id}).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("product", id)
	}
	return nil
}

// ProductReferenced reports whether order or delivery lines point at the product.
func (r *GormRepo) ProductReferenced(ctx context.Context, id uint) (bool, error) {
	db := r.DB.WithContext(ctx)
	var n int64
	if err := db.Model(&models.OrderLine{}).Where("product_id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}
	if err := db.Model(&models.DeliveryLine{}).Where("product_id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// ErrProductReferenced is returned when order or delivery lines point at the product.
var ErrProductReferenced = errors.New("product is referenced by orders or deliveries")

// DeleteProduct locks the product row before checking references, so an order
// placed concurrently either commits first and is seen, or finds the row gone.
func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&p, id).Error; err != nil {
			return err
		}
		referenced, err := r.WithTx(tx).ProductReferenced(ctx, id)
		if err != nil {
			return err
		}
		if referenced {
			return ErrProductReferenced
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductImage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.WishlistItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound("product", id)
		}
		return nil
	})
}

func (r *GormRepo) ProductExists(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// FirstProductImage returns the path of the oldest image of a product or "".
func (r *GormRepo) FirstProductImage(ctx context.Context, productID uint) (string, error) {
	var img models.ProductImage
	err := r.DB.WithContext(ctx).Where("product_id = ?", productID).Order("id ASC").Take(&img).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return img.Image, nil
}

func (r *GormRepo) AddProductImage(ctx context.Context, img *models.ProductImage) error {
	return r.DB.WithContext(ctx).Create(img).Error
}

// DeleteProductImage returns the product id the image belonged to.
func (r *GormRepo) DeleteProductImage(ctx context.Context, id uint) (uint, error) {
	var img models.ProductImage
	if err := r.DB.WithContext(ctx).First(&img, id).Error; err != nil {
		return 0, err
	}
	if err := r.DB.WithContext(ctx).Delete(&img).Error; err != nil {
		return 0, err
	}
	return img.ProductID, nil
}

type PriceRange struct {
	Min int64 `json:"min_price"`
	Max int64 `json:"max_price"`
}

func (r *GormRepo) PriceRange(ctx context.Context) (PriceRange, error) {
	var out struct {
		Min *int64
		Max *int64
	}
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).
		Select("MIN(price) AS min, MAX(price) AS max").
		Scan(&out).Error; err != nil {
		return PriceRange{}, err
	}
	var pr PriceRange
	if out.Min != nil {
		pr.Min = *out.Min
	}
	if out.Max != nil {
		pr.Max = *out.Max
	}
	return pr, nil
}

// SearchProducts is the database fallback used when no search index is configured.
func (r *GormRepo) SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
	where := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern).
		Session(&gorm.Session{})

	var total int64
	if err := where.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Product, 0, limit)
	if err := r.withProductRelations(where).
		Order("title ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) ListBrands(ctx context.Context) ([]models.Brand, error) {
	var brands []models.Brand
	if err := r.DB.WithContext(ctx).Order("title ASC").Find(&brands).Error; err != nil {
		return nil, err
	}
	return brands, nil
}

func (r *GormRepo) GetBrand(ctx context.Context, id uint) (*models.Brand, error) {
	var b models.Brand
	if err := r.DB.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *GormRepo) BrandTitleTaken(ctx context.Context, title string, exceptID uint) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Brand{}).
		Where("title = ? AND id <> ?", title, exceptID).
		Count(&n).Error
	return n > 0, err
}

func (r *GormRepo) CreateBrand(ctx context.Context, b *models.Brand) error {
	return r.DB.WithContext(ctx).Create(b).Error
}

func (r *GormRepo) RenameBrand(ctx context.Context, id uint, title string) (*models.Brand, error) {
	res := r.DB.WithContext(ctx).Model(&models.Brand{ID: id}).Update("title", title)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, notFound("brand", id)
	}
	return r.GetBrand(ctx, id)
}

func (r *GormRepo) CountBrandProducts(ctx context.Context, id uint) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Product{}).Where("brand_id = ?", id).Count(&n).Error
	return n, err
}

func (r *GormRepo) DeleteBrand(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Brand{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("brand", id)
	}
	return nil
}

func (r *GormRepo) ListCities(ctx context.Context) ([]models.City, error) {
	var cities []models.City
	if err := r.DB.WithContext(ctx).Order("name ASC").Find(&cities).Error; err != nil {
		return nil, err
	}
	return cities, nil
}

func (r *GormRepo) CityExists(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.City{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// CreateCity returns false when a city with the same name already exists.
func (r *GormRepo) CreateCity(ctx context.Context, c *models.City) (bool, error) {
	db := r.DB.WithContext(ctx)
	var n int64
	if err := db.Model(&models.City{}).Where("name = ?", c.Name).Count(&n).Error; err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if err := db.Create(c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
