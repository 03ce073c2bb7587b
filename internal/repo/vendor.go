package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/phone_shop/internal/models"
)

var VendorSorts = map[string]SortSpec{
	"first_name":       {Table: "vendors", Column: "first_name"},
	"surname":          {Table: "vendors", Column: "surname"},
	"created_at":       {Table: "vendors", Column: "created_at"},
	"count_deliveries": {Column: "count_deliveries"},
}

var DefaultVendorSort = SortSpec{Table: "vendors", Column: "id"}

type VendorView struct {
	models.Vendor
	CountDeliveries int64 `json:"count_deliveries"`
}

func (r *GormRepo) ListVendors(ctx context.Context, sort SortSpec) ([]VendorView, error) {
	views := make([]VendorView, 0)
	err := r.DB.WithContext(ctx).
		Table("vendors").
		Select("vendors.*, COUNT(deliveries.id) AS count_deliveries").
		Joins("LEFT JOIN deliveries ON deliveries.vendor_id = vendors.id").
		Group("vendors.id").
		Order(sort.clause()).
		Order("vendors.id ASC").
		Scan(&views).Error
	if err != nil {
		return nil, err
	}
	return views, nil
}

func (r *GormRepo) GetVendor(ctx context.Context, id uint) (*models.Vendor, error) {
	var v models.Vendor
	if err := r.DB.WithContext(ctx).First(&v, id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *GormRepo) CreateVendor(ctx context.Context, v *models.Vendor) error {
	return r.DB.WithContext(ctx).Create(v).Error
}

func (r *GormRepo) UpdateVendor(ctx context.Context, id uint, fields map[string]any) (*models.Vendor, error) {
	if len(fields) > 0 {
		res := r.DB.WithContext(ctx).Model(&models.Vendor{ID: id}).Updates(fields)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, notFound("vendor", id)
		}
	}
	return r.GetVendor(ctx, id)
}

func (r *GormRepo) CountVendorDeliveries(ctx context.Context, vendorID uint) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Delivery{}).Where("vendor_id = ?", vendorID).Count(&n).Error
	return n, err
}

func (r *GormRepo) DeleteVendor(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Vendor{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("vendor", id)
	}
	return nil
}

func (r *GormRepo) withDeliveryRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Vendor").Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	})
}

func (r *GormRepo) ListDeliveries(ctx context.Context, vendorID uint) ([]models.Delivery, error) {
	q := r.DB.WithContext(ctx)
	if vendorID != 0 {
		q = q.Where("vendor_id = ?", vendorID)
	}
	deliveries := make([]models.Delivery, 0)
	if err := r.withDeliveryRelations(q).Order("created_at DESC").Order("id DESC").Find(&deliveries).Error; err != nil {
		return nil, err
	}
	return deliveries, nil
}

func (r *GormRepo) GetDelivery(ctx context.Context, id uint) (*models.Delivery, error) {
	var d models.Delivery
	if err := r.withDeliveryRelations(r.DB.WithContext(ctx)).First(&d, id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *GormRepo) CreateDelivery(ctx context.Context, d *models.Delivery, lines []models.DeliveryLine) error {
	db := r.DB.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(d).Error; err != nil {
		return err
	}
	for i := range lines {
		lines[i].DeliveryID = d.ID
	}
	if len(lines) > 0 {
		if err := db.Create(&lines).Error; err != nil {
			return err
		}
	}
	d.Lines = lines
	return nil
}

func (r *GormRepo) UpdateDeliveryPrice(ctx context.Context, id uint, price int64) error {
	res := r.DB.WithContext(ctx).Model(&models.Delivery{ID: id}).Update("delivery_price", price)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("delivery", id)
	}
	return nil
}

// LockDeliveryLine reads a line with FOR UPDATE where the dialect supports it.
func (r *GormRepo) LockDeliveryLine(ctx context.Context, id uint) (*models.DeliveryLine, error) {
	var line models.DeliveryLine
	if err := r.DB.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&line, id).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *GormRepo) UpdateDeliveryLine(ctx context.Context, id uint, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Model(&models.DeliveryLine{ID: id}).Updates(fields).Error
}

func (r *GormRepo) DeleteDelivery(ctx context.Context, id uint) error {
	db := r.DB.WithContext(ctx)
	if err := db.Where("delivery_id = ?", id).Delete(&models.DeliveryLine{}).Error; err != nil {
		return err
	}
	res := db.Delete(&models.Delivery{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("delivery", id)
	}
	return nil
}
