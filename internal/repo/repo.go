package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/phone_shop/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

// WithTx returns a repo whose queries run inside tx.
func (r *GormRepo) WithTx(tx *gorm.DB) *GormRepo {
	return &GormRepo{DB: tx}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.City{},
		&models.Address{},
		&models.Brand{},
		&models.Product{},
		&models.ProductImage{},
		&models.User{},
		&models.Order{},
		&models.OrderLine{},
		&models.Comment{},
		&models.WishlistItem{},
		&models.Vendor{},
		&models.Delivery{},
		&models.DeliveryLine{},
	)
}

// SeedCities inserts the given city names, skipping existing ones.
func SeedCities(ctx context.Context, db *gorm.DB, names []string) error {
	cities := make([]models.City, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			cities = append(cities, models.City{Name: n})
		}
	}
	if len(cities) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&cities).Error
}

// SortSpec is an allow-listed ORDER BY column.
type SortSpec struct {
	Table  string
	Column string
	Desc   bool
}

func (s SortSpec) clause() string {
	col := pq.QuoteIdentifier(s.Column)
	if s.Table != "" {
		col = pq.QuoteIdentifier(s.Table) + "." + col
	}
	if s.Desc {
		return col + " DESC"
	}
	return col + " ASC"
}

// ResolveSort maps a user supplied sort key through an allow-list.
// Unknown keys fall back to def.
func ResolveSort(allowed map[string]SortSpec, key, dir string, def SortSpec) SortSpec {
	s, ok := allowed[key]
	if !ok {
		s = def
	}
	switch strings.ToLower(dir) {
	case "desc":
		s.Desc = true
	case "asc":
		s.Desc = false
	}
	return s
}

func notFound(what string, id uint) error {
	return fmt.Errorf("%s %d: %w", what, id, gorm.ErrRecordNotFound)
}
