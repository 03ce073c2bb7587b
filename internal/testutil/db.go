// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/Skotchmaster/phone_shop/internal/models"
	"github.com/Skotchmaster/phone_shop/internal/repo"
	pkgdb "github.com/Skotchmaster/phone_shop/pkg/db"
)

// NewDB opens a migrated in-memory sqlite database. The pool is limited to one
// connection so every query sees the same in-memory database.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), pkgdb.GormConfig())
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := repo.Migrate(db); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

type Fixtures struct {
	T  testing.TB
	DB *gorm.DB
}

func NewFixtures(t testing.TB, db *gorm.DB) *Fixtures {
	return &Fixtures{T: t, DB: db}
}

func (f *Fixtures) create(v any) {
	f.T.Helper()
	if err := f.DB.WithContext(context.Background()).Create(v).Error; err != nil {
		f.T.Fatalf("failed to create fixture %T: %v", v, err)
	}
}

func (f *Fixtures) City(name string) *models.City {
	c := &models.City{Name: name}
	f.create(c)
	return c
}

func (f *Fixtures) Brand(title string) *models.Brand {
	b := &models.Brand{Title: title}
	f.create(b)
	return b
}

// Product creates a product of a fresh brand unless brandID is set on p.
func (f *Fixtures) Product(p models.Product) *models.Product {
	if p.BrandID == 0 {
		p.BrandID = f.Brand("brand-" + p.Title).ID
	}
	if p.Description == "" {
		p.Description = p.Title + " description"
	}
	f.create(&p)
	return &p
}

func (f *Fixtures) Image(productID uint, path string) *models.ProductImage {
	img := &models.ProductImage{ProductID: productID, Title: path, Image: path}
	f.create(img)
	return img
}

func (f *Fixtures) User(username, role string) *models.User {
	u := &models.User{Username: username, PasswordHash: "x", Role: role, Email: username + "@example.com"}
	f.create(u)
	return u
}

func (f *Fixtures) Vendor(surname string) *models.Vendor {
	v := &models.Vendor{FirstName: "Ivan", Surname: surname, NumberTelephone: "+70000000000"}
	f.create(v)
	return v
}

// OrderLine stores a pending order with one line straight in the database,
// bypassing the ledger.
func (f *Fixtures) OrderLine(productID uint, price, amount int64) *models.Order {
	city := &models.City{Name: "fixture-city"}
	if err := f.DB.Where(city).FirstOrCreate(city).Error; err != nil {
		f.T.Fatalf("failed to create fixture city: %v", err)
	}
	addr := &models.Address{StreetName: "Fixture st", PostCode: "000000", CityID: city.ID}
	f.create(addr)
	o := &models.Order{
		Status:    models.OrderStatusPending,
		AddressID: addr.ID,
		FirstName: "Fixture",
		Surname:   "Buyer",
		Lines:     []models.OrderLine{{ProductID: productID, Price: price, Amount: amount}},
	}
	f.create(o)
	return o
}

// Stock reads the current stock count of a product.
func (f *Fixtures) Stock(productID uint) int64 {
	f.T.Helper()
	var p models.Product
	if err := f.DB.Select("stock_count").First(&p, productID).Error; err != nil {
		f.T.Fatalf("failed to read product %d: %v", productID, err)
	}
	return p.StockCount
}

func (f *Fixtures) Count(model any) int64 {
	f.T.Helper()
	var n int64
	if err := f.DB.Model(model).Count(&n).Error; err != nil {
		f.T.Fatalf("failed to count %T: %v", model, err)
	}
	return n
}
