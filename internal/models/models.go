package models

import (
	"time"
)

type City struct {
	ID   uint   `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name string `gorm:"size:100;not null;unique"  json:"name"`
}

type Address struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"  json:"id"`
	StreetName string `gorm:"size:200;not null"         json:"street_name"`
	PostCode   string `gorm:"size:10;not null"          json:"post_code"`
	CityID     uint   `gorm:"not null;index"            json:"city_id"`
}

type Brand struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	Title     string    `gorm:"size:100;not null;unique"  json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type Product struct {
	ID               uint           `gorm:"primaryKey;autoIncrement"                              json:"id"`
	Title            string         `gorm:"size:100;not null;unique"                              json:"title"`
	Description      string         `gorm:"size:200;not null"                                     json:"description"`
	BrandID          uint           `gorm:"not null;index"                                        json:"brand_id"`
	Brand            *Brand         `gorm:"foreignKey:BrandID"                                    json:"brand,omitempty"`
	DiagonalScreen   float64        `json:"diagonal_screen"`
	BuiltInMemory    string         `gorm:"size:20"                                               json:"built_in_memory"`
	Price            int64          `gorm:"not null;check:price >= 0"                             json:"price"`
	Discount         int            `gorm:"not null;default:0;check:discount BETWEEN 0 AND 100"   json:"discount"`
	RecommendedPrice *int64         `json:"recommended_price"`
	Weight           float64        `json:"weight"`
	StockCount       int64          `gorm:"not null;default:0;check:stock_count >= 0"             json:"stock_count"`
	ReleaseDate      *time.Time     `json:"release_date"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	Images           []ProductImage `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"      json:"images"`
}

type ProductImage struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	ProductID uint      `gorm:"not null;index"            json:"product_id"`
	Title     string    `gorm:"size:100;not null"         json:"title"`
	Image     string    `gorm:"not null"                  json:"image"`
	CreatedAt time.Time `json:"created_at"`
}

type User struct {
	ID              uint       `gorm:"primaryKey;autoIncrement"      json:"id"`
	Username        string     `gorm:"size:150;unique;not null"      json:"username"`
	Email           string     `gorm:"size:254"                      json:"email"`
	PasswordHash    string     `gorm:"not null"                      json:"-"`
	FirstName       string     `gorm:"size:50"                       json:"first_name"`
	SecondName      string     `gorm:"size:50"                       json:"second_name"`
	Surname         string     `gorm:"size:50"                       json:"surname"`
	NumberTelephone string     `gorm:"size:20"                       json:"number_telephone"`
	BirthDate       *time.Time `json:"birth_date"`
	Role            string     `gorm:"size:20;not null;default:user" json:"role"`
	CreatedAt       time.Time  `json:"date_joined"`
}

type Comment struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	ProductID uint      `gorm:"not null;index"            json:"telephone_id"`
	UserID    uint      `gorm:"not null;index"            json:"user_id"`
	Text      string    `gorm:"size:200;not null"         json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type WishlistItem struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"                     json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_wishlist_user_item"  json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_wishlist_user_item"  json:"telephone_id"`
	CreatedAt time.Time `json:"created_at"`
}
