package transport

import (
	"time"

	"github.com/Skotchmaster/phone_shop/internal/models"
)

type AddressRequest struct {
	StreetName string `json:"street_name" validate:"required,max=200"`
	PostCode   string `json:"post_code"   validate:"required,max=10"`
	CityID     uint   `json:"city_id"     validate:"required"`
}

type CreateOrderItem struct {
	ProductID uint  `json:"telephone_id" validate:"required"`
	Amount    int64 `json:"amount"       validate:"gt=0"`
}

type CreateOrderRequest struct {
	Address         AddressRequest    `json:"address"`
	Products        []CreateOrderItem `json:"products"`
	FirstName       string            `json:"first_name"`
	SecondName      string            `json:"second_name"`
	Surname         string            `json:"surname"`
	Email           string            `json:"email"`
	NumberTelephone string            `json:"number_telephone"`
}

type ChangeStatusRequest struct {
	Status models.OrderStatus `json:"status"`
}

type PatchOrderRequest struct {
	FirstName  *string `json:"first_name"`
	SecondName *string `json:"second_name"`
	Surname    *string `json:"surname"`
	AddressID  *uint   `json:"address_id"`
}

type CreateProductRequest struct {
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	BrandID          uint       `json:"brand_id"`
	DiagonalScreen   float64    `json:"diagonal_screen"`
	BuiltInMemory    string     `json:"built_in_memory"`
	Price            int64      `json:"price"`
	Discount         int        `json:"discount"`
	RecommendedPrice *int64     `json:"recommended_price"`
	Weight           float64    `json:"weight"`
	StockCount       int64      `json:"stock_count"`
	ReleaseDate      *time.Time `json:"release_date"`
}

// PatchProductRequest has no stock field: stock only moves through the ledger.
type PatchProductRequest struct {
	Title            *string    `json:"title"`
	Description      *string    `json:"description"`
	BrandID          *uint      `json:"brand_id"`
	DiagonalScreen   *float64   `json:"diagonal_screen"`
	BuiltInMemory    *string    `json:"built_in_memory"`
	Price            *int64     `json:"price"`
	Discount         *int       `json:"discount"`
	RecommendedPrice *int64     `json:"recommended_price"`
	Weight           *float64   `json:"weight"`
	ReleaseDate      *time.Time `json:"release_date"`
}

type AdjustStockRequest struct {
	Delta int64 `json:"delta"`
}

type AddImageRequest struct {
	Title string `json:"title" validate:"required,max=100"`
	Image string `json:"image" validate:"required"`
}

type BrandRequest struct {
	Title string `json:"title"`
}

type CityRequest struct {
	Name string `json:"name"`
}

type RegisterRequest struct {
	Username        string     `json:"username"         validate:"required,max=150"`
	Password        string     `json:"password"`
	Email           string     `json:"email"            validate:"omitempty,email,max=254"`
	FirstName       string     `json:"first_name"       validate:"max=50"`
	SecondName      string     `json:"second_name"      validate:"max=50"`
	Surname         string     `json:"surname"          validate:"max=50"`
	NumberTelephone string     `json:"number_telephone" validate:"max=20"`
	BirthDate       *time.Time `json:"birth_date"`
}

type PatchUserRequest struct {
	Email           *string    `json:"email"`
	Password        *string    `json:"password"`
	FirstName       *string    `json:"first_name"`
	SecondName      *string    `json:"second_name"`
	Surname         *string    `json:"surname"`
	NumberTelephone *string    `json:"number_telephone"`
	BirthDate       *time.Time `json:"birth_date"`
	Role            *string    `json:"role"`
}

type CommentRequest struct {
	ProductID uint   `json:"telephone_id"`
	Text      string `json:"text"`
}

type PatchCommentRequest struct {
	Text string `json:"text"`
}

type VendorRequest struct {
	FirstName       string `json:"first_name"       validate:"required,max=50"`
	SecondName      string `json:"second_name"      validate:"max=50"`
	Surname         string `json:"surname"          validate:"required,max=50"`
	NumberTelephone string `json:"number_telephone" validate:"max=20"`
}

type PatchVendorRequest struct {
	FirstName       *string `json:"first_name"`
	SecondName      *string `json:"second_name"`
	Surname         *string `json:"surname"`
	NumberTelephone *string `json:"number_telephone"`
}

type DeliveryLineRequest struct {
	ProductID     uint  `json:"telephone_id"`
	PriceOnePhone int64 `json:"price_one_phone"`
	Amount        int64 `json:"amount"`
}

type CreateDeliveryRequest struct {
	VendorID      uint                  `json:"vendor_id"`
	DeliveryPrice int64                 `json:"delivery_price"`
	Details       []DeliveryLineRequest `json:"details"`
}

type PatchDeliveryRequest struct {
	DeliveryPrice *int64 `json:"delivery_price"`
}

type PatchDeliveryLineRequest struct {
	PriceOnePhone *int64 `json:"price_one_phone"`
	Amount        *int64 `json:"amount"`
}
