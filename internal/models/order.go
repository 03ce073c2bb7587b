package models

import "time"

type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "PENDING"
	OrderStatusSended   OrderStatus = "SENDED"
	OrderStatusDone     OrderStatus = "DONE"
	OrderStatusCanceled OrderStatus = "CANCELED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusSended, OrderStatusDone, OrderStatusCanceled:
		return true
	}
	return false
}

// Terminal statuses accept no further transitions.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDone || s == OrderStatusCanceled
}

type Order struct {
	ID         uint        `gorm:"primaryKey;autoIncrement"        json:"id"`
	UserID     *uint       `gorm:"index"                           json:"user_id"`
	GuestEmail string      `gorm:"size:254"                        json:"email,omitempty"`
	GuestPhone string      `gorm:"size:20"                         json:"number_telephone,omitempty"`
	Status     OrderStatus `gorm:"size:20;not null;index"          json:"status"`
	AddressID  uint        `gorm:"not null"                        json:"-"`
	Address    *Address    `gorm:"foreignKey:AddressID"            json:"address,omitempty"`
	FirstName  string      `gorm:"size:50;not null"                json:"first_name"`
	SecondName string      `gorm:"size:50"                         json:"second_name"`
	Surname    string      `gorm:"size:50;not null"                json:"surname"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	Lines      []OrderLine `gorm:"foreignKey:OrderID"              json:"products"`
}

// OrderLine is written once at placement and never updated.
type OrderLine struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"     json:"id"`
	OrderID   uint      `gorm:"not null;index"               json:"order_id"`
	ProductID uint      `gorm:"not null;index"               json:"telephone_id"`
	Product   *Product  `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT" json:"-"`
	Price     int64     `gorm:"not null"                     json:"price"`
	Amount    int64     `gorm:"not null;check:amount > 0"    json:"amount"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"created_at"`
}

// FullPrice sums price*amount over the lines.
func (o *Order) FullPrice() int64 {
	var total int64
	for _, l := range o.Lines {
		total += l.Price * l.Amount
	}
	return total
}

type Vendor struct {
	ID              uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	FirstName       string    `gorm:"size:50;not null"          json:"first_name"`
	SecondName      string    `gorm:"size:50"                   json:"second_name"`
	Surname         string    `gorm:"size:50;not null"          json:"surname"`
	NumberTelephone string    `gorm:"size:20"                   json:"number_telephone"`
	CreatedAt       time.Time `json:"created_at"`
}

type Delivery struct {
	ID            uint           `gorm:"primaryKey;autoIncrement"                          json:"id"`
	VendorID      uint           `gorm:"not null;index"                                    json:"vendor_id"`
	Vendor        *Vendor        `gorm:"foreignKey:VendorID"                               json:"vendor,omitempty"`
	DeliveryPrice int64          `gorm:"not null;check:delivery_price >= 0"                json:"delivery_price"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	Lines         []DeliveryLine `gorm:"foreignKey:DeliveryID;constraint:OnDelete:CASCADE" json:"details"`
}

type DeliveryLine struct {
	ID            uint     `gorm:"primaryKey;autoIncrement"               json:"id"`
	DeliveryID    uint     `gorm:"not null;index"                         json:"delivery_id"`
	ProductID     uint     `gorm:"not null;index"                         json:"telephone_id"`
	Product       *Product `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT" json:"-"`
	PriceOnePhone int64    `gorm:"not null;check:price_one_phone >= 0"    json:"price_one_phone"`
	Amount        int64    `gorm:"not null;check:amount > 0"              json:"amount"`
}
