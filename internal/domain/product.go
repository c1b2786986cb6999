package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog item. Quantity is live stock and never goes below zero.
type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement:false" json:"id,string"`
	Name        string          `gorm:"size:200;index" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"price"`
	Quantity    int             `gorm:"not null;default:0;check:quantity >= 0" json:"quantity"`
	Category    string          `gorm:"size:100;index" json:"category"`
	Rating      float64         `gorm:"default:0" json:"rating"`
	Image       string          `gorm:"size:1024" json:"image"` // URL in object storage
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TableName Specify table name
func (Product) TableName() string {
	return "products"
}

// CartLine is one product and desired quantity awaiting checkout.
type CartLine struct {
	ProductID int64 `json:"product_id,string" validate:"required"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}
