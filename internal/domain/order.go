package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderLine is one committed purchase line. Rows are never updated.
type OrderLine struct {
	ID         int64           `gorm:"primaryKey;autoIncrement:false" json:"id,string"`
	CheckoutID int64           `gorm:"index" json:"checkout_id,string"` // lines of one checkout share it
	UserID     string          `gorm:"size:64;index" json:"user_id"`
	ProductID  int64           `gorm:"index" json:"product_id,string"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:numeric(14,2)" json:"unit_price"`
	AddressID  int64           `json:"address_id,string"`
	CreatedAt  time.Time       `gorm:"index" json:"created_at"`
}

// TableName Specify table name
func (OrderLine) TableName() string {
	return "order_lines"
}

// LoyaltyPoints holds the accrued balance of one user.
type LoyaltyPoints struct {
	UserID    string    `gorm:"primaryKey;size:64" json:"user_id"`
	Points    int64     `gorm:"not null;default:0" json:"points"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (LoyaltyPoints) TableName() string {
	return "loyalty_points"
}
