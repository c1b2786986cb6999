package domain

import "time"

// Review is a user's rating of a product.
type Review struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false" json:"id,string"`
	ProductID int64     `gorm:"index" json:"product_id,string"`
	UserID    string    `gorm:"size:64;index" json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `gorm:"type:text" json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName Specify table name
func (Review) TableName() string {
	return "reviews"
}

// Notification is a message shown to a user in the storefront.
type Notification struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false" json:"id,string"`
	UserID    string    `gorm:"size:64;index" json:"user_id"`
	Kind      string    `gorm:"size:32" json:"kind"`
	Title     string    `gorm:"size:200" json:"title"`
	Body      string    `gorm:"type:text" json:"body"`
	Read      bool      `gorm:"default:false" json:"read"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName Specify table name
func (Notification) TableName() string {
	return "notifications"
}
