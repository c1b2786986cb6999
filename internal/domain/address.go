package domain

import "time"

// Address is a delivery address owned by a user.
type Address struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false" json:"id,string"`
	UserID    string    `gorm:"size:64;index" json:"user_id"`
	Address   string    `gorm:"size:500" json:"address"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName Specify table name
func (Address) TableName() string {
	return "addresses"
}
