package domain

import "time"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the known levels.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Recipe is authored elsewhere and read-only here. Ingredients and
// Instructions hold JSON arrays as stored; Category is a comma separated tag set.
type Recipe struct {
	ID           int64      `gorm:"primaryKey;autoIncrement:false" json:"id,string"`
	Name         string     `gorm:"size:200" json:"name"`
	Description  string     `gorm:"type:text" json:"description"`
	Ingredients  string     `gorm:"type:text" json:"-"`
	Instructions string     `gorm:"type:text" json:"-"`
	Category     string     `gorm:"size:200;index" json:"category"`
	Difficulty   Difficulty `gorm:"size:16" json:"difficulty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// TableName Specify table name
func (Recipe) TableName() string {
	return "recipes"
}
