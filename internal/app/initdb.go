package app

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	jsoniter "github.com/json-iterator/go"
	"github.com/smarthealth/storefront/internal/domain"
	"github.com/smarthealth/storefront/pkg/common"
	"go.uber.org/zap"
)

type seedProduct struct {
	name     string
	category string
	price    string
	qty      int
}

// checkProducts seeds a demo catalog into an empty products table
func (a *Application) checkProducts() {
	var count int64
	if err := a.gormDB.Model(&domain.Product{}).Count(&count).Error; err != nil {
		zap.L().Error("failed to count products", zap.Error(err))
		return
	}
	if count > 0 {
		return
	}

	defaults := []seedProduct{
		{"Apel Fuji 1kg", "fruits", "42000", 40},
		{"Pisang Cavendish 1 sisir", "fruits", "28000", 60},
		{"Susu UHT Full Cream 1L", "dairy", "19500", 80},
		{"Yoghurt Plain 500g", "dairy", "32000", 25},
		{"Dada Ayam Fillet 500g", "meat", "45000", 30},
		{"Bayam Organik 250g", "vegetables", "12000", 50},
		{"Beras Merah 2kg", "grains", "54000", 35},
		{"Oat Gandum 800g", "grains", "61000", 20},
	}
	now := time.Now()
	for _, d := range defaults {
		p := domain.Product{
			ID:        common.UUIDint64(),
			Name:      d.name,
			Category:  d.category,
			Price:     decimal.RequireFromString(d.price),
			Quantity:  d.qty,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := a.gormDB.Create(&p).Error; err != nil {
			zap.L().Error("failed to create default product", zap.String("name", p.Name), zap.Error(err))
		} else {
			zap.L().Info("initialized default product", zap.String("name", p.Name))
		}
	}
}

// checkRecipes seeds demo recipes into an empty recipes table
func (a *Application) checkRecipes() {
	var count int64
	if err := a.gormDB.Model(&domain.Recipe{}).Count(&count).Error; err != nil {
		zap.L().Error("failed to count recipes", zap.Error(err))
		return
	}
	if count > 0 {
		return
	}

	var products []domain.Product
	a.gormDB.Select("id", "name").Find(&products)
	ids := make(map[string]int64, len(products))
	for _, p := range products {
		ids[p.Name] = p.ID
	}
	// catalog items are stored by product id so the recommender can match them
	refs := func(items ...string) string {
		out := make([]string, 0, len(items))
		for _, it := range items {
			if id, ok := ids[it]; ok {
				it = strconv.FormatInt(id, 10)
			}
			out = append(out, it)
		}
		b, _ := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalToString(out)
		return b
	}

	defaults := []domain.Recipe{
		{
			Name:         "Smoothie Pisang Yoghurt",
			Description:  "Breakfast smoothie with banana and plain yoghurt.",
			Ingredients:  refs("Pisang Cavendish 1 sisir", "Yoghurt Plain 500g", "honey"),
			Instructions: `["Slice the banana","Blend with yoghurt and honey","Serve chilled"]`,
			Category:     "fruits,dairy",
			Difficulty:   domain.DifficultyEasy,
		},
		{
			Name:         "Tumis Bayam Ayam",
			Description:  "Stir-fried spinach with chicken breast.",
			Ingredients:  refs("Bayam Organik 250g", "Dada Ayam Fillet 500g", "garlic"),
			Instructions: `["Slice the chicken","Saute garlic","Add chicken then spinach","Season and serve"]`,
			Category:     "meat,vegetables",
			Difficulty:   domain.DifficultyMedium,
		},
		{
			Name:         "Overnight Oat Apel",
			Description:  "Oats soaked overnight in milk with diced apple.",
			Ingredients:  refs("Oat Gandum 800g", "Susu UHT Full Cream 1L", "Apel Fuji 1kg"),
			Instructions: `["Mix oats and milk","Top with diced apple","Refrigerate overnight"]`,
			Category:     "grains,dairy,fruits",
			Difficulty:   domain.DifficultyEasy,
		},
		{
			Name:         "Nasi Merah Ayam Panggang",
			Description:  "Grilled chicken over red rice.",
			Ingredients:  refs("Beras Merah 2kg", "Dada Ayam Fillet 500g", "soy sauce"),
			Instructions: `["Cook the rice","Marinate and grill the chicken","Plate together"]`,
			Category:     "grains,meat",
			Difficulty:   domain.DifficultyHard,
		},
	}
	now := time.Now()
	for _, r := range defaults {
		r.ID = common.UUIDint64()
		r.CreatedAt = now
		if err := a.gormDB.Create(&r).Error; err != nil {
			zap.L().Error("failed to create default recipe", zap.String("name", r.Name), zap.Error(err))
		} else {
			zap.L().Info("initialized default recipe", zap.String("name", r.Name))
		}
	}
}
