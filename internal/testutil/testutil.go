// Package testutil provides an in-memory database for package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smarthealth/storefront/internal/domain"
	"github.com/smarthealth/storefront/pkg/common"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory SQLite database with every table migrated.
// A single connection keeps the in-memory database shared by all callers.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(domain.Tables...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateProduct inserts a product and returns it.
func CreateProduct(t testing.TB, db *gorm.DB, name, category, price string, qty int) domain.Product {
	t.Helper()
	p := domain.Product{
		ID:        common.UUIDint64(),
		Name:      name,
		Category:  category,
		Price:     decimal.RequireFromString(price),
		Quantity:  qty,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

// CreateAddress inserts an address owned by userID.
func CreateAddress(t testing.TB, db *gorm.DB, userID, text string) domain.Address {
	t.Helper()
	a := domain.Address{
		ID:        common.UUIDint64(),
		UserID:    userID,
		Address:   text,
		CreatedAt: time.Now(),
	}
	if err := db.Create(&a).Error; err != nil {
		t.Fatalf("create address: %v", err)
	}
	return a
}

// CreateRecipe inserts a recipe with raw ingredient JSON.
func CreateRecipe(t testing.TB, db *gorm.DB, id int64, name, category, ingredients string) domain.Recipe {
	t.Helper()
	r := domain.Recipe{
		ID:           id,
		Name:         name,
		Category:     category,
		Ingredients:  ingredients,
		Instructions: `["mix"]`,
		Difficulty:   domain.DifficultyEasy,
		CreatedAt:    time.Now(),
	}
	if err := db.Create(&r).Error; err != nil {
		t.Fatalf("create recipe: %v", err)
	}
	return r
}
