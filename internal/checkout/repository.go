package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/smarthealth/storefront/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockPolicy decides what happens when a line asks for more than is in stock.
type StockPolicy string

const (
	// StockReject fails the line and leaves stock untouched.
	StockReject StockPolicy = "reject"
	// StockClamp drives stock to zero and still records the requested quantity.
	StockClamp StockPolicy = "clamp"
)

// CatalogRepository interface for product data access
type CatalogRepository interface {
	// GetProduct returns ErrProductNotFound when the id is unknown
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)

	// DecrementStock removes qty units in a single conditional statement.
	// Under StockReject it returns *StockUnavailableError if stock is short.
	DecrementStock(ctx context.Context, id int64, qty int, policy StockPolicy) error
}

// OrderRepository persists committed purchase lines
type OrderRepository interface {
	InsertOrderLine(ctx context.Context, line *domain.OrderLine) error
}

// PointsRepository accrues loyalty points
type PointsRepository interface {
	// AddPoints adds to the user's balance, creating the row if needed
	AddPoints(ctx context.Context, userID string, points int64) error
}

// AddressRepository interface for address data access
type AddressRepository interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Address, error)
}

// Store groups the repositories a checkout touches and scopes them to a transaction.
type Store interface {
	Catalog() CatalogRepository
	Orders() OrderRepository
	Points() PointsRepository
	Addresses() AddressRepository

	// Transaction runs fn against a store bound to one database transaction.
	// A non-nil error from fn rolls everything back.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// GormStore is the GORM implementation of Store
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-based store
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Catalog() CatalogRepository   { return &GormCatalogRepository{db: s.db} }
func (s *GormStore) Orders() OrderRepository      { return &GormOrderRepository{db: s.db} }
func (s *GormStore) Points() PointsRepository     { return &GormPointsRepository{db: s.db} }
func (s *GormStore) Addresses() AddressRepository { return &GormAddressRepository{db: s.db} }

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// GormCatalogRepository is the GORM implementation of CatalogRepository
type GormCatalogRepository struct {
	db *gorm.DB
}

func (r *GormCatalogRepository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, &DataAccessError{Op: "get product", Err: err}
	}
	return &p, nil
}

func (r *GormCatalogRepository) DecrementStock(ctx context.Context, id int64, qty int, policy StockPolicy) error {
	db := r.db.WithContext(ctx).Model(&domain.Product{}).Where("id = ?", id)

	var newQty interface{}
	if policy == StockClamp {
		newQty = gorm.Expr("CASE WHEN quantity > ? THEN quantity - ? ELSE 0 END", qty, qty)
	} else {
		db = db.Where("quantity >= ?", qty)
		newQty = gorm.Expr("quantity - ?", qty)
	}

	res := db.Updates(map[string]interface{}{
		"quantity":   newQty,
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return &DataAccessError{Op: "update stock", Err: res.Error}
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// nothing matched: either the product is gone or stock is short
	p, err := r.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	return &StockUnavailableError{ProductID: id, Requested: qty, Available: p.Quantity}
}

// GormOrderRepository is the GORM implementation of OrderRepository
type GormOrderRepository struct {
	db *gorm.DB
}

func (r *GormOrderRepository) InsertOrderLine(ctx context.Context, line *domain.OrderLine) error {
	if err := r.db.WithContext(ctx).Create(line).Error; err != nil {
		return &DataAccessError{Op: "insert order line", Err: err}
	}
	return nil
}

// GormPointsRepository is the GORM implementation of PointsRepository
type GormPointsRepository struct {
	db *gorm.DB
}

func (r *GormPointsRepository) AddPoints(ctx context.Context, userID string, points int64) error {
	row := domain.LoyaltyPoints{UserID: userID, Points: points, UpdatedAt: time.Now()}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"points":     gorm.Expr("loyalty_points.points + excluded.points"),
			"updated_at": gorm.Expr("excluded.updated_at"),
		}),
	}).Create(&row).Error
	if err != nil {
		return &DataAccessError{Op: "add points", Err: err}
	}
	return nil
}

// GormAddressRepository is the GORM implementation of AddressRepository
type GormAddressRepository struct {
	db *gorm.DB
}

func (r *GormAddressRepository) ListByUser(ctx context.Context, userID string) ([]domain.Address, error) {
	var addrs []domain.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&addrs).Error
	if err != nil {
		return nil, &DataAccessError{Op: "list addresses", Err: err}
	}
	return addrs, nil
}
