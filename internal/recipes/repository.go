package recipes

import (
	"context"

	"github.com/pkg/errors"
	"github.com/smarthealth/storefront/internal/domain"
	"github.com/smarthealth/storefront/pkg/common"
	"gorm.io/gorm"
)

var ErrRecipeNotFound = errors.New("recipe not found")

// RecipeRepository is the read side the scorer depends on
type RecipeRepository interface {
	// QueryByCategories returns, in corpus order, every recipe whose tag set
	// shares at least one of the given categories
	QueryByCategories(ctx context.Context, categories []string) ([]domain.Recipe, error)
}

// GormRecipeRepository is the GORM implementation of RecipeRepository
type GormRecipeRepository struct {
	db *gorm.DB
}

// NewGormRecipeRepository creates a new GORM-based repository
func NewGormRecipeRepository(db *gorm.DB) *GormRecipeRepository {
	return &GormRecipeRepository{db: db}
}

func (r *GormRecipeRepository) QueryByCategories(ctx context.Context, categories []string) ([]domain.Recipe, error) {
	if len(categories) == 0 {
		return nil, nil
	}

	// LIKE narrows the scan; the exact tag match below decides membership
	query := r.db.WithContext(ctx).Model(&domain.Recipe{})
	cond := r.db.Where("category LIKE ?", "%"+categories[0]+"%")
	for _, c := range categories[1:] {
		cond = cond.Or("category LIKE ?", "%"+c+"%")
	}

	var rows []domain.Recipe
	if err := query.Where(cond).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "query recipes by category")
	}

	wanted := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		wanted[c] = struct{}{}
	}
	out := rows[:0]
	for _, rec := range rows {
		for _, tag := range common.SplitTags(rec.Category) {
			if _, ok := wanted[tag]; ok {
				out = append(out, rec)
				break
			}
		}
	}
	return out, nil
}

// List returns a page of recipes in corpus order.
func (r *GormRecipeRepository) List(ctx context.Context, category string, page, pageSize int) ([]domain.Recipe, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Recipe{})
	if category != "" {
		query = query.Where("category LIKE ?", "%"+category+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count recipes")
	}

	var rows []domain.Recipe
	err := query.Order("id ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error
	return rows, total, err
}

func (r *GormRecipeRepository) GetByID(ctx context.Context, id int64) (*domain.Recipe, error) {
	var rec domain.Recipe
	err := r.db.WithContext(ctx).First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecipeNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get recipe %d", id)
	}
	return &rec, nil
}
