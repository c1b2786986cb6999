package storeapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/montanaflynn/stats"
	"github.com/smarthealth/storefront/internal/app"
	"github.com/smarthealth/storefront/internal/domain"
	"github.com/smarthealth/storefront/internal/webserver"
	"github.com/smarthealth/storefront/pkg/common"
	"gorm.io/gorm"
)

type reviewPayload struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

type reviewResult struct {
	Review        domain.Review `json:"review"`
	ProductRating float64       `json:"product_rating"`
}

func registerReviewRoutes() {
	webserver.PublicGET("/products/:id/reviews", listReviews)
	webserver.ApiPOST("/products/:id/reviews", createReview)
}

func listReviews(c echo.Context) error {
	id, valid := parseID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	page, pageSize := parsePagination(c)

	db := GetDB(c).Model(&domain.Review{}).Where("product_id = ?", id)
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query reviews", err.Error())
	}
	var rows []domain.Review
	if err := db.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query reviews", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func createReview(c echo.Context) error {
	productID, valid := parseID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var payload reviewPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse review", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Rating must be between 1 and 5", err.Error())
	}

	review := domain.Review{
		ID:        common.UUIDint64(),
		ProductID: productID,
		UserID:    webserver.UserID(c),
		Rating:    payload.Rating,
		Comment:   strings.TrimSpace(payload.Comment),
		CreatedAt: time.Now(),
	}

	var rating float64
	err := GetDB(c).Transaction(func(tx *gorm.DB) error {
		var p domain.Product
		if err := tx.Select("id").Where("id = ?", productID).First(&p).Error; err != nil {
			return err
		}
		if err := tx.Create(&review).Error; err != nil {
			return err
		}
		var err error
		rating, err = recomputeRating(tx, productID)
		if err != nil {
			return err
		}
		return tx.Model(&domain.Product{}).Where("id = ?", productID).Update("rating", rating).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to save review", err.Error())
	}

	appCtx.Bus().Publish(app.TopicReviewCreated, &review)
	return created(c, reviewResult{Review: review, ProductRating: rating})
}

// recomputeRating returns the mean of all ratings of a product, one decimal.
func recomputeRating(tx *gorm.DB, productID int64) (float64, error) {
	var ratings []float64
	if err := tx.Model(&domain.Review{}).Where("product_id = ?", productID).Pluck("rating", &ratings).Error; err != nil {
		return 0, err
	}
	if len(ratings) == 0 {
		return 0, nil
	}
	mean, err := stats.Mean(ratings)
	if err != nil {
		return 0, err
	}
	return stats.Round(mean, 1)
}
