package storeapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/labstack/echo/v4"
	"github.com/smarthealth/storefront/internal/domain"
	"github.com/smarthealth/storefront/internal/webserver"
	"github.com/smarthealth/storefront/pkg/common"
	"gorm.io/gorm"
)

type addressPayload struct {
	Address   string   `json:"address" validate:"required,max=500"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" validate:"omitempty,longitude"`
}

type pointsView struct {
	UserID string `json:"user_id"`
	Points int64  `json:"points"`
}

func registerAccountRoutes() {
	webserver.ApiGET("/addresses", listAddresses)
	webserver.ApiPOST("/addresses", createAddress)
	webserver.ApiGET("/orders", listOrders)
	webserver.ApiGET("/points", getPoints)
	webserver.ApiGET("/notifications", listNotifications)
	webserver.ApiPUT("/notifications/:id/read", markNotificationRead)
}

func listAddresses(c echo.Context) error {
	var rows []domain.Address
	err := GetDB(c).Where("user_id = ?", webserver.UserID(c)).Order("created_at ASC").Find(&rows).Error
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query addresses", err.Error())
	}
	return ok(c, rows)
}

func createAddress(c echo.Context) error {
	var payload addressPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse address", err.Error())
	}
	payload.Address = strings.TrimSpace(payload.Address)
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid address", err.Error())
	}

	addr := domain.Address{
		ID:        common.UUIDint64(),
		UserID:    webserver.UserID(c),
		Address:   payload.Address,
		Latitude:  payload.Latitude,
		Longitude: payload.Longitude,
		CreatedAt: time.Now(),
	}
	if err := GetDB(c).Create(&addr).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create address", err.Error())
	}
	return created(c, addr)
}

// listOrders returns the user's order lines, newest first. since accepts
// any date layout dateparse understands.
func listOrders(c echo.Context) error {
	page, pageSize := parsePagination(c)
	db := GetDB(c).Model(&domain.OrderLine{}).Where("user_id = ?", webserver.UserID(c))

	if since := strings.TrimSpace(c.QueryParam("since")); since != "" {
		t, err := dateparse.ParseLocal(since)
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid since date", err.Error())
		}
		db = db.Where("created_at >= ?", t)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}
	var rows []domain.OrderLine
	if err := db.Order("created_at DESC").Order("id ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func getPoints(c echo.Context) error {
	userID := webserver.UserID(c)
	var lp domain.LoyaltyPoints
	err := GetDB(c).Where("user_id = ?", userID).First(&lp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ok(c, pointsView{UserID: userID})
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query points", err.Error())
	}
	return ok(c, pointsView{UserID: userID, Points: lp.Points})
}

func listNotifications(c echo.Context) error {
	page, pageSize := parsePagination(c)
	db := GetDB(c).Model(&domain.Notification{}).Where("user_id = ?", webserver.UserID(c))
	if c.QueryParam("unread") == "true" {
		db = db.Where("read = ?", false)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query notifications", err.Error())
	}
	var rows []domain.Notification
	if err := db.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query notifications", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func markNotificationRead(c echo.Context) error {
	id, valid := parseID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid notification ID", nil)
	}
	res := GetDB(c).Model(&domain.Notification{}).
		Where("id = ? AND user_id = ?", id, webserver.UserID(c)).
		Update("read", true)
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update notification", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Notification not found", nil)
	}
	return c.NoContent(http.StatusNoContent)
}
