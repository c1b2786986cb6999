// Package storeapi implements the storefront HTTP handlers on top of the
// application services.
package storeapi

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/smarthealth/storefront/internal/app"
	"github.com/smarthealth/storefront/internal/webserver"
	"github.com/smarthealth/storefront/pkg/common"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	appCtx       app.AppContext
	registerOnce sync.Once
)

// Init binds the handlers to appContext and registers every route.
// Routes are registered once; later calls only swap the context.
func Init(appContext app.AppContext) {
	appCtx = appContext
	registerOnce.Do(func() {
		registerCheckoutRoutes()
		registerRecipeRoutes()
		registerProductRoutes()
		registerReviewRoutes()
		registerCartRoutes()
		registerAccountRoutes()
	})
}

// GetDB returns the database bound to the request context
func GetDB(c echo.Context) *gorm.DB {
	return appCtx.DB().WithContext(c.Request().Context())
}

// Paged is the body of list endpoints
type Paged struct {
	Data     interface{} `json:"data"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

func created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, data)
}

func paged(c echo.Context, data interface{}, total int64, page, pageSize int) error {
	return c.JSON(http.StatusOK, Paged{Data: data, Total: total, Page: page, PageSize: pageSize})
}

// fail writes an error body; detail is logged, never returned.
func fail(c echo.Context, status int, code, msg string, detail interface{}) error {
	if detail != nil {
		fields := []zap.Field{
			zap.String("namespace", "storeapi"),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.String("code", code),
			zap.Any("detail", detail),
		}
		if status >= http.StatusInternalServerError {
			zap.L().Error(msg, fields...)
		} else {
			zap.L().Warn(msg, fields...)
		}
	}
	return c.JSON(status, webserver.ErrorResponse{Error: msg, Code: code})
}

func parsePagination(c echo.Context) (page, pageSize int) {
	page, pageSize = 1, 20
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	if ps, err := strconv.Atoi(c.QueryParam("pageSize")); err == nil && ps > 0 && ps <= 500 {
		pageSize = ps
	}
	return page, pageSize
}

func parseID(c echo.Context, name string) (int64, bool) {
	id, err := common.ParseInt64(c.Param(name))
	return id, err == nil && id > 0
}
