package storeapi

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/smarthealth/storefront/internal/domain"
	"github.com/smarthealth/storefront/internal/webserver"
	"github.com/smarthealth/storefront/pkg/common"
	"go.uber.org/zap"
)

// LogOperation records an operator action in the audit trail
func LogOperation(c echo.Context, action, desc string) {
	entry := domain.SysOprLog{
		ID:        common.UUIDint64(),
		OprName:   common.IfEmptyStr(webserver.UserID(c), common.NA),
		OprIp:     c.RealIP(),
		OptAction: action,
		OptDesc:   desc,
		OptTime:   time.Now(),
	}
	if err := GetDB(c).Create(&entry).Error; err != nil {
		zap.L().Error("write operation log failed",
			zap.String("namespace", "storeapi"),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}
