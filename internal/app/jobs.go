package app

import (
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shirou/gopsutil/process"
	"github.com/smarthealth/storefront/internal/domain"
	"github.com/smarthealth/storefront/pkg/metrics"
	"go.uber.org/zap"
)

const (
	notificationRetention = 90 * 24 * time.Hour
	oprLogRetention       = 365 * 24 * time.Hour
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() {
	loc, err := time.LoadLocation(a.appConfig.System.Location)
	if err != nil {
		loc = time.Local
	}
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	jobs := []struct {
		spec string
		fn   func()
	}{
		{"@every 30s", a.SchedProcessMonitorTask},
		{"@hourly", a.SchedLowStockReport},
		{"@daily", a.SchedClearExpireData},
	}
	for _, j := range jobs {
		if _, err := a.sched.AddFunc(j.spec, j.fn); err != nil {
			zap.S().Errorf("init job error %s", err.Error())
		}
	}

	a.sched.Start()
}

// SchedProcessMonitorTask app process monitor
func (a *Application) SchedProcessMonitorTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	p, err := process.NewProcess(int32(os.Getpid())) //nolint:gosec // G115: PID is always within int32 range
	if err != nil {
		return
	}

	cpuuse, err := p.CPUPercent()
	if err == nil {
		metrics.SetGauge(metrics.ProcessCPU, int64(cpuuse*100)) // Store as percentage * 100
	}

	meminfo, err := p.MemoryInfo()
	if err == nil {
		metrics.SetGauge(metrics.ProcessMem, int64(meminfo.RSS/1024/1024)) //nolint:gosec // G115: memory MB value fits in int64
	}
}

// SchedLowStockReport records how many products are at or below the
// configured stock level and logs them.
func (a *Application) SchedLowStockReport() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	var low []domain.Product
	err := a.gormDB.Select("id", "name", "quantity").
		Where("quantity <= ?", a.appConfig.Checkout.LowStockLevel).
		Order("quantity ASC").Find(&low).Error
	if err != nil {
		zap.L().Error("low stock query failed", zap.String("namespace", "jobs"), zap.Error(err))
		return
	}
	metrics.SetGauge(metrics.LowStockProducts, int64(len(low)))
	for _, p := range low {
		zap.L().Warn("low stock",
			zap.String("namespace", "jobs"),
			zap.Int64("product_id", p.ID),
			zap.String("name", p.Name),
			zap.Int("quantity", p.Quantity),
		)
	}
}

// SchedClearExpireData removes read notifications and old audit entries.
func (a *Application) SchedClearExpireData() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	now := time.Now()
	res := a.gormDB.
		Where("read = ? AND created_at < ?", true, now.Add(-notificationRetention)).
		Delete(&domain.Notification{})
	if res.Error != nil {
		zap.L().Error("notification retention failed", zap.String("namespace", "jobs"), zap.Error(res.Error))
	} else if res.RowsAffected > 0 {
		zap.L().Info("expired notifications removed", zap.String("namespace", "jobs"), zap.Int64("count", res.RowsAffected))
	}

	a.gormDB.Where("opt_time < ?", now.Add(-oprLogRetention)).Delete(&domain.SysOprLog{})
}
