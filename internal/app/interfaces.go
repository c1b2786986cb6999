package app

import (
	"github.com/asaskevich/EventBus"
	"github.com/robfig/cron/v3"
	"github.com/smarthealth/storefront/config"
	"github.com/smarthealth/storefront/internal/cart"
	"github.com/smarthealth/storefront/internal/checkout"
	"github.com/smarthealth/storefront/internal/recipes"
	"gorm.io/gorm"
)

// DBProvider provides database access
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
}

// EventProvider exposes the in-process event bus
type EventProvider interface {
	Bus() EventBus.Bus
}

// ServiceProvider exposes the storefront domain services
type ServiceProvider interface {
	Cart() *cart.Store
	Checkout() *checkout.Service
	Scorer() *recipes.Scorer
	Suggester() *recipes.Suggester
}

// AppContext combines all provider interfaces for full application context
// Services should depend on specific providers or this combined interface
type AppContext interface {
	DBProvider
	ConfigProvider
	SchedulerProvider
	EventProvider
	ServiceProvider

	MigrateDB(track bool) error
	DropAll()
}
