package app

import (
	"context"
	"os"
	"runtime/debug"
	"time"
	_ "time/tzdata"

	"github.com/asaskevich/EventBus"
	"github.com/panjf2000/ants/v2"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/smarthealth/storefront/config"
	"github.com/smarthealth/storefront/internal/cart"
	"github.com/smarthealth/storefront/internal/checkout"
	"github.com/smarthealth/storefront/internal/domain"
	"github.com/smarthealth/storefront/internal/recipes"
	"github.com/smarthealth/storefront/pkg/metrics"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"
)

const eventWorkers = 16

type Application struct {
	appConfig *config.AppConfig
	gormDB    *gorm.DB
	redis     *redis.Client
	sched     *cron.Cron
	bus       EventBus.Bus
	pool      *ants.Pool

	cart      *cart.Store
	checkout  *checkout.Service
	scorer    *recipes.Scorer
	suggester *recipes.Suggester
}

// Ensure Application implements all interfaces
var (
	_ DBProvider        = (*Application)(nil)
	_ ConfigProvider    = (*Application)(nil)
	_ SchedulerProvider = (*Application)(nil)
	_ EventProvider     = (*Application)(nil)
	_ ServiceProvider   = (*Application)(nil)
	_ AppContext        = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) DB() *gorm.DB {
	return a.gormDB
}

// OverrideDB replaces the application's database handle (used in tests).
func (a *Application) OverrideDB(db *gorm.DB) {
	a.gormDB = db
}

// OverrideRedis replaces the cart Redis client (used in tests).
func (a *Application) OverrideRedis(client *redis.Client) {
	a.redis = client
}

func (a *Application) Init(cfg *config.AppConfig) {
	a.appConfig = cfg
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	initLogger(cfg.Logger)

	err = metrics.InitMetrics(cfg.System.Workdir)
	if err != nil {
		zap.S().Warn("Failed to initialize metrics:", err)
	}

	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	a.gormDB = getDatabase(cfg.Database)
	zap.S().Infof("Database connection successful, type: %s", cfg.Database.Type)

	if err := a.MigrateDB(false); err != nil {
		zap.S().Errorf("database migration failed: %v", err)
	}

	a.redis, err = cart.Dial(context.Background(), cfg.Redis)
	if err != nil {
		zap.S().Fatalf("redis connection failed: %v", err)
	}

	a.InitServices()

	a.checkProducts()
	a.checkRecipes()

	a.initJob()
}

func initLogger(cfg config.LogConfig) {
	var zapConfig zap.Config
	if cfg.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stdout"}

	var logger *zap.Logger
	if cfg.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}

		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller())
	} else {
		var err error
		logger, err = zapConfig.Build(zap.AddCaller())
		if err != nil {
			panic(err)
		}
	}

	zap.ReplaceGlobals(logger)
}

// InitServices wires the domain services on top of the current DB and
// Redis handles and subscribes the event handlers.
func (a *Application) InitServices() {
	cfg := a.appConfig

	a.bus = EventBus.New()
	pool, err := ants.NewPool(eventWorkers, ants.WithPanicHandler(func(p interface{}) {
		zap.S().Errorf("event handler panic: %v", p)
	}))
	if err != nil {
		zap.S().Fatalf("event pool init failed: %v", err)
	}
	a.pool = pool

	if a.redis != nil {
		a.cart = cart.NewStore(a.redis, time.Duration(cfg.Redis.CartTTLHours)*time.Hour)
	}

	a.checkout = checkout.NewService(checkout.NewGormStore(a.gormDB), checkout.Options{
		StockPolicy:   checkout.StockPolicy(cfg.Checkout.StockPolicy),
		PointsMode:    cfg.Checkout.PointsMode,
		PointsDivisor: cfg.Checkout.PointsDivisor,
		PointsFlat:    cfg.Checkout.PointsFlat,
		MaxLines:      cfg.Checkout.MaxLines,
	}, a.bus)

	a.scorer = recipes.NewScorer(recipes.NewGormRecipeRepository(a.gormDB), cfg.Recipes.Limit)

	var gen recipes.Generator
	if cfg.Recipes.GeminiKey != "" {
		g, err := recipes.NewGeminiGenerator(context.Background(), cfg.Recipes.GeminiKey, cfg.Recipes.Model, cfg.Recipes.Temperature)
		if err != nil {
			zap.S().Errorf("recipe suggestions disabled: %v", err)
		} else {
			gen = g
		}
	}
	a.suggester = recipes.NewSuggester(gen)

	a.subscribeEvents()
}

func (a *Application) MigrateDB(track bool) (err error) {
	defer func() {
		if err1 := recover(); err1 != nil {
			if os.Getenv("GO_DEGUB_TRACE") != "" {
				debug.PrintStack()
			}
			err2, ok := err1.(error)
			if ok {
				err = err2
				zap.S().Error(err2.Error())
			}
		}
	}()
	db := a.gormDB
	if track {
		db = db.Debug()
	}
	return db.Migrator().AutoMigrate(domain.Tables...)
}

func (a *Application) DropAll() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
}

// Scheduler returns the cron scheduler
func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

func (a *Application) Bus() EventBus.Bus {
	return a.bus
}

func (a *Application) Cart() *cart.Store {
	return a.cart
}

func (a *Application) Checkout() *checkout.Service {
	return a.checkout
}

func (a *Application) Scorer() *recipes.Scorer {
	return a.scorer
}

func (a *Application) Suggester() *recipes.Suggester {
	return a.suggester
}

// Release releases application resources
func (a *Application) Release() {
	if a.sched != nil {
		<-a.sched.Stop().Done()
	}
	if a.bus != nil {
		a.bus.WaitAsync()
	}
	if a.pool != nil {
		a.pool.Release()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	_ = metrics.Close()
	_ = zap.L().Sync()
}
