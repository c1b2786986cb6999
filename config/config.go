package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment override, e.g. STOREFRONT_WEB_PORT.
const EnvPrefix = "STOREFRONT"

// SysConfig system configuration
type SysConfig struct {
	Appid    string `yaml:"appid" envconfig:"APPID"`
	Location string `yaml:"location" envconfig:"LOCATION"`
	Workdir  string `yaml:"workdir" envconfig:"WORKDIR"`
	Debug    bool   `yaml:"debug" envconfig:"DEBUG"`
}

// WebConfig web server configuration
type WebConfig struct {
	Host string `yaml:"host" envconfig:"HOST"`
	Port int    `yaml:"port" envconfig:"PORT"`
}

// DBConfig database configuration
type DBConfig struct {
	Type     string `yaml:"type" envconfig:"TYPE"`
	Host     string `yaml:"host" envconfig:"HOST"`
	Port     int    `yaml:"port" envconfig:"PORT"`
	Name     string `yaml:"name" envconfig:"NAME"`
	User     string `yaml:"user" envconfig:"USER"`
	Passwd   string `yaml:"passwd" envconfig:"PASSWD"`
	MaxConn  int    `yaml:"max_conn" envconfig:"MAX_CONN"`
	IdleConn int    `yaml:"idle_conn" envconfig:"IDLE_CONN"`
	Debug    bool   `yaml:"debug" envconfig:"DEBUG"`
}

// RedisConfig backs the server-side shopping cart.
type RedisConfig struct {
	URL          string `yaml:"url" envconfig:"URL"`
	CartTTLHours int    `yaml:"cart_ttl_hours" envconfig:"CART_TTL_HOURS"`
	DialTimeout  int    `yaml:"dial_timeout" envconfig:"DIAL_TIMEOUT"`
	ReadTimeout  int    `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout int    `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
}

// LogConfig logging configuration
type LogConfig struct {
	Mode       string `yaml:"mode" envconfig:"MODE"`
	FileEnable bool   `yaml:"file_enable" envconfig:"FILE_ENABLE"`
	Filename   string `yaml:"filename" envconfig:"FILENAME"`
}

// AuthConfig verifies session tokens issued by the identity provider.
type AuthConfig struct {
	JwtSecret string `yaml:"jwt_secret" envconfig:"JWT_SECRET"`
	AdminRole string `yaml:"admin_role" envconfig:"ADMIN_ROLE"`
}

// CheckoutConfig controls stock enforcement and loyalty accrual.
type CheckoutConfig struct {
	// StockPolicy is "reject" or "clamp".
	StockPolicy string `yaml:"stock_policy" envconfig:"STOCK_POLICY"`
	// PointsMode is "ratio" (floor(total/PointsDivisor)) or "flat" (PointsFlat per checkout).
	PointsMode    string `yaml:"points_mode" envconfig:"POINTS_MODE"`
	PointsDivisor int64  `yaml:"points_divisor" envconfig:"POINTS_DIVISOR"`
	PointsFlat    int64  `yaml:"points_flat" envconfig:"POINTS_FLAT"`
	MaxLines      int    `yaml:"max_lines" envconfig:"MAX_LINES"`
	LowStockLevel int    `yaml:"low_stock_level" envconfig:"LOW_STOCK_LEVEL"`
}

// RecipesConfig controls recommendations and the suggestion provider.
type RecipesConfig struct {
	Limit       int     `yaml:"limit" envconfig:"LIMIT"`
	GeminiKey   string  `yaml:"gemini_key" envconfig:"GEMINI_KEY"`
	Model       string  `yaml:"model" envconfig:"MODEL"`
	Temperature float32 `yaml:"temperature" envconfig:"TEMPERATURE"`
}

type AppConfig struct {
	System   SysConfig      `yaml:"system" envconfig:"SYSTEM"`
	Web      WebConfig      `yaml:"web" envconfig:"WEB"`
	Database DBConfig       `yaml:"database" envconfig:"DB"`
	Redis    RedisConfig    `yaml:"redis" envconfig:"REDIS"`
	Logger   LogConfig      `yaml:"logger" envconfig:"LOGGER"`
	Auth     AuthConfig     `yaml:"auth" envconfig:"AUTH"`
	Checkout CheckoutConfig `yaml:"checkout" envconfig:"CHECKOUT"`
	Recipes  RecipesConfig  `yaml:"recipes" envconfig:"RECIPES"`
}

func (c *AppConfig) GetLogDir() string {
	return filepath.Join(c.System.Workdir, "logs")
}

func (c *AppConfig) GetDataDir() string {
	return filepath.Join(c.System.Workdir, "data")
}

// InitDirs creates the working directories.
func (c *AppConfig) InitDirs() error {
	for _, dir := range []string{c.GetLogDir(), c.GetDataDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create %s", dir)
		}
	}
	return nil
}

// Validate checks enum-like settings.
func (c *AppConfig) Validate() error {
	switch c.Checkout.StockPolicy {
	case "reject", "clamp":
	default:
		return errors.Errorf("checkout.stock_policy must be reject or clamp, got %q", c.Checkout.StockPolicy)
	}
	switch c.Checkout.PointsMode {
	case "ratio":
		if c.Checkout.PointsDivisor <= 0 {
			return errors.New("checkout.points_divisor must be positive")
		}
	case "flat":
		if c.Checkout.PointsFlat < 0 {
			return errors.New("checkout.points_flat must not be negative")
		}
	default:
		return errors.Errorf("checkout.points_mode must be ratio or flat, got %q", c.Checkout.PointsMode)
	}
	if c.Recipes.Limit <= 0 {
		return errors.New("recipes.limit must be positive")
	}
	return nil
}

// DefaultAppConfig returns the built-in defaults.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		System: SysConfig{
			Appid:    "SmartHealth",
			Location: "Asia/Jakarta",
			Workdir:  "/var/storefront",
		},
		Web: WebConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DBConfig{
			Type:     "postgres",
			Host:     "127.0.0.1",
			Port:     5432,
			Name:     "storefront",
			User:     "postgres",
			Passwd:   "postgres",
			MaxConn:  100,
			IdleConn: 10,
		},
		Redis: RedisConfig{
			URL:          "redis://127.0.0.1:6379/0",
			CartTTLHours: 72,
			DialTimeout:  5,
			ReadTimeout:  3,
			WriteTimeout: 3,
		},
		Logger: LogConfig{
			Mode:     "development",
			Filename: "/var/storefront/logs/storefront.log",
		},
		Auth: AuthConfig{
			AdminRole: "admin",
		},
		Checkout: CheckoutConfig{
			StockPolicy:   "reject",
			PointsMode:    "ratio",
			PointsDivisor: 10000,
			PointsFlat:    10,
			MaxLines:      100,
			LowStockLevel: 5,
		},
		Recipes: RecipesConfig{
			Limit:       5,
			Model:       "gemini-2.0-flash",
			Temperature: 0.4,
		},
	}
}

// LoadConfig reads the YAML file (if any) over the defaults, then applies
// environment overrides. A .env file in the working directory is honoured.
func LoadConfig(cfile string) (*AppConfig, error) {
	cfg := DefaultAppConfig()
	cfile = strings.TrimSpace(cfile)
	if cfile != "" {
		data, err := os.ReadFile(cfile)
		if err != nil {
			return nil, errors.Wrap(err, "read config file")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "parse config file")
		}
	}

	_ = godotenv.Load()
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, errors.Wrap(err, "apply environment")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
