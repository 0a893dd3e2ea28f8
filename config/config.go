// Package config loads gateway settings from an optional config file and the environment
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"storefront-gateway/pricing"
)

// Config is the full gateway configuration
type Config struct {
	Environment string         `mapstructure:"environment"`
	HTTP        HTTPConfig     `mapstructure:"http"`
	Database    DatabaseConfig `mapstructure:"database"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Kafka       KafkaConfig    `mapstructure:"kafka"`
	CartAPI     CartAPIConfig  `mapstructure:"cart_api"`
	Auth        AuthConfig     `mapstructure:"auth"`
	Device      DeviceConfig   `mapstructure:"device"`
	Pricing     PricingConfig  `mapstructure:"pricing"`
	Log         LogConfig      `mapstructure:"log"`
}

// HTTPConfig configures the gateway listener
type HTTPConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig configures Postgres. Leaving everything empty keeps device storage in memory.
type DatabaseConfig struct {
	URL          string `mapstructure:"url"`
	Host         string `mapstructure:"host"`
	Port         string `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
}

// RedisConfig configures the shared view memo. An empty Addr keeps the memo in process.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// KafkaConfig configures the activity publisher. No brokers disables publishing.
type KafkaConfig struct {
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

// CartAPIConfig points at the external cart service
type CartAPIConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	Timeout        time.Duration `mapstructure:"timeout"`
	CleanupTimeout time.Duration `mapstructure:"cleanup_timeout"`
}

// AuthConfig configures bearer token verification
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// DeviceConfig configures the device cookie
type DeviceConfig struct {
	CookieName   string        `mapstructure:"cookie_name"`
	CookieMaxAge time.Duration `mapstructure:"cookie_max_age"`
	SecureCookie bool          `mapstructure:"secure_cookie"`
}

// PricingConfig holds the fallback pricing policy and the summary memo settings
type PricingConfig struct {
	DefaultShippingCharge    float64       `mapstructure:"default_shipping_charge"`
	DefaultTaxRatePercent    float64       `mapstructure:"default_tax_rate_percent"`
	WholesaleDiscountPercent float64       `mapstructure:"wholesale_discount_percent"`
	WholesaleTaxRatePercent  float64       `mapstructure:"wholesale_tax_rate_percent"`
	WholesaleFlatShipping    float64       `mapstructure:"wholesale_flat_shipping"`
	MemoTTL                  time.Duration `mapstructure:"memo_ttl"`
	MemoSize                 int           `mapstructure:"memo_size"`
	CurrencySymbol           string        `mapstructure:"currency_symbol"`
}

// LogConfig configures zap
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// Load reads configPath (optional) and STOREFRONT_* environment variables.
// DATABASE_URL and PORT are honoured as well.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("database.url", "STOREFRONT_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("http.port", "STOREFRONT_HTTP_PORT", "PORT")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 15*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("http.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "storefront.cart-activity")
	v.SetDefault("kafka.batch_timeout", 50*time.Millisecond)

	v.SetDefault("cart_api.base_url", "http://localhost:5000/api")
	v.SetDefault("cart_api.api_key", "")
	v.SetDefault("cart_api.timeout", 5*time.Second)
	v.SetDefault("cart_api.cleanup_timeout", 2*time.Second)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "")

	v.SetDefault("device.cookie_name", "sf_device")
	v.SetDefault("device.cookie_max_age", 365*24*time.Hour)
	v.SetDefault("device.secure_cookie", false)

	policy := pricing.DefaultPolicy()
	v.SetDefault("pricing.default_shipping_charge", policy.DefaultShippingCharge.InexactFloat64())
	v.SetDefault("pricing.default_tax_rate_percent", policy.DefaultTaxRatePercent.InexactFloat64())
	v.SetDefault("pricing.wholesale_discount_percent", policy.WholesaleDiscountPercent.InexactFloat64())
	v.SetDefault("pricing.wholesale_tax_rate_percent", policy.WholesaleTaxRatePercent.InexactFloat64())
	v.SetDefault("pricing.wholesale_flat_shipping", policy.WholesaleFlatShipping.InexactFloat64())
	v.SetDefault("pricing.memo_ttl", 5*time.Second)
	v.SetDefault("pricing.memo_size", 10000)
	v.SetDefault("pricing.currency_symbol", "₹")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTP.Port)
	}
	if c.CartAPI.BaseURL == "" {
		return fmt.Errorf("cart_api.base_url is required")
	}
	if c.Pricing.MemoTTL <= 0 {
		return fmt.Errorf("pricing.memo_ttl must be positive")
	}
	if c.Pricing.MemoSize <= 0 {
		return fmt.Errorf("pricing.memo_size must be positive")
	}
	for name, value := range map[string]float64{
		"default_shipping_charge":    c.Pricing.DefaultShippingCharge,
		"default_tax_rate_percent":   c.Pricing.DefaultTaxRatePercent,
		"wholesale_discount_percent": c.Pricing.WholesaleDiscountPercent,
		"wholesale_tax_rate_percent": c.Pricing.WholesaleTaxRatePercent,
		"wholesale_flat_shipping":    c.Pricing.WholesaleFlatShipping,
	} {
		if value < 0 {
			return fmt.Errorf("pricing.%s cannot be negative", name)
		}
	}
	if c.Pricing.WholesaleDiscountPercent > 100 {
		return fmt.Errorf("pricing.wholesale_discount_percent cannot exceed 100")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic is required when brokers are set")
	}
	return nil
}

// IsProduction reports whether the gateway runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Addr returns the listen address
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DSN returns the Postgres connection string, or "" when no database is configured
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	if c.Host == "" || c.User == "" || c.Name == "" {
		return ""
	}
	port := c.Port
	if port == "" {
		port = "5432"
	}
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, port, c.User, c.Password, c.Name, sslmode)
}

// Policy builds the pricing fallback policy
func (c PricingConfig) Policy() pricing.Policy {
	return pricing.PolicyFromFloats(
		c.DefaultShippingCharge,
		c.DefaultTaxRatePercent,
		c.WholesaleDiscountPercent,
		c.WholesaleTaxRatePercent,
		c.WholesaleFlatShipping,
	)
}
