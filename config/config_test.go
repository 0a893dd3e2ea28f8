package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "sf_device", cfg.Device.CookieName)
	assert.Equal(t, 5*time.Second, cfg.Pricing.MemoTTL)
	assert.Empty(t, cfg.Database.DSN())
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.False(t, cfg.IsProduction())

	policy := cfg.Pricing.Policy()
	assert.True(t, decimal.NewFromInt(50).Equal(policy.DefaultShippingCharge))
	assert.True(t, decimal.NewFromInt(18).Equal(policy.DefaultTaxRatePercent))
	assert.True(t, decimal.NewFromInt(10).Equal(policy.WholesaleDiscountPercent))
	assert.True(t, decimal.NewFromInt(18).Equal(policy.WholesaleTaxRatePercent))
	assert.True(t, decimal.NewFromInt(100).Equal(policy.WholesaleFlatShipping))
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/storefront")
	t.Setenv("STOREFRONT_CART_API_BASE_URL", "https://carts.internal/api")
	t.Setenv("STOREFRONT_PRICING_MEMO_TTL", "2s")
	t.Setenv("STOREFRONT_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("STOREFRONT_PRICING_DEFAULT_SHIPPING_CHARGE", "40")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "postgres://u:p@db:5432/storefront", cfg.Database.DSN())
	assert.Equal(t, "https://carts.internal/api", cfg.CartAPI.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.Pricing.MemoTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, decimal.NewFromInt(40).Equal(cfg.Pricing.Policy().DefaultShippingCharge))
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storefront.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
environment: production
cart_api:
  base_url: https://carts.example.com
database:
  host: db
  user: storefront
  name: storefront
redis:
  addr: redis:6379
pricing:
  wholesale_flat_shipping: 120
`), 0o600))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "host=db port=5432 user=storefront password= dbname=storefront sslmode=disable", cfg.Database.DSN())
	assert.True(t, decimal.NewFromInt(120).Equal(cfg.Pricing.Policy().WholesaleFlatShipping))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	cfg := base()
	cfg.HTTP.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.CartAPI.BaseURL = ""
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Pricing.DefaultTaxRatePercent = -1
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Pricing.WholesaleDiscountPercent = 150
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Kafka.Brokers = []string{"k1:9092"}
	cfg.Kafka.Topic = ""
	assert.Error(t, cfg.Validate())
}
