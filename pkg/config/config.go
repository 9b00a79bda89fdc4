package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Carrier  CarrierConfig
	Shop     ShopConfig
	Checkout CheckoutConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GLOWMART_APP_ENV" required:"true"`
	Port         string `envconfig:"GLOWMART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GLOWMART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GLOWMART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type RedisConfig struct {
	URL          string        `envconfig:"GLOWMART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GLOWMART_REDIS_ADDR"`
	Password     string        `envconfig:"GLOWMART_REDIS_PASSWORD"`
	DB           int           `envconfig:"GLOWMART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GLOWMART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GLOWMART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GLOWMART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GLOWMART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GLOWMART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"GLOWMART_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"GLOWMART_JWT_ISSUER" required:"true"`
}

// CarrierConfig points at the shipping carrier used for the
// province/district/ward directory and fee quotes.
type CarrierConfig struct {
	BaseURL string `envconfig:"GLOWMART_CARRIER_BASE_URL" required:"true"`
	Token   string `envconfig:"GLOWMART_CARRIER_TOKEN" required:"true"`

	// Ship-from point for every quote. The warehouse does not move, so
	// these are configuration rather than per-request inputs.
	OriginDistrictID int    `envconfig:"GLOWMART_CARRIER_ORIGIN_DISTRICT_ID" required:"true"`
	OriginWardCode   string `envconfig:"GLOWMART_CARRIER_ORIGIN_WARD_CODE" required:"true"`
	ServiceTypeID    int    `envconfig:"GLOWMART_CARRIER_SERVICE_TYPE_ID" default:"2"`
}

// ShopConfig points at the storefront core services that own carts,
// coupons and orders.
type ShopConfig struct {
	BaseURL string `envconfig:"GLOWMART_SHOP_BASE_URL" required:"true"`
}

type CheckoutConfig struct {
	SessionTTL time.Duration `envconfig:"GLOWMART_CHECKOUT_SESSION_TTL" default:"2h"`
	Currency   string        `envconfig:"GLOWMART_CHECKOUT_CURRENCY" default:"VND"`
}
