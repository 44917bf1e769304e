package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable consumed by the dashboard.
const EnvPrefix = "ONYX"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App      AppConfig
	Auth     AuthConfig
	Airtable AirtableConfig
	Stripe   StripeConfig
	EasyPost EasyPostConfig
	Redis    RedisConfig
	Verify   VerifyConfig
	ShipFrom ShipFromConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ONYX_APP_ENV" required:"true"`
	Port         string `envconfig:"ONYX_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ONYX_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ONYX_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AuthConfig carries the static staff token. There is no user database;
// the dashboard is a single shared-credential internal tool.
type AuthConfig struct {
	StaffToken string `envconfig:"ONYX_STAFF_TOKEN" required:"true"`
}

type AirtableConfig struct {
	APIKey          string        `envconfig:"ONYX_AIRTABLE_API_KEY" required:"true"`
	BaseID          string        `envconfig:"ONYX_AIRTABLE_BASE_ID" required:"true"`
	BaseURL         string        `envconfig:"ONYX_AIRTABLE_BASE_URL"`
	OrdersTable     string        `envconfig:"ONYX_AIRTABLE_ORDERS_TABLE" default:"orders"`
	ProductsTable   string        `envconfig:"ONYX_AIRTABLE_PRODUCTS_TABLE" default:"products"`
	AffiliatesTable string        `envconfig:"ONYX_AIRTABLE_AFFILIATES_TABLE" default:"affiliates"`
	Timeout         time.Duration `envconfig:"ONYX_AIRTABLE_TIMEOUT" default:"15s"`
}

type StripeConfig struct {
	APIKey string `envconfig:"ONYX_STRIPE_API_KEY"`
	Env    string `envconfig:"ONYX_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type EasyPostConfig struct {
	APIKey  string        `envconfig:"ONYX_EASYPOST_API_KEY"`
	BaseURL string        `envconfig:"ONYX_EASYPOST_BASE_URL"`
	Timeout time.Duration `envconfig:"ONYX_EASYPOST_TIMEOUT" default:"20s"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ONYX_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ONYX_REDIS_ADDR"`
	Password     string        `envconfig:"ONYX_REDIS_PASSWORD"`
	DB           int           `envconfig:"ONYX_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ONYX_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ONYX_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ONYX_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ONYX_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ONYX_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// VerifyConfig tunes the payment verification cache and the per-page
// lookup fan-out against Stripe.
type VerifyConfig struct {
	CacheTTL    time.Duration `envconfig:"ONYX_VERIFY_CACHE_TTL" default:"30m"`
	Concurrency int           `envconfig:"ONYX_VERIFY_CONCURRENCY" default:"4"`
}

// ShipFromConfig is the warehouse return address stamped on every label.
type ShipFromConfig struct {
	Name    string `envconfig:"ONYX_SHIP_FROM_NAME"`
	Street1 string `envconfig:"ONYX_SHIP_FROM_STREET1"`
	Street2 string `envconfig:"ONYX_SHIP_FROM_STREET2"`
	City    string `envconfig:"ONYX_SHIP_FROM_CITY"`
	State   string `envconfig:"ONYX_SHIP_FROM_STATE"`
	Zip     string `envconfig:"ONYX_SHIP_FROM_ZIP"`
	Country string `envconfig:"ONYX_SHIP_FROM_COUNTRY" default:"US"`
	Phone   string `envconfig:"ONYX_SHIP_FROM_PHONE"`
}
