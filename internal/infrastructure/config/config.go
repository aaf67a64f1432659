package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Log        LogConfig
	HTTP       HTTPConfig
	Cart       CartConfig
	Pricing    PricingConfig
	Settlement SettlementConfig
	Payout     PayoutConfig
	Scheduler  SchedulerConfig
	Stripe     StripeConfig
	S3         S3Config
	Kafka      KafkaConfig
	Telemetry  TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name     string
	Env      string
	Port     string
	Currency string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// CartConfig holds cart and reservation lifetimes
type CartConfig struct {
	TTL                 time.Duration // idle cart lifetime, refreshed on mutation
	ReservationTTL      time.Duration // cart-held stock reservation lifetime
	OrderReservationTTL time.Duration // order-held reservation lifetime before fulfillment
	SweepInterval       time.Duration // how often expired reservations are released
	SweepBatchSize      int
}

// PricingConfig holds checkout tax and shipping parameters
type PricingConfig struct {
	TaxRate                float64            // default percent applied to the taxed amount
	TaxRateByCountry       map[string]float64 // ISO country overrides, e.g. "DE" = 19
	ShippingFeeCents       int64              // flat fee per vendor group
	FreeShippingAboveCents int64              // group total that waives the fee, 0 disables
}

// SettlementConfig holds earning and COD settlement parameters
type SettlementConfig struct {
	HoldbackPeriod    time.Duration // delivered-to-available delay on vendor earnings
	CodFeeCents       int64
	PromoteInterval   time.Duration // how often due earnings are promoted
	PromoteBatchSize  int
	ReconcileHour     int // local hour the nightly COD reconciliation runs
	ReconcileMinute   int
	ReconcileLockTTL  time.Duration
	ReconcileTimezone string
}

// PayoutConfig holds payout batch fee parameters
type PayoutConfig struct {
	FeeRate float64 // percent of batch amount, e.g. 0.5 = 0.5%
	FeeFlat int64   // flat fee in cents per batch
}

// SchedulerConfig holds background job configuration
type SchedulerConfig struct {
	Enabled    bool
	JobTimeout time.Duration
}

// StripeConfig holds Stripe API settings
type StripeConfig struct {
	APIKey        string
	WebhookSecret string
}

// S3Config holds object storage settings for vendor KYC documents
type S3Config struct {
	Region         string
	Bucket         string
	Endpoint       string // custom endpoint for minio/localstack, empty for AWS
	AccessKey      string // static credentials for self-hosted backends; empty uses the default chain
	SecretKey      string
	ForcePathStyle bool
	PresignExpiry  time.Duration
}

// KafkaConfig holds Kafka producer settings for domain event publishing
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	DBTraceEnabled    bool
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with BAZAAR_ prefix (e.g., BAZAAR_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("BAZAAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:     v.GetString("app.name"),
			Env:      v.GetString("app.env"),
			Port:     v.GetString("app.port"),
			Currency: v.GetString("app.currency"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:     v.GetString("jwt.secret"),
			Expiration: v.GetDuration("jwt.expiration"),
			Issuer:     v.GetString("jwt.issuer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Cart: CartConfig{
			TTL:                 v.GetDuration("cart.ttl"),
			ReservationTTL:      v.GetDuration("cart.reservation_ttl"),
			OrderReservationTTL: v.GetDuration("cart.order_reservation_ttl"),
			SweepInterval:       v.GetDuration("cart.sweep_interval"),
			SweepBatchSize:      v.GetInt("cart.sweep_batch_size"),
		},
		Pricing: PricingConfig{
			TaxRate:                v.GetFloat64("pricing.tax_rate"),
			TaxRateByCountry:       toFloatMap(v.GetStringMapString("pricing.tax_rate_by_country")),
			ShippingFeeCents:       v.GetInt64("pricing.shipping_fee_cents"),
			FreeShippingAboveCents: v.GetInt64("pricing.free_shipping_above_cents"),
		},
		Settlement: SettlementConfig{
			HoldbackPeriod:    v.GetDuration("settlement.holdback_period"),
			CodFeeCents:       v.GetInt64("settlement.cod_fee_cents"),
			PromoteInterval:   v.GetDuration("settlement.promote_interval"),
			PromoteBatchSize:  v.GetInt("settlement.promote_batch_size"),
			ReconcileHour:     v.GetInt("settlement.reconcile_hour"),
			ReconcileMinute:   v.GetInt("settlement.reconcile_minute"),
			ReconcileLockTTL:  v.GetDuration("settlement.reconcile_lock_ttl"),
			ReconcileTimezone: v.GetString("settlement.reconcile_timezone"),
		},
		Payout: PayoutConfig{
			FeeRate: v.GetFloat64("payout.fee_rate"),
			FeeFlat: v.GetInt64("payout.fee_flat"),
		},
		Scheduler: SchedulerConfig{
			Enabled:    v.GetBool("scheduler.enabled"),
			JobTimeout: v.GetDuration("scheduler.job_timeout"),
		},
		Stripe: StripeConfig{
			APIKey:        v.GetString("stripe.api_key"),
			WebhookSecret: v.GetString("stripe.webhook_secret"),
		},
		S3: S3Config{
			Region:         v.GetString("s3.region"),
			Bucket:         v.GetString("s3.bucket"),
			Endpoint:       v.GetString("s3.endpoint"),
			AccessKey:      v.GetString("s3.access_key"),
			SecretKey:      v.GetString("s3.secret_key"),
			ForcePathStyle: v.GetBool("s3.force_path_style"),
			PresignExpiry:  v.GetDuration("s3.presign_expiry"),
		},
		Kafka: KafkaConfig{
			Enabled: v.GetBool("kafka.enabled"),
			Brokers: v.GetStringSlice("kafka.brokers"),
			Topic:   v.GetString("kafka.topic"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// toFloatMap converts viper's string map into country rate overrides,
// skipping entries that do not parse
func toFloatMap(in map[string]string) map[string]float64 {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]float64, len(in))
	for k, raw := range in {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			out[strings.ToUpper(k)] = f
		}
	}
	return out
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "bazaar-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.App.Currency == "" {
		cfg.App.Currency = "USD"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "bazaar"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.Expiration == 0 {
		cfg.JWT.Expiration = 24 * time.Hour
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "bazaar-backend"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Cart.TTL == 0 {
		cfg.Cart.TTL = 72 * time.Hour
	}
	if cfg.Cart.ReservationTTL == 0 {
		cfg.Cart.ReservationTTL = 30 * time.Minute
	}
	if cfg.Cart.OrderReservationTTL == 0 {
		cfg.Cart.OrderReservationTTL = 24 * time.Hour
	}
	if cfg.Cart.SweepInterval == 0 {
		cfg.Cart.SweepInterval = time.Minute
	}
	if cfg.Cart.SweepBatchSize == 0 {
		cfg.Cart.SweepBatchSize = 200
	}
	if cfg.Settlement.HoldbackPeriod == 0 {
		cfg.Settlement.HoldbackPeriod = 7 * 24 * time.Hour
	}
	if cfg.Settlement.CodFeeCents == 0 {
		cfg.Settlement.CodFeeCents = 299
	}
	if cfg.Settlement.PromoteInterval == 0 {
		cfg.Settlement.PromoteInterval = time.Hour
	}
	if cfg.Settlement.PromoteBatchSize == 0 {
		cfg.Settlement.PromoteBatchSize = 200
	}
	if cfg.Settlement.ReconcileHour == 0 && cfg.Settlement.ReconcileMinute == 0 {
		cfg.Settlement.ReconcileHour = 2 // 2am local time
	}
	if cfg.Settlement.ReconcileLockTTL == 0 {
		cfg.Settlement.ReconcileLockTTL = 10 * time.Minute
	}
	if cfg.Settlement.ReconcileTimezone == "" {
		cfg.Settlement.ReconcileTimezone = "UTC"
	}
	if cfg.Payout.FeeRate == 0 {
		cfg.Payout.FeeRate = 0.25
	}
	if cfg.Payout.FeeFlat == 0 {
		cfg.Payout.FeeFlat = 25
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = 10 * time.Minute
	}
	if cfg.S3.Region == "" {
		cfg.S3.Region = "us-east-1"
	}
	if cfg.S3.Bucket == "" {
		cfg.S3.Bucket = "bazaar-vendor-docs"
	}
	if cfg.S3.PresignExpiry == 0 {
		cfg.S3.PresignExpiry = 15 * time.Minute
	}
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{"localhost:9092"}
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "bazaar.domain-events"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "bazaar-backend"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Payout.FeeRate < 0 || c.Payout.FeeRate > 100 {
		return fmt.Errorf("payout.fee_rate must be between 0 and 100, got %f", c.Payout.FeeRate)
	}
	if c.Settlement.CodFeeCents < 0 {
		return fmt.Errorf("settlement.cod_fee_cents cannot be negative")
	}
	if c.Settlement.ReconcileHour < 0 || c.Settlement.ReconcileHour > 23 {
		return fmt.Errorf("settlement.reconcile_hour must be between 0 and 23, got %d", c.Settlement.ReconcileHour)
	}
	if c.Settlement.ReconcileMinute < 0 || c.Settlement.ReconcileMinute > 59 {
		return fmt.Errorf("settlement.reconcile_minute must be between 0 and 59, got %d", c.Settlement.ReconcileMinute)
	}
	if _, err := time.LoadLocation(c.Settlement.ReconcileTimezone); err != nil {
		return fmt.Errorf("settlement.reconcile_timezone is not a valid timezone: %w", err)
	}

	if c.App.Env == "production" {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the host:port address for the Redis connection
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
