package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"BAZAAR_APP_NAME":                   os.Getenv("BAZAAR_APP_NAME"),
		"BAZAAR_APP_ENV":                    os.Getenv("BAZAAR_APP_ENV"),
		"BAZAAR_APP_PORT":                   os.Getenv("BAZAAR_APP_PORT"),
		"BAZAAR_APP_CURRENCY":               os.Getenv("BAZAAR_APP_CURRENCY"),
		"BAZAAR_DATABASE_HOST":              os.Getenv("BAZAAR_DATABASE_HOST"),
		"BAZAAR_DATABASE_PORT":              os.Getenv("BAZAAR_DATABASE_PORT"),
		"BAZAAR_DATABASE_MAX_OPEN_CONNS":    os.Getenv("BAZAAR_DATABASE_MAX_OPEN_CONNS"),
		"BAZAAR_DATABASE_MAX_IDLE_CONNS":    os.Getenv("BAZAAR_DATABASE_MAX_IDLE_CONNS"),
		"BAZAAR_CART_TTL":                   os.Getenv("BAZAAR_CART_TTL"),
		"BAZAAR_CART_RESERVATION_TTL":       os.Getenv("BAZAAR_CART_RESERVATION_TTL"),
		"BAZAAR_SETTLEMENT_HOLDBACK_PERIOD": os.Getenv("BAZAAR_SETTLEMENT_HOLDBACK_PERIOD"),
		"BAZAAR_SETTLEMENT_COD_FEE_CENTS":   os.Getenv("BAZAAR_SETTLEMENT_COD_FEE_CENTS"),
		"BAZAAR_PAYOUT_FEE_RATE":            os.Getenv("BAZAAR_PAYOUT_FEE_RATE"),
		"BAZAAR_PAYOUT_FEE_FLAT":            os.Getenv("BAZAAR_PAYOUT_FEE_FLAT"),
		"BAZAAR_JWT_SECRET":                 os.Getenv("BAZAAR_JWT_SECRET"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "bazaar-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "USD", cfg.App.Currency)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, 72*time.Hour, cfg.Cart.TTL)
		assert.Equal(t, 30*time.Minute, cfg.Cart.ReservationTTL)
		assert.Equal(t, 24*time.Hour, cfg.Cart.OrderReservationTTL)
		assert.Equal(t, 7*24*time.Hour, cfg.Settlement.HoldbackPeriod)
		assert.Equal(t, int64(299), cfg.Settlement.CodFeeCents)
		assert.Equal(t, 2, cfg.Settlement.ReconcileHour)
		assert.Equal(t, 0, cfg.Settlement.ReconcileMinute)
		assert.Equal(t, 0.25, cfg.Payout.FeeRate)
		assert.Equal(t, int64(25), cfg.Payout.FeeFlat)
	})

	t.Run("loads values from environment variables with BAZAAR prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("BAZAAR_APP_NAME", "test-app")
		os.Setenv("BAZAAR_APP_CURRENCY", "EUR")
		os.Setenv("BAZAAR_DATABASE_HOST", "testdb.local")
		os.Setenv("BAZAAR_DATABASE_PORT", "5433")
		os.Setenv("BAZAAR_CART_TTL", "48h")
		os.Setenv("BAZAAR_CART_RESERVATION_TTL", "10m")
		os.Setenv("BAZAAR_SETTLEMENT_HOLDBACK_PERIOD", "336h")
		os.Setenv("BAZAAR_SETTLEMENT_COD_FEE_CENTS", "199")
		os.Setenv("BAZAAR_PAYOUT_FEE_RATE", "0.5")
		os.Setenv("BAZAAR_PAYOUT_FEE_FLAT", "50")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "EUR", cfg.App.Currency)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, 48*time.Hour, cfg.Cart.TTL)
		assert.Equal(t, 10*time.Minute, cfg.Cart.ReservationTTL)
		assert.Equal(t, 14*24*time.Hour, cfg.Settlement.HoldbackPeriod)
		assert.Equal(t, int64(199), cfg.Settlement.CodFeeCents)
		assert.Equal(t, 0.5, cfg.Payout.FeeRate)
		assert.Equal(t, int64(50), cfg.Payout.FeeFlat)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv()
		os.Setenv("BAZAAR_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("BAZAAR_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects out-of-range payout fee rate", func(t *testing.T) {
		clearEnv()
		os.Setenv("BAZAAR_PAYOUT_FEE_RATE", "120")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "payout.fee_rate")
	})

	t.Run("rejects negative COD fee", func(t *testing.T) {
		clearEnv()
		os.Setenv("BAZAAR_SETTLEMENT_COD_FEE_CENTS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cod_fee_cents")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	originalEnv := map[string]string{
		"BAZAAR_APP_ENV":           os.Getenv("BAZAAR_APP_ENV"),
		"BAZAAR_JWT_SECRET":        os.Getenv("BAZAAR_JWT_SECRET"),
		"BAZAAR_DATABASE_PASSWORD": os.Getenv("BAZAAR_DATABASE_PASSWORD"),
		"BAZAAR_DATABASE_SSLMODE":  os.Getenv("BAZAAR_DATABASE_SSLMODE"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("requires jwt.secret in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("BAZAAR_APP_ENV", "production")
		os.Setenv("BAZAAR_DATABASE_PASSWORD", "secure-password")
		os.Setenv("BAZAAR_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret is required in production")
	})

	t.Run("requires database.password in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("BAZAAR_APP_ENV", "production")
		os.Setenv("BAZAAR_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		os.Setenv("BAZAAR_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("BAZAAR_APP_ENV", "production")
		os.Setenv("BAZAAR_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		os.Setenv("BAZAAR_DATABASE_PASSWORD", "secure-password")
		os.Setenv("BAZAAR_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		clearEnv()
		os.Setenv("BAZAAR_APP_ENV", "production")
		os.Setenv("BAZAAR_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		os.Setenv("BAZAAR_DATABASE_PASSWORD", "secure-password")
		os.Setenv("BAZAAR_DATABASE_SSLMODE", "require")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost")
		assert.Contains(t, dsn, "5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "pass%40word%23123")
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "cache.local", Port: 6380}
	assert.Equal(t, "cache.local:6380", cfg.Addr())
}
