package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "test",
			Password: "test",
			Database: "test_db",
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: 6379,
		},
		Provider: ProviderConfig{
			AccessToken:     "APP_USR-test-token",
			BaseURL:         "https://api.mercadopago.com",
			NotificationURL: "https://relay.example.com/payment-webhook",
			Currency:        "ARS",
			Timeout:         10 * time.Second,
		},
		Sweeper: SweeperConfig{
			Interval:   time.Minute,
			StaleAfter: 15 * time.Minute,
			BatchSize:  50,
		},
	}
}

func TestConfig_Validate_Success(t *testing.T) {
	err := validConfig().Validate()
	assert.NoError(t, err)
}

func TestConfig_Validate_InvalidServerPort(t *testing.T) {
	tests := []struct {
		name string
		port int
	}{
		{"port too low", 0},
		{"port negative", -1},
		{"port too high", 99999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Server.Port = tt.port

			err := cfg.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), "server.port")
		})
	}
}

func TestConfig_Validate_MissingAccessToken(t *testing.T) {
	cfg := validConfig()
	cfg.Provider.AccessToken = ""

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "provider.access_token")
}

func TestConfig_Validate_MissingNotificationURL(t *testing.T) {
	cfg := validConfig()
	cfg.Provider.NotificationURL = ""

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "provider.notification_url")
}

func TestConfig_Validate_BadCurrency(t *testing.T) {
	for _, currency := range []string{"", "AR", "PESO"} {
		cfg := validConfig()
		cfg.Provider.Currency = currency

		err := cfg.Validate()
		assert.Error(t, err, "currency %q should be rejected", currency)
		assert.Contains(t, err.Error(), "provider.currency")
	}
}

func TestConfig_Validate_MissingDatabaseHost(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Host = ""

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database.host")
}

func TestConfig_Validate_InvalidSweeper(t *testing.T) {
	cfg := validConfig()
	cfg.Sweeper.BatchSize = 0

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sweeper.batch_size")
}

// Validate reports every problem, not just the first one.
func TestConfig_Validate_JoinsErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Provider.AccessToken = ""
	cfg.Provider.NotificationURL = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider.access_token")
	assert.Contains(t, err.Error(), "provider.notification_url")
}

func TestLoad_AppliesDefaults(t *testing.T) {
	t.Setenv("PAYRELAY_PROVIDER_ACCESS_TOKEN", "APP_USR-test-token")
	t.Setenv("PAYRELAY_PROVIDER_NOTIFICATION_URL", "https://relay.example.com/payment-webhook")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "ARS", cfg.Provider.Currency)
	assert.Equal(t, "https://api.mercadopago.com", cfg.Provider.BaseURL)
	assert.Equal(t, 15*time.Minute, cfg.Sweeper.StaleAfter)
	assert.Equal(t, "payrelay-1", cfg.InstanceID)
}

func TestLoad_FailsFastWithoutRequiredValues(t *testing.T) {
	// No access token or notification URL in the environment.
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider.access_token")
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &DatabaseConfig{
		Host: "db", Port: 5432, User: "u", Password: "p", Database: "payrelay", SSLMode: "disable",
	}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=payrelay sslmode=disable", cfg.DatabaseDSN())
}

func TestRedisAddr(t *testing.T) {
	cfg := &RedisConfig{Host: "cache", Port: 6379}
	assert.Equal(t, "cache:6379", cfg.RedisAddr())
}
