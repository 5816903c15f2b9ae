package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageMongo, cfg.Storage.Driver)
	assert.Equal(t, "0.0.0.0:8081", cfg.Server.Address())
	assert.Equal(t, 100, cfg.Pagination.MaxCategories)
	assert.Equal(t, 1000, cfg.Pagination.MaxSubcategories)
	assert.Equal(t, 100, cfg.Pagination.MaxProducts)
	assert.Equal(t, "catalog_events", cfg.Kafka.Topic)
	assert.Equal(t, 5*time.Minute, cfg.Redis.TTL)
	assert.Empty(t, cfg.Server.TrustedProxies)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Postgres")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("PAGINATION_MAX_SUBCATEGORIES", "500")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://admin.example.com,https://staging.example.com")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1, 172.16.0.0/12")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoragePostgres, cfg.Storage.Driver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 500, cfg.Pagination.MaxSubcategories)
	assert.Equal(t, 30*time.Second, cfg.Redis.TTL)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 2.5, cfg.RateLimit.RPS)
	assert.Len(t, cfg.CORS.AllowedOrigins, 2)
	assert.Equal(t, []string{"10.0.0.1", "172.16.0.0/12"}, cfg.Server.TrustedProxies)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"REDIS_DB", "zero"},
		{"CACHE_TTL", "5 minutes"},
		{"KAFKA_ENABLED", "maybe"},
		{"RATE_LIMIT_RPS", "fast"},
		{"STORAGE_DRIVER", "sqlite"},
		{"TRUSTED_PROXIES", "10.0.0.1,proxy.local"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()
			assert.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "catalog", SSLMode: "disable"}

	assert.Equal(t, "host=db port=5432 user=u password=p dbname=catalog sslmode=disable", c.DSN())
}
