package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:3000", cfg.Server.ListenAddr())
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "flash_tans.db", cfg.Store.SQLitePath)
	assert.True(t, cfg.Seed.SampleProducts)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("DB_PATH", "/tmp/shop.db")
	t.Setenv("FLASHTANS_LOG_LEVEL", "debug")
	t.Setenv("FLASHTANS_SERVER_SHUTDOWN_TIMEOUT", "12s")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8081", cfg.Server.ListenAddr())
	assert.Equal(t, "/tmp/shop.db", cfg.Store.SQLitePath)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 12*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "store:\n  driver: mongo\n  mongo_uri: mongodb://db:27017\n  mongo_database: shop\nseed:\n  sample_products: false\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DriverMongo, cfg.Store.Driver)
	assert.Equal(t, "mongodb://db:27017", cfg.Store.MongoURI)
	assert.Equal(t, "shop", cfg.Store.MongoDatabase)
	assert.False(t, cfg.Seed.SampleProducts)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestStoreConfig_Validate(t *testing.T) {
	assert.NoError(t, StoreConfig{Driver: DriverMemory}.Validate())
	assert.Error(t, StoreConfig{Driver: "oracle"}.Validate())
	assert.Error(t, StoreConfig{Driver: DriverMySQL}.Validate())
	assert.Error(t, StoreConfig{Driver: DriverSQLite}.Validate())
	assert.Error(t, StoreConfig{Driver: DriverMongo, MongoURI: "mongodb://x"}.Validate())
}
