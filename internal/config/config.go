package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
	DriverMongo  = "mongo"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Store  StoreConfig  `mapstructure:"store"`
	Log    LogConfig    `mapstructure:"log"`
	Seed   SeedConfig   `mapstructure:"seed"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ListenAddr addr, либо 0.0.0.0:port, если задан только порт
func (s ServerConfig) ListenAddr() string {
	if s.Port != "" {
		return "0.0.0.0:" + s.Port
	}
	return s.Addr
}

type StoreConfig struct {
	Driver        string `mapstructure:"driver"`
	SQLitePath    string `mapstructure:"sqlite_path"`
	MySQLDSN      string `mapstructure:"mysql_dsn"`
	MaxOpenConns  int    `mapstructure:"max_open_conns"`
	MongoURI      string `mapstructure:"mongo_uri"`
	MongoDatabase string `mapstructure:"mongo_database"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SeedConfig struct {
	SampleProducts bool `mapstructure:"sample_products"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "0.0.0.0:3000")
	v.SetDefault("server.port", "")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("store.sqlite_path", "flash_tans.db")
	v.SetDefault("store.mysql_dsn", "")
	v.SetDefault("store.max_open_conns", 10)
	v.SetDefault("store.mongo_uri", "mongodb://localhost:27017/flash_tans")
	v.SetDefault("store.mongo_database", "flash_tans")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("seed.sample_products", true)
}

// LoadConfig loads configuration from an optional config.yaml and environment variables.
// path, if set, points at an explicit file that must exist.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./")
		v.AddConfigPath("./deploy/")
		v.AddConfigPath("/etc/flashtans/")
	}

	// FLASHTANS_STORE_DRIVER etc.
	v.SetEnvPrefix("FLASHTANS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// environment names the storefront has always honoured
	_ = v.BindEnv("server.port", "FLASHTANS_SERVER_PORT", "PORT")
	_ = v.BindEnv("store.sqlite_path", "FLASHTANS_STORE_SQLITE_PATH", "DB_PATH")
	_ = v.BindEnv("store.mongo_uri", "FLASHTANS_STORE_MONGO_URI", "MONGO_URI")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate проверяет, что выбранный драйвер хранилища настроен
func (c *Config) Validate() error {
	return c.Store.Validate()
}

func (s StoreConfig) Validate() error {
	switch s.Driver {
	case DriverMemory:
		return nil
	case DriverSQLite:
		if s.SQLitePath == "" {
			return errors.New("store.sqlite_path is required for sqlite")
		}
	case DriverMySQL:
		if s.MySQLDSN == "" {
			return errors.New("store.mysql_dsn is required for mysql")
		}
	case DriverMongo:
		if s.MongoURI == "" || s.MongoDatabase == "" {
			return errors.New("store.mongo_uri and store.mongo_database are required for mongo")
		}
	default:
		return fmt.Errorf("unknown store driver %q", s.Driver)
	}
	return nil
}
