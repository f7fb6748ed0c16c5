package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"
)

// Database drivers
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Config holds all configuration
type Config struct {
	DB         DBConfig
	Redis      RedisConfig
	JWT        JWTConfig
	HTTP       HTTPConfig
	Log        LogConfig
	HostConfig HostConfigStoreConfig
	Bootstrap  BootstrapConfig
	App        AppConfig
	Migrate    bool
}

// DBConfig holds user store database configuration
type DBConfig struct {
	Driver     string
	DSN        string
	SQLitePath string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret        string
	ExpireMinutes int
	Issuer        string
}

// HTTPConfig holds the admin API listener configuration
type HTTPConfig struct {
	Addr              string
	RequestTimeoutSec int
}

// LogConfig holds logrus configuration
type LogConfig struct {
	Level  string
	Format string
}

// HostConfigStoreConfig locates the two host configuration stores
type HostConfigStoreConfig struct {
	File     string
	RedisKey string
	// SyncIntervalSec is how often Redis is checked against the file; 0 disables
	SyncIntervalSec int
}

// BootstrapConfig holds the admin account used to log into the API on first start
type BootstrapConfig struct {
	AdminUser     string
	AdminPassword string
}

// AppConfig holds product identity
type AppConfig struct {
	ProductName string
	Version     string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		DB: DBConfig{
			Driver:     getEnv("DB_DRIVER", DriverMySQL),
			DSN:        getEnv("MYSQL_DSN", ""),
			SQLitePath: getEnv("SQLITE_PATH", "hostcfg.db"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASS", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:        os.Getenv("JWT_SECRET"),
			ExpireMinutes: getEnvInt("JWT_EXPIRE_MINUTES", 1440),
			Issuer:        getEnv("JWT_ISSUER", "go_hostcfg"),
		},
		HTTP: HTTPConfig{
			Addr:              getEnv("HTTP_ADDR", ":8080"),
			RequestTimeoutSec: getEnvInt("HTTP_REQUEST_TIMEOUT_SEC", 30),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		HostConfig: HostConfigStoreConfig{
			File:            getEnv("HOST_CONFIG_FILE", "config.ini"),
			RedisKey:        getEnv("REDIS_CONFIG_KEY", "hostconfig:fields"),
			SyncIntervalSec: getEnvInt("STORE_SYNC_INTERVAL_SEC", 60),
		},
		Bootstrap: BootstrapConfig{
			AdminUser:     getEnv("BOOTSTRAP_ADMIN_USER", ""),
			AdminPassword: getEnv("BOOTSTRAP_ADMIN_PASS", ""),
		},
		App: AppConfig{
			ProductName: getEnv("PRODUCT_NAME", "Sonarr"),
			Version:     getEnv("APP_VERSION", "dev"),
		},
		Migrate: getEnv("MIGRATE", "0") == "1",
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DB.Driver {
	case DriverMySQL:
		if c.DB.DSN == "" {
			return fmt.Errorf("MYSQL_DSN is required")
		}
	case DriverSQLite:
		if c.DB.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.HostConfig.File == "" {
		return fmt.Errorf("HOST_CONFIG_FILE is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// LoadFromINI loads configuration from INI file with environment variable override
func LoadFromINI(iniPath string) (*Config, error) {
	cfgFile, err := ini.Load(iniPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load INI file: %w", err)
	}

	// Priority: ENV > INI > default
	getValue := func(envKey, iniSection, iniKey, defaultValue string) string {
		if value := os.Getenv(envKey); value != "" {
			return value
		}
		if value := cfgFile.Section(iniSection).Key(iniKey).String(); value != "" {
			return value
		}
		return defaultValue
	}

	getValueInt := func(envKey, iniSection, iniKey string, defaultValue int) int {
		if value := os.Getenv(envKey); value != "" {
			if intValue, err := strconv.Atoi(value); err == nil {
				return intValue
			}
		}
		if cfgFile.Section(iniSection).HasKey(iniKey) {
			if value, err := cfgFile.Section(iniSection).Key(iniKey).Int(); err == nil {
				return value
			}
		}
		return defaultValue
	}

	getValueBool := func(envKey, iniSection, iniKey string, defaultValue bool) bool {
		if value := os.Getenv(envKey); value != "" {
			return value == "1" || value == "true"
		}
		if value, err := cfgFile.Section(iniSection).Key(iniKey).Bool(); err == nil {
			return value
		}
		return defaultValue
	}

	cfg := &Config{
		DB: DBConfig{
			Driver:     getValue("DB_DRIVER", "db", "driver", DriverMySQL),
			DSN:        getValue("MYSQL_DSN", "mysql", "dsn", ""),
			SQLitePath: getValue("SQLITE_PATH", "sqlite", "path", "hostcfg.db"),
		},
		Redis: RedisConfig{
			Addr:     getValue("REDIS_ADDR", "redis", "addr", "localhost:6379"),
			Password: getValue("REDIS_PASS", "redis", "pass", ""),
			DB:       getValueInt("REDIS_DB", "redis", "db", 0),
		},
		JWT: JWTConfig{
			Secret:        getValue("JWT_SECRET", "jwt", "secret", ""),
			ExpireMinutes: getEnvInt("JWT_EXPIRE_MINUTES", getValueInt("", "jwt", "expire_seconds", 86400)/60),
			Issuer:        getValue("JWT_ISSUER", "jwt", "issuer", "go_hostcfg"),
		},
		HTTP: HTTPConfig{
			Addr:              getValue("HTTP_ADDR", "http", "addr", ":8080"),
			RequestTimeoutSec: getValueInt("HTTP_REQUEST_TIMEOUT_SEC", "http", "request_timeout_sec", 30),
		},
		Log: LogConfig{
			Level:  getValue("LOG_LEVEL", "log", "level", "info"),
			Format: getValue("LOG_FORMAT", "log", "format", "text"),
		},
		HostConfig: HostConfigStoreConfig{
			File:            getValue("HOST_CONFIG_FILE", "host_config", "file", "config.ini"),
			RedisKey:        getValue("REDIS_CONFIG_KEY", "host_config", "redis_key", "hostconfig:fields"),
			SyncIntervalSec: getValueInt("STORE_SYNC_INTERVAL_SEC", "host_config", "sync_interval_sec", 60),
		},
		Bootstrap: BootstrapConfig{
			AdminUser:     getValue("BOOTSTRAP_ADMIN_USER", "bootstrap", "admin_user", ""),
			AdminPassword: getValue("BOOTSTRAP_ADMIN_PASS", "bootstrap", "admin_pass", ""),
		},
		App: AppConfig{
			ProductName: getValue("PRODUCT_NAME", "app", "product_name", "Sonarr"),
			Version:     getValue("APP_VERSION", "app", "version", "dev"),
		},
		Migrate: getValueBool("MIGRATE", "app", "migrate", false),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
