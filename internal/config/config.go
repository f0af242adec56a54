package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	commoncfg "labcatalog/internal/common/config"

	"github.com/joho/godotenv"
)

// Config labcatalog (HTTP API) settings
type Config struct {
	HTTP struct {
		Addr string
	}
	// AppEnv "production" hides internal error details from API responses.
	AppEnv string
	Store  struct {
		Backend string // memory | postgres | sqlite
	}
	Database commoncfg.DatabaseConfig
	SQLite   commoncfg.SQLiteConfig
	Redis    struct {
		Enabled bool
		commoncfg.RedisConfig
	}
	CacheTTL time.Duration
	Log      struct {
		Level  string
		Format string
	}
	Auth AuthConfig
	MQTT struct {
		Enabled     bool
		TopicPrefix string
		commoncfg.MQTTConfig
	}
	Webhook struct {
		URL string
	}
}

// AuthConfig session verification settings
type AuthConfig struct {
	Mode       string // header | jwt
	JWTSecret  string
	CookieName string
}

// IsProduction reports whether error details must be suppressed.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Load reads .env (when present) and then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")
	cfg.AppEnv = getEnv("APP_ENV", "development")

	cfg.Store.Backend = strings.ToLower(getEnv("STORE_BACKEND", "memory"))
	cfg.Database = commoncfg.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "labcatalog",
		SSLMode:  "disable",
		MaxConns: 10,
	}
	cfg.Database.LoadFromEnv("DB")
	cfg.SQLite.Path = getEnv("SQLITE_PATH", "labcatalog.db")

	cfg.Redis.Enabled = getEnv("REDIS_ENABLED", "false") == "true"
	cfg.Redis.RedisConfig = commoncfg.RedisConfig{Addr: "localhost:6379"}
	cfg.Redis.LoadFromEnv("REDIS")
	cfg.CacheTTL = parseDuration(getEnv("CACHE_TTL", "60s"), time.Minute)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Auth.Mode = strings.ToLower(getEnv("AUTH_MODE", "header"))
	cfg.Auth.JWTSecret = getEnv("AUTH_JWT_SECRET", "")
	cfg.Auth.CookieName = getEnv("AUTH_COOKIE_NAME", "session")

	// MQTT event publishing is disabled by default
	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.MQTTConfig = commoncfg.MQTTConfig{Broker: "tcp://localhost:1883", ClientID: "labcatalog"}
	cfg.MQTT.LoadFromEnv("MQTT")
	cfg.MQTT.QoS = byte(parseInt(getEnv("MQTT_QOS", "1"), 1))
	cfg.MQTT.TopicPrefix = getEnv("MQTT_TOPIC_PREFIX", "labcatalog")

	cfg.Webhook.URL = getEnv("NOTIFY_WEBHOOK_URL", "")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return def
	}
	return d
}
