package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/ypb/phonebook/internal/identity"
	"github.com/ypb/phonebook/pkg/logger"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	MongoDB   MongoDBConfig
	Badger    BadgerConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Search    SearchConfig
	RateLimit RateLimitConfig
	MinIO     MinIOConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	BaseURL      string
	SiteTitle    string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// StoreConfig selects the page store: memory, mongo or badger.
type StoreConfig struct {
	Driver string
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type BadgerConfig struct {
	Dir string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port, or "" when Redis is not configured.
func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	return r.Host + ":" + r.Port
}

// AuthConfig configures phone-number login. The special numbers bypass the
// phone index and log in as fixed system identities.
type AuthConfig struct {
	Secret         string
	AdminPhone     string
	MobileAppPhone string
	BotPhone       string
	TokenTTL       time.Duration
}

type SearchConfig struct {
	PageSize       int
	PublicTag      string
	PatternTimeout time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

// MinIOConfig is optional; reports are only uploaded when Endpoint is set.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type LogConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "5001")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("SERVER_BASE_URL", "http://localhost:5001")
	v.SetDefault("SERVER_SITE_TITLE", "ספר הטלפונים של ירוחם")
	v.SetDefault("STORE_DRIVER", "memory")
	v.SetDefault("MONGODB_DATABASE", "phonebook")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("BADGER_DIR", "./data/pages")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("AUTH_TOKEN_TTL_DAYS", 3650)
	v.SetDefault("SEARCH_PAGE_SIZE", 30)
	v.SetDefault("SEARCH_PUBLIC_TAG", "ציבורי")
	v.SetDefault("SEARCH_PATTERN_TIMEOUT_MS", 250)
	v.SetDefault("RATE_LIMIT_RPS", 10.0)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	v.SetDefault("MINIO_BUCKET", "phonebook-reports")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			Host:         v.GetString("SERVER_HOST"),
			Environment:  v.GetString("SERVER_ENVIRONMENT"),
			BaseURL:      v.GetString("SERVER_BASE_URL"),
			SiteTitle:    v.GetString("SERVER_SITE_TITLE"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Store: StoreConfig{
			Driver: v.GetString("STORE_DRIVER"),
		},
		MongoDB: MongoDBConfig{
			URI:      v.GetString("MONGODB_URI"),
			Database: v.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Badger: BadgerConfig{
			Dir: v.GetString("BADGER_DIR"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Auth: AuthConfig{
			Secret:         os.Getenv("AUTH_SECRET"),
			AdminPhone:     v.GetString("ADMIN_PHONE_NUMBER"),
			MobileAppPhone: v.GetString("MOBILE_APP_PHONE_NUMBER"),
			BotPhone:       v.GetString("BOT_PHONE_NUMBER"),
			TokenTTL:       time.Duration(v.GetInt("AUTH_TOKEN_TTL_DAYS")) * 24 * time.Hour,
		},
		Search: SearchConfig{
			PageSize:       v.GetInt("SEARCH_PAGE_SIZE"),
			PublicTag:      v.GetString("SEARCH_PUBLIC_TAG"),
			PatternTimeout: time.Duration(v.GetInt("SEARCH_PATTERN_TIMEOUT_MS")) * time.Millisecond,
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		MinIO: MinIOConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if cfg.Auth.Secret == "" {
		logger.Warn("AUTH_SECRET is not set; login tokens will not survive a restart with a different secret")
	}

	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory", "badger":
	case "mongo":
		if c.MongoDB.URI == "" {
			return fmt.Errorf("MONGODB_URI is required when STORE_DRIVER=mongo")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Search.PageSize <= 0 {
		return fmt.Errorf("SEARCH_PAGE_SIZE must be positive, got %d", c.Search.PageSize)
	}
	if c.Search.PublicTag == "" {
		return fmt.Errorf("SEARCH_PUBLIC_TAG must not be empty")
	}
	return nil
}

// SpecialNumbers maps the configured system phone numbers to their display titles.
func (a AuthConfig) SpecialNumbers() map[string]string {
	out := map[string]string{}
	if a.AdminPhone != "" {
		out[identity.StripPhone(a.AdminPhone)] = "מנהל מערכת"
	}
	if a.MobileAppPhone != "" {
		out[identity.StripPhone(a.MobileAppPhone)] = "אפליקציית ספר הטלפונים"
	}
	if a.BotPhone != "" {
		out[identity.StripPhone(a.BotPhone)] = "בוט טלגרם"
	}
	return out
}
