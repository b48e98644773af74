package configs

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Session  SessionConfig
	Log      LogConfig
}

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	TLSCertFile  string
	TLSKeyFile   string
}

// UpstreamConfig describes the remote HR API the console talks to.
type UpstreamConfig struct {
	BaseURL  string
	Timeout  time.Duration
	PageSize int
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	// Pool and timeout settings
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration
	IdleTimeout  time.Duration
}

type CacheConfig struct {
	AdminTTL       time.Duration // admin list payloads
	FeedTTL        time.Duration // public testimonials feed
	MaxEntryAge    time.Duration // absolute-age housekeeping eviction
	RefreshDelay   time.Duration // background refresh after serving cached admin data
	FeedDelay      time.Duration // deferred refresh after serving cached feed data
	SearchDebounce time.Duration
	KeyPrefix      string
}

type SessionConfig struct {
	DataKey  string
	TypeKey  string
	TokenKey string
}

type LogConfig struct {
	Level  string
	Format string // json or text
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
			TLSCertFile:  getEnv("TLS_CERT_FILE", ""),
			TLSKeyFile:   getEnv("TLS_KEY_FILE", ""),
		},
		Upstream: UpstreamConfig{
			BaseURL:  getEnvRequired("UPSTREAM_BASE_URL"),
			Timeout:  getDurationEnv("UPSTREAM_TIMEOUT", 15*time.Second),
			PageSize: getIntEnv("UPSTREAM_PAGE_SIZE", 10),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getIntEnv("REDIS_DB", 0),
			PoolSize:     getIntEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns: getIntEnv("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolTimeout:  getDurationEnv("REDIS_POOL_TIMEOUT", 4*time.Second),
			IdleTimeout:  getDurationEnv("REDIS_IDLE_TIMEOUT", 5*time.Minute),
		},
		Cache: CacheConfig{
			AdminTTL:       getDurationEnv("CACHE_ADMIN_TTL", 5*time.Minute),
			FeedTTL:        getDurationEnv("CACHE_FEED_TTL", 10*time.Minute),
			MaxEntryAge:    getDurationEnv("CACHE_MAX_ENTRY_AGE", 30*time.Minute),
			RefreshDelay:   getDurationEnv("CACHE_REFRESH_DELAY", time.Second),
			FeedDelay:      getDurationEnv("FEED_REFRESH_DELAY", 500*time.Millisecond),
			SearchDebounce: getDurationEnv("SEARCH_DEBOUNCE", 300*time.Millisecond),
			KeyPrefix:      getEnv("CACHE_KEY_PREFIX", "hrconsole"),
		},
		Session: SessionConfig{
			DataKey:  getEnv("SESSION_DATA_KEY", "adminData"),
			TypeKey:  getEnv("SESSION_TYPE_KEY", "adminType"),
			TokenKey: getEnv("SESSION_TOKEN_KEY", "adminToken"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvRequired(key string) string {
	value := os.Getenv(key)
	if value == "" {
		panic(fmt.Sprintf("Required environment variable %s is not set", key))
	}
	return value
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
