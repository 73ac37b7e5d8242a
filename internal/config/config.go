package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Queue     QueueConfig
	Storage   StorageConfig
	GitHub    GitHubConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

type MongoDBConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
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

// AuthConfig selects how bearer tokens are verified: OIDC when Issuer is set,
// HS256 with JWTSecret otherwise. AllowInsecure skips signature checks (integration runs only).
type AuthConfig struct {
	JWTSecret     string
	Issuer        string
	ClientID      string
	AllowInsecure bool
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

type QueueConfig struct {
	Key         string
	Concurrency int
	PollTimeout time.Duration
	MaxAttempts int
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	PublicURL string
}

type GitHubConfig struct {
	APIURL     string
	Repository string
	Token      string
	EventType  string
}

// LoadConfig loads configuration from environment variables and an optional .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "5001")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("SERVER_CORS_ORIGINS", "*")
	v.SetDefault("MONGODB_DATABASE", "deckdeckgo")
	v.SetDefault("MONGODB_COLLECTION", "decks")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RATE_LIMIT_ENABLED", false)
	v.SetDefault("RATE_LIMIT_USE_REDIS", false)
	v.SetDefault("RATE_LIMIT_RPS", 5.0)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	v.SetDefault("QUEUE_KEY", "deckgo:tasks")
	v.SetDefault("QUEUE_CONCURRENCY", 1)
	v.SetDefault("QUEUE_POLL_TIMEOUT", 5)
	v.SetDefault("QUEUE_MAX_ATTEMPTS", 3)
	v.SetDefault("STORAGE_BUCKET", "deckdeckgo")
	v.SetDefault("GITHUB_API_URL", "https://api.github.com")
	v.SetDefault("GITHUB_EVENT_TYPE", "deckdeckgo-push")

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			Host:         v.GetString("SERVER_HOST"),
			Environment:  v.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			CORSOrigins:  splitList(v.GetString("SERVER_CORS_ORIGINS")),
		},
		MongoDB: MongoDBConfig{
			URI:        v.GetString("MONGODB_URI"),
			Database:   v.GetString("MONGODB_DATABASE"),
			Collection: v.GetString("MONGODB_COLLECTION"),
			Timeout:    time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Auth: AuthConfig{
			JWTSecret:     os.Getenv("AUTH_JWT_SECRET"),
			Issuer:        v.GetString("AUTH_OIDC_ISSUER"),
			ClientID:      v.GetString("AUTH_OIDC_CLIENT_ID"),
			AllowInsecure: v.GetBool("AUTH_ALLOW_INSECURE"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Queue: QueueConfig{
			Key:         v.GetString("QUEUE_KEY"),
			Concurrency: v.GetInt("QUEUE_CONCURRENCY"),
			PollTimeout: time.Duration(v.GetInt("QUEUE_POLL_TIMEOUT")) * time.Second,
			MaxAttempts: v.GetInt("QUEUE_MAX_ATTEMPTS"),
		},
		Storage: StorageConfig{
			Endpoint:  v.GetString("STORAGE_ENDPOINT"),
			AccessKey: v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: os.Getenv("STORAGE_SECRET_KEY"),
			UseSSL:    v.GetBool("STORAGE_USE_SSL"),
			Bucket:    v.GetString("STORAGE_BUCKET"),
			PublicURL: v.GetString("STORAGE_PUBLIC_URL"),
		},
		GitHub: GitHubConfig{
			APIURL:     v.GetString("GITHUB_API_URL"),
			Repository: v.GetString("GITHUB_REPOSITORY"),
			Token:      os.Getenv("GITHUB_TOKEN"),
			EventType:  v.GetString("GITHUB_EVENT_TYPE"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Queue.Key == "" {
		return fmt.Errorf("QUEUE_KEY must not be empty")
	}
	if c.Queue.Concurrency < 1 {
		return fmt.Errorf("QUEUE_CONCURRENCY must be >= 1, got %d", c.Queue.Concurrency)
	}
	if c.Queue.MaxAttempts < 1 {
		return fmt.Errorf("QUEUE_MAX_ATTEMPTS must be >= 1, got %d", c.Queue.MaxAttempts)
	}
	if c.RateLimit.Enabled && c.RateLimit.RPS <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be > 0 when rate limiting is enabled")
	}
	return nil
}

// splitList parses a comma separated env value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
