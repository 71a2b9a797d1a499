package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AI providers.
const (
	ProviderNone   = "none"
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderGroq   = "groq"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Config holds the configuration for the application.
type Config struct {
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string

	AIProvider          string
	GeminiAPIKey        string
	GeminiModel         string
	OpenAIAPIKey        string
	OpenAIModel         string
	OpenAIBaseURL       string
	GroqAPIKey          string
	GroqModel           string
	AITimeout           time.Duration
	AIRequestsPerMinute int

	USDAAPIKey  string
	USDABaseURL string

	StoreDriver   string
	DatabasePath  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CatalogPath  string
	CatalogWatch bool
	RandomSeed   int64

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	TelegramAdminID        int64
}

// IsDevelopment reports whether the app runs in a development environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// NewFromEnv creates a new Config object from environment variables.
// A .env file in the working directory is loaded first when present.
func NewFromEnv() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", 8080)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("AI_PROVIDER", ProviderNone)
	v.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	v.SetDefault("OPENAI_MODEL", "gpt-4.1-mini")
	v.SetDefault("GROQ_MODEL", "llama-3.3-70b-versatile")
	v.SetDefault("AI_TIMEOUT", "20s")
	v.SetDefault("AI_REQUESTS_PER_MINUTE", 15)
	v.SetDefault("USDA_BASE_URL", "https://api.nal.usda.gov/fdc/v1")
	v.SetDefault("STORE_DRIVER", StoreMemory)
	v.SetDefault("DATABASE_PATH", "data/savviwell.db")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CATALOG_WATCH", false)
	v.SetDefault("RANDOM_SEED", 0)

	cfg := &Config{
		Port:                v.GetInt("PORT"),
		Environment:         v.GetString("APP_ENV"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		LogFormat:           v.GetString("LOG_FORMAT"),
		AIProvider:          strings.ToLower(v.GetString("AI_PROVIDER")),
		GeminiAPIKey:        v.GetString("GEMINI_API_KEY"),
		GeminiModel:         v.GetString("GEMINI_MODEL"),
		OpenAIAPIKey:        v.GetString("OPENAI_API_KEY"),
		OpenAIModel:         v.GetString("OPENAI_MODEL"),
		OpenAIBaseURL:       v.GetString("OPENAI_BASE_URL"),
		GroqAPIKey:          v.GetString("GROQ_API_KEY"),
		GroqModel:           v.GetString("GROQ_MODEL"),
		AITimeout:           v.GetDuration("AI_TIMEOUT"),
		AIRequestsPerMinute: v.GetInt("AI_REQUESTS_PER_MINUTE"),
		USDAAPIKey:          v.GetString("USDA_API_KEY"),
		USDABaseURL:         v.GetString("USDA_BASE_URL"),
		StoreDriver:         strings.ToLower(v.GetString("STORE_DRIVER")),
		DatabasePath:        v.GetString("DATABASE_PATH"),
		RedisAddr:           v.GetString("REDIS_ADDR"),
		RedisPassword:       v.GetString("REDIS_PASSWORD"),
		RedisDB:             v.GetInt("REDIS_DB"),
		CatalogPath:         v.GetString("CATALOG_PATH"),
		CatalogWatch:        v.GetBool("CATALOG_WATCH"),
		RandomSeed:          v.GetInt64("RANDOM_SEED"),
		TelegramBotToken:    v.GetString("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL:  v.GetString("TELEGRAM_WEBHOOK_URL"),
		TelegramAdminID:     v.GetInt64("TELEGRAM_ADMIN_ID"),
	}

	ids, err := parseUserIDs(v.GetString("TELEGRAM_ALLOWED_USER_IDS"))
	if err != nil {
		return nil, err
	}
	cfg.TelegramAllowedUserIDs = ids

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.AIProvider {
	case ProviderNone:
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case ProviderGroq:
		if c.GroqAPIKey == "" {
			return fmt.Errorf("GROQ_API_KEY environment variable not set")
		}
	default:
		return fmt.Errorf("unsupported AI_PROVIDER %q", c.AIProvider)
	}

	switch c.StoreDriver {
	case StoreMemory, StoreSQLite:
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR environment variable not set")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}

	if c.AITimeout <= 0 {
		return fmt.Errorf("AI_TIMEOUT must be positive")
	}
	return nil
}

func parseUserIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_ALLOWED_USER_IDS entry %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
