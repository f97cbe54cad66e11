package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/taskey/taskey-api/internal/constants"
)

type Config struct {
	DBDriver      string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBPath        string
	DBLogLevel    string
	RedisHost     string
	RedisPort     string
	SessionStore  string
	SessionSecret string
	GinMode       string
	HTTPAddr      string
	OpenAIAPIKey  string
	OpenAIModel   string

	// Lifecycle tuning
	CheckInWindow         time.Duration
	GrowingMinJobs        int
	StoreTimeout          time.Duration
	RecommendationTimeout time.Duration
	TxMaxRetries          int
	CountdownTick         time.Duration
}

// Load reads configuration from the environment, after merging an optional
// .env file. Variables already set in the environment take precedence.
func Load() *Config {
	envFile := getEnv("TASKEY_ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		log.Printf("config: ignoring env file %s: %v", envFile, err)
	}

	return &Config{
		DBDriver:      getEnv("DB_DRIVER", "mysql"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "3306"),
		DBUser:        getEnv("DB_USER", "taskey"),
		DBPassword:    getEnv("DB_PASSWORD", "taskeypassword"),
		DBName:        getEnv("DB_NAME", "taskey"),
		DBPath:        getEnv("DB_PATH", "taskey.db"),
		DBLogLevel:    getEnv("DB_LOG_LEVEL", "warn"),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		SessionStore:  getEnv("SESSION_STORE", "redis"),
		SessionSecret: getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		GinMode:       getEnv("GIN_MODE", "debug"),
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o"),

		CheckInWindow:         getDuration("CHECKIN_WINDOW", constants.DefaultCheckInWindow),
		GrowingMinJobs:        getInt("GROWING_MIN_JOBS", constants.DefaultGrowingMinJobs),
		StoreTimeout:          getDuration("STORE_TIMEOUT", constants.DefaultStoreTimeout),
		RecommendationTimeout: getDuration("RECOMMENDATION_TIMEOUT", constants.DefaultRecommendationTimeout),
		TxMaxRetries:          getInt("TX_MAX_RETRIES", constants.DefaultTxMaxRetries),
		CountdownTick:         getDuration("COUNTDOWN_TICK", constants.DefaultCountdownTick),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		log.Printf("config: invalid %s=%q, using %d", key, raw, defaultValue)
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		log.Printf("config: invalid %s=%q, using %s", key, raw, defaultValue)
		return defaultValue
	}
	return value
}
