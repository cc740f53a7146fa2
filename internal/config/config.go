package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string

	OpenAIAPIKey string
	IntentModel  string
	AgentModel   string
	LLMTimeout   time.Duration

	// Reference data (Google Sheets).
	SheetsSpreadsheetID string
	SheetsCredentials   string
	SheetDoctors        string
	SheetBranches       string
	SheetServices       string
	SheetAvailability   string
	DataCacheTTL        time.Duration

	IntentCacheTTL time.Duration
	AgentCacheTTL  time.Duration

	// External booking sync (best-effort).
	BookingSyncURL string

	RateLimitPerMinute int
	Timezone           string
	AllowedOrigins     []string

	// Platform webhook credentials.
	WhatsAppVerifyToken    string
	WhatsAppWebhookSecret  string
	WhatsAppAPIURL         string
	WhatsAppAccessToken    string
	InstagramWebhookSecret string
	TikTokWebhookSecret    string
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		IntentModel:  getEnv("LLM_MODEL_INTENT", "gpt-4o-mini"),
		AgentModel:   getEnv("LLM_MODEL_AGENT", "gpt-4o-mini"),
		LLMTimeout:   getEnvAsDuration("LLM_TIMEOUT", 20*time.Second),

		SheetsSpreadsheetID: getEnv("GOOGLE_SHEETS_ID", ""),
		SheetsCredentials:   getEnv("GOOGLE_SHEETS_CREDENTIALS", ""),
		SheetDoctors:        getEnv("GOOGLE_SHEETS_DOCTORS_SHEET", "01_doctors"),
		SheetBranches:       getEnv("GOOGLE_SHEETS_BRANCHES_SHEET", "02_branches"),
		SheetServices:       getEnv("GOOGLE_SHEETS_SERVICES_SHEET", "03_services"),
		SheetAvailability:   getEnv("GOOGLE_SHEETS_AVAILABILITY_SHEET", "04_doctor_availability"),
		DataCacheTTL:        getEnvAsDuration("CACHE_TTL", time.Hour),

		IntentCacheTTL: getEnvAsDuration("INTENT_CACHE_TTL", 5*time.Minute),
		AgentCacheTTL:  getEnvAsDuration("AGENT_CACHE_TTL", time.Minute),

		BookingSyncURL: getEnv("BOOKING_SYNC_URL", ""),

		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 10),
		Timezone:           getEnv("TIMEZONE", "Asia/Riyadh"),
		AllowedOrigins:     getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),

		WhatsAppVerifyToken:    getEnv("WHATSAPP_VERIFY_TOKEN", ""),
		WhatsAppWebhookSecret:  getEnv("WHATSAPP_WEBHOOK_SECRET", ""),
		WhatsAppAPIURL:         getEnv("WHATSAPP_API_URL", ""),
		WhatsAppAccessToken:    getEnv("WHATSAPP_ACCESS_TOKEN", ""),
		InstagramWebhookSecret: getEnv("INSTAGRAM_WEBHOOK_SECRET", ""),
		TikTokWebhookSecret:    getEnv("TIKTOK_WEBHOOK_SECRET", ""),
	}
}

// IsProduction reports whether the service runs with production error envelopes.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	// Bare integers are treated as seconds for compatibility with older deployments.
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
