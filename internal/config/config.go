package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultIKSBaseURL       = "https://api.intellikidsystems.com/api/v2"
	defaultSourceValue      = "Google Ads - Tanner"
	defaultLocationColumnID = "your_preferred_option"
)

// Config holds application configuration
type Config struct {
	Port      string
	Env       string
	LogLevel  string
	LogFormat string

	// Inbound
	GoogleLeadKey         string
	LocationQuestionColID string
	EnableEcho            bool
	RateLimitRPS          float64
	RateLimitBurst        int
	CORSAllowedOrigins    []string

	// Downstream CRM
	IKSToken           string
	IKSBaseURL         string
	UpstreamTimeout    time.Duration
	ForwardVariants    []string
	SourceValue        string
	ForceSource        bool
	CountryCallingCode string
	LocationKeywords   string

	// Optional shared rate limiter backend
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "3000"),
		Env:       getEnv("ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		GoogleLeadKey:         getEnv("GOOGLE_LEAD_KEY", ""),
		LocationQuestionColID: getEnv("LOCATION_QUESTION_COL_ID", defaultLocationColumnID),
		EnableEcho:            getEnvAsBool("ENABLE_ECHO", true),
		RateLimitRPS:          getEnvAsFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:        getEnvAsInt("RATE_LIMIT_BURST", 20),
		CORSAllowedOrigins:    getEnvAsList("CORS_ALLOWED_ORIGINS", nil),

		IKSToken:           getEnv("IKS_TOKEN", ""),
		IKSBaseURL:         strings.TrimRight(getEnv("IKS_BASE_URL", defaultIKSBaseURL), "/"),
		UpstreamTimeout:    getEnvAsDuration("UPSTREAM_TIMEOUT", 15*time.Second),
		ForwardVariants:    getEnvAsList("FORWARD_VARIANTS", []string{"both", "location_id", "location"}),
		SourceValue:        strings.TrimSpace(getEnv("SOURCE_VALUE", defaultSourceValue)),
		ForceSource:        getEnvAsBool("FORCE_SOURCE", true),
		CountryCallingCode: getEnv("COUNTRY_CALLING_CODE", "+1"),
		LocationKeywords:   getEnv("LOCATION_KEYWORDS", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
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
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping blank entries.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
