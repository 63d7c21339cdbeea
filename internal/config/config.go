package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App      *AppConfig      `yaml:"app"`
	Database *DatabaseConfig `yaml:"database"`
	Redis    *RedisConfig    `yaml:"redis"`
	Engine   *EngineConfig   `yaml:"engine"`
	Security *SecurityConfig `yaml:"security"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
	Port        int    `yaml:"port"`
	Host        string `yaml:"host"`
	Debug       bool   `yaml:"debug"`
	LogLevel    string `yaml:"log_level"`
	Currency    string `yaml:"currency"`
}

// EngineConfig carries the money rules of the booking engine. The platform
// fee percentage is read at booking creation only; a booking keeps the fee
// it was created with even if the configuration changes later.
type EngineConfig struct {
	PlatformFeePercent   float64 `yaml:"platform_fee_percent"`
	MinWithdrawalAmount  int64   `yaml:"min_withdrawal_amount"`
	MinFundingAmount     int64   `yaml:"min_funding_amount"`
	ReferralLevel1Pct    float64 `yaml:"referral_level1_pct"`
	ReferralLevel2Pct    float64 `yaml:"referral_level2_pct"`
	ReferralLevel3Pct    float64 `yaml:"referral_level3_pct"`
}

type SecurityConfig struct {
	JWTSecret          string        `yaml:"jwt_secret"`
	JWTAccessTokenTTL  time.Duration `yaml:"jwt_access_token_ttl"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
	TrustedProxies     []string      `yaml:"trusted_proxies"`
}

func Load() (*Config, error) {
	config := &Config{
		App:      loadAppConfig(),
		Database: loadDatabaseConfig(),
		Redis:    loadRedisConfig(),
		Engine:   loadEngineConfig(),
		Security: loadSecurityConfig(),
	}

	return config, nil
}

func loadAppConfig() *AppConfig {
	return &AppConfig{
		Name:        getEnv("APP_NAME", "GoHire"),
		Version:     getEnv("APP_VERSION", "1.0.0"),
		Environment: getEnv("APP_ENV", "development"),
		Port:        getEnvAsInt("APP_PORT", 8080),
		Host:        getEnv("APP_HOST", "localhost"),
		Debug:       getEnvAsBool("APP_DEBUG", true),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Currency:    getEnv("APP_CURRENCY", "NGN"),
	}
}

func loadEngineConfig() *EngineConfig {
	return &EngineConfig{
		PlatformFeePercent:  getEnvAsFloat64("PLATFORM_FEE_PERCENT", 15),
		MinWithdrawalAmount: getEnvAsInt64("MIN_WITHDRAWAL_AMOUNT", 5000),
		MinFundingAmount:    getEnvAsInt64("MIN_FUNDING_AMOUNT", 1000),
		ReferralLevel1Pct:   getEnvAsFloat64("REFERRAL_L1_PERCENT", 2.5),
		ReferralLevel2Pct:   getEnvAsFloat64("REFERRAL_L2_PERCENT", 1.5),
		ReferralLevel3Pct:   getEnvAsFloat64("REFERRAL_L3_PERCENT", 1.0),
	}
}

// ReferralPercent returns the commission percentage for a referral level,
// zero for levels outside 1..3.
func (e *EngineConfig) ReferralPercent(level int) float64 {
	switch level {
	case 1:
		return e.ReferralLevel1Pct
	case 2:
		return e.ReferralLevel2Pct
	case 3:
		return e.ReferralLevel3Pct
	}
	return 0
}

func loadSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		JWTSecret:          getEnv("JWT_SECRET", "change-me-in-production"),
		JWTAccessTokenTTL:  getEnvAsDuration("JWT_ACCESS_TOKEN_TTL", 24*time.Hour),
		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 100),
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		TrustedProxies:     getEnvAsSlice("TRUSTED_PROXIES", []string{}),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func IsProduction() bool {
	return getEnv("APP_ENV", "development") == "production"
}

func IsDevelopment() bool {
	return getEnv("APP_ENV", "development") == "development"
}
