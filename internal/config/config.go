package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config хранит все параметры запуска приложения.
type Config struct {
	Env             string
	HTTPPort        string
	DatabaseURL     string
	JWTSecret       string
	RefreshSecret   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	MigrationsPath  string
	AllowedOrigins  []string
	RateLimitLimit  int64
	RateLimitPeriod time.Duration

	// Комиссионная политика платформы.
	CommissionRate      float64
	CommissionThreshold float64
	CommissionDueDays   int

	// Платёжный шлюз.
	GatewayBaseURL     string
	GatewayMerchantID  string
	GatewaySaltKey     string
	GatewaySaltIndex   int
	GatewayRedirectURL string
	GatewayCallbackURL string
}

// Load читает переменные окружения и возвращает готовую конфигурацию.
func Load() (*Config, error) {
	// Загружаем .env только если он существует, иначе используем системные переменные.
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("config: .env не найден, используем переменные окружения: %v", err)
	}

	cfg := &Config{
		Env:             getEnv("APP_ENV", "development"),
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		RefreshSecret:   getEnv("REFRESH_SECRET", ""),
		AccessTokenTTL:  getDurationEnv("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: getDurationEnv("REFRESH_TOKEN_TTL", 720*time.Hour),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "./migrations"),
		AllowedOrigins:  splitEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
		RateLimitLimit:  getInt64Env("RATE_LIMIT_LIMIT", 10),
		RateLimitPeriod: getDurationEnv("RATE_LIMIT_PERIOD", time.Minute),

		CommissionRate:      getFloatEnv("COMMISSION_RATE", 0.10),
		CommissionThreshold: getFloatEnv("COMMISSION_THRESHOLD", 700),
		CommissionDueDays:   int(getInt64Env("COMMISSION_DUE_DAYS", 30)),

		GatewayBaseURL:     getEnv("PAYMENT_BASE_URL", "https://api-preprod.phonepe.com/apis/pg-sandbox"),
		GatewayMerchantID:  getEnv("PAYMENT_MERCHANT_ID", "TEST_MERCHANT"),
		GatewaySaltKey:     getEnv("PAYMENT_SALT_KEY", ""),
		GatewaySaltIndex:   int(getInt64Env("PAYMENT_SALT_INDEX", 1)),
		GatewayRedirectURL: getEnv("PAYMENT_REDIRECT_URL", ""),
		GatewayCallbackURL: getEnv("PAYMENT_CALLBACK_URL", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("config: DATABASE_URL не задан")
	}
	if cfg.JWTSecret == "" || cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("config: JWT_SECRET и REFRESH_SECRET обязательны")
	}
	if cfg.CommissionRate <= 0 || cfg.CommissionRate >= 1 {
		return nil, fmt.Errorf("config: COMMISSION_RATE должен быть в диапазоне (0, 1)")
	}
	if cfg.CommissionThreshold <= 0 {
		return nil, fmt.Errorf("config: COMMISSION_THRESHOLD должен быть положительным")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt64Env(key string, fallback int64) int64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			return parsed
		}
		log.Printf("config: некорректное значение %s=%q, используем %d", key, v, fallback)
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
		log.Printf("config: некорректное значение %s=%q, используем %g", key, v, fallback)
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
		log.Printf("config: некорректное значение %s=%q, используем %s", key, v, fallback)
	}
	return fallback
}

func splitEnv(key, fallback string) []string {
	raw := getEnv(key, fallback)
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
