package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort string
	MySQLDSN   string
	ResetDB    bool

	RedisAddr string
	RedisDB   int
	RedisPass string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	KakaoClientID    string
	KakaoRedirectURI string
	KakaoAPIURL      string
	KakaoAuthURL     string
	KakaoTimeout     time.Duration

	CORSAllowedOrigins []string
	SwaggerHost        string

	LogLevel  string
	LogFormat string
}

// Load builds Config from environment with sensible defaults. A .env file in the working
// directory is loaded first when present; real environment variables win over it.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		MySQLDSN:   getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/berich?charset=utf8mb4&parseTime=True&loc=Local"),
		ResetDB:    getEnvBool("RESET_DB", false),

		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:   getEnvInt("REDIS_DB", 0),
		RedisPass: os.Getenv("REDIS_PASSWORD"),

		JWTSecret:       getEnv("JWT_SECRET", "change-me"),
		AccessTokenTTL:  getEnvDuration("JWT_ACCESS_TTL", time.Hour),
		RefreshTokenTTL: getEnvDuration("JWT_REFRESH_TTL", 7*24*time.Hour),

		KakaoClientID:    os.Getenv("KAKAO_CLIENT_ID"),
		KakaoRedirectURI: os.Getenv("KAKAO_REDIRECT_URI"),
		KakaoAPIURL:      getEnv("KAKAO_API_URL", "https://kapi.kakao.com"),
		KakaoAuthURL:     getEnv("KAKAO_AUTH_URL", "https://kauth.kakao.com"),
		KakaoTimeout:     getEnvDuration("KAKAO_TIMEOUT", 5*time.Second),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:8080"}),
		SwaggerHost:        os.Getenv("SWAGGER_HOST"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return def
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
