package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Authentication modes supported by the API.
const (
	AuthModeJWT   = "jwt"
	AuthModeBasic = "basic"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Auth      AuthConfig
	Authz     AuthzConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Log       LogConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// AuthConfig selects the authentication scheme and the set of roles a user may
// register with.
type AuthConfig struct {
	Mode         string
	AllowedRoles []string
}

// AuthzConfig tunes authorization responses. When ExposeDeniedPermission is
// set, 403 responses name the permission the caller lacked.
type AuthzConfig struct {
	ExposeDeniedPermission bool
}

// RateLimitConfig holds per-route request quotas, expressed as requests per
// window per client address.
type RateLimitConfig struct {
	Enabled         bool
	Window          time.Duration
	AuthPerWindow   int
	ListPerWindow   int
	GetPerWindow    int
	CreatePerWindow int
	UpdatePerWindow int
	DeletePerWindow int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.Auth = AuthConfig{
		Mode:         strings.ToLower(v.GetString("AUTH_MODE")),
		AllowedRoles: splitAndTrim(v.GetString("AUTH_ALLOWED_ROLES")),
	}
	if cfg.Auth.Mode != AuthModeBasic {
		cfg.Auth.Mode = AuthModeJWT
	}

	cfg.Authz = AuthzConfig{
		ExposeDeniedPermission: v.GetBool("AUTHZ_EXPOSE_DENIED_PERMISSION"),
	}

	cfg.RateLimit = RateLimitConfig{
		Enabled:         v.GetBool("RATE_LIMIT_ENABLED"),
		Window:          parseDuration(v.GetString("RATE_LIMIT_WINDOW"), time.Minute),
		AuthPerWindow:   v.GetInt("RATE_LIMIT_AUTH"),
		ListPerWindow:   v.GetInt("RATE_LIMIT_COURSE_LIST"),
		GetPerWindow:    v.GetInt("RATE_LIMIT_COURSE_GET"),
		CreatePerWindow: v.GetInt("RATE_LIMIT_COURSE_CREATE"),
		UpdatePerWindow: v.GetInt("RATE_LIMIT_COURSE_UPDATE"),
		DeletePerWindow: v.GetInt("RATE_LIMIT_COURSE_DELETE"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "lms")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "lms-api")

	v.SetDefault("AUTH_MODE", AuthModeJWT)
	v.SetDefault("AUTH_ALLOWED_ROLES", "admin,instructor,student")

	v.SetDefault("AUTHZ_EXPOSE_DENIED_PERMISSION", false)

	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")
	v.SetDefault("RATE_LIMIT_AUTH", 10)
	v.SetDefault("RATE_LIMIT_COURSE_LIST", 30)
	v.SetDefault("RATE_LIMIT_COURSE_GET", 60)
	v.SetDefault("RATE_LIMIT_COURSE_CREATE", 10)
	v.SetDefault("RATE_LIMIT_COURSE_UPDATE", 10)
	v.SetDefault("RATE_LIMIT_COURSE_DELETE", 5)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
