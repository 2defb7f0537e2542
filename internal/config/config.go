// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Env  string `mapstructure:"APP_ENV"`
	Port string `mapstructure:"PORT"`

	JWTSecret          string `mapstructure:"JWT_SECRET"`
	RefreshTokenSecret string `mapstructure:"REFRESH_TOKEN_SECRET"`
	AccessTokenTTLMin  int    `mapstructure:"ACCESS_TOKEN_TTL_MINUTES"`
	RefreshTokenTTLHr  int    `mapstructure:"REFRESH_TOKEN_TTL_HOURS"`
	CookieSecure       bool   `mapstructure:"COOKIE_SECURE"`

	DBHost                        string `mapstructure:"DB_HOST"`
	DBPort                        string `mapstructure:"DB_PORT"`
	DBUser                        string `mapstructure:"DB_USER"`
	DBPassword                    string `mapstructure:"DB_PASSWORD"`
	DBName                        string `mapstructure:"DB_NAME"`
	DBSSLMode                     string `mapstructure:"DB_SSLMODE"`
	DBReadHost                    string `mapstructure:"DB_READ_HOST"`
	DBReadPort                    string `mapstructure:"DB_READ_PORT"`
	DBReadUser                    string `mapstructure:"DB_READ_USER"`
	DBReadPassword                string `mapstructure:"DB_READ_PASSWORD"`
	DBSchemaMode                  string `mapstructure:"DB_SCHEMA_MODE"`
	DBAutoMigrateAllowDestructive bool   `mapstructure:"DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE"`
	DBMaxOpenConns                int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns                int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetimeMinutes      int    `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`

	RedisURL       string `mapstructure:"REDIS_URL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	FeatureFlags   string `mapstructure:"FEATURE_FLAGS"`
	FrontendURL    string `mapstructure:"FRONTEND_URL"`

	S3Bucket        string `mapstructure:"S3_BUCKET"`
	S3Region        string `mapstructure:"S3_REGION"`
	S3Endpoint      string `mapstructure:"S3_ENDPOINT"`
	S3AccessKey     string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey     string `mapstructure:"S3_SECRET_KEY"`
	S3PublicBaseURL string `mapstructure:"S3_PUBLIC_BASE_URL"`
	MediaTempDir    string `mapstructure:"MEDIA_TEMP_DIR"`
	MediaMaxUpload  int    `mapstructure:"MEDIA_MAX_UPLOAD_MB"`
	ImageMaxUpload  int    `mapstructure:"IMAGE_MAX_UPLOAD_MB"`
	FFProbePath     string `mapstructure:"FFPROBE_PATH"`

	SMTPHost        string  `mapstructure:"SMTP_HOST"`
	SMTPPort        int     `mapstructure:"SMTP_PORT"`
	SMTPUsername    string  `mapstructure:"SMTP_USERNAME"`
	SMTPPassword    string  `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom        string  `mapstructure:"SMTP_FROM"`
	MailRatePerSec  float64 `mapstructure:"MAIL_RATE_PER_SECOND"`
	OTPTTLMinutes   int     `mapstructure:"OTP_TTL_MINUTES"`
	OTPVerifiedTTLM int     `mapstructure:"OTP_VERIFIED_TTL_MINUTES"`

	GoogleClientID       string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret   string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GithubClientID       string `mapstructure:"GITHUB_CLIENT_ID"`
	GithubClientSecret   string `mapstructure:"GITHUB_CLIENT_SECRET"`
	OAuthRedirectBaseURL string `mapstructure:"OAUTH_REDIRECT_BASE_URL"`

	SeedDemoData bool `mapstructure:"SEED_DEMO_DATA"`

	TracingEnabled      bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter     string  `mapstructure:"TRACING_EXPORTER"`
	TracingEndpoint     string  `mapstructure:"TRACING_OTLP_ENDPOINT"`
	TracingSamplerRatio float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

// LoadConfig loads application configuration from .env, config files and environment variables.
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base config file is optional.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("PORT", "8000")
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("REFRESH_TOKEN_SECRET", defaultJWTSecret+"-refresh")
	viper.SetDefault("ACCESS_TOKEN_TTL_MINUTES", 24*60)
	viper.SetDefault("REFRESH_TOKEN_TTL_HOURS", 10*24)
	viper.SetDefault("COOKIE_SECURE", false)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "tubbit")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_READ_HOST", "")
	viper.SetDefault("DB_READ_PORT", "5432")
	viper.SetDefault("DB_READ_USER", "user")
	viper.SetDefault("DB_READ_PASSWORD", "password")
	viper.SetDefault("DB_SCHEMA_MODE", "hybrid")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 5)
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173")
	viper.SetDefault("FEATURE_FLAGS", "")
	viper.SetDefault("FRONTEND_URL", "http://localhost:5173")
	viper.SetDefault("S3_REGION", "auto")
	viper.SetDefault("MEDIA_TEMP_DIR", "/tmp/tubbit/uploads")
	viper.SetDefault("MEDIA_MAX_UPLOAD_MB", 512)
	viper.SetDefault("IMAGE_MAX_UPLOAD_MB", 10)
	viper.SetDefault("FFPROBE_PATH", "ffprobe")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_FROM", "Tubbit <no-reply@tubbit.local>")
	viper.SetDefault("MAIL_RATE_PER_SECOND", 5)
	viper.SetDefault("OTP_TTL_MINUTES", 5)
	viper.SetDefault("OTP_VERIFIED_TTL_MINUTES", 10)
	viper.SetDefault("OAUTH_REDIRECT_BASE_URL", "http://localhost:8000")
	viper.SetDefault("SEED_DEMO_DATA", false)
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)
}

func (c *Config) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))
	c.DBSchemaMode = strings.ToLower(strings.TrimSpace(c.DBSchemaMode))
	c.S3PublicBaseURL = strings.TrimRight(strings.TrimSpace(c.S3PublicBaseURL), "/")
}

// IsProduction reports whether the app runs with production strictness.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// AccessTokenTTL is the lifetime of issued access tokens.
func (c *Config) AccessTokenTTL() time.Duration {
	if c.AccessTokenTTLMin <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.AccessTokenTTLMin) * time.Minute
}

// RefreshTokenTTL is the lifetime of issued refresh tokens.
func (c *Config) RefreshTokenTTL() time.Duration {
	if c.RefreshTokenTTLHr <= 0 {
		return 240 * time.Hour
	}
	return time.Duration(c.RefreshTokenTTLHr) * time.Hour
}

// OTPTTL is how long a sent code stays valid.
func (c *Config) OTPTTL() time.Duration {
	if c.OTPTTLMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.OTPTTLMinutes) * time.Minute
}

// OTPVerifiedTTL is how long a verified marker stays valid.
func (c *Config) OTPVerifiedTTL() time.Duration {
	if c.OTPVerifiedTTLM <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(c.OTPVerifiedTTLM) * time.Minute
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.RefreshTokenSecret == "" {
		return errors.New("REFRESH_TOKEN_SECRET is required")
	}
	if c.MediaMaxUpload < 0 || c.ImageMaxUpload < 0 {
		return errors.New("upload size limits must not be negative")
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 || len(c.RefreshTokenSecret) < 32 {
			return errors.New("JWT_SECRET and REFRESH_TOKEN_SECRET must be at least 32 characters in production")
		}
		if c.JWTSecret == c.RefreshTokenSecret {
			return errors.New("JWT_SECRET and REFRESH_TOKEN_SECRET must differ in production")
		}
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			return errors.New("DB_SSLMODE must enable SSL in production")
		}
		if c.S3Bucket == "" {
			return errors.New("S3_BUCKET is required in production")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}
