package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL string

	RedisAddress  string
	RedisPassword string
	RedisDB       int

	JWTSecret       string
	JWTAlgorithm    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	HTTPAddress      string
	AllowedOrigins   []string
	AllowCredentials bool

	// AppBaseURL is embedded into confirmation and reset links.
	AppBaseURL string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
	MailFromName string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioPublicURL string
}

func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	keys := []string{
		"DATABASE_URL",
		"REDIS_ADDRESS", "REDIS_PASSWORD", "REDIS_DB",
		"JWT_SECRET", "JWT_ALGORITHM", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL",
		"HTTP_ADDRESS", "ALLOWED_ORIGINS", "ALLOW_CREDENTIALS",
		"APP_BASE_URL",
		"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD",
		"MAIL_FROM", "MAIL_FROM_NAME",
		"MINIO_ENDPOINT", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY",
		"MINIO_BUCKET", "MINIO_USE_SSL", "MINIO_PUBLIC_URL",
	}
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, err
		}
	}

	v.SetDefault("JWT_ALGORITHM", "HS256")
	v.SetDefault("ACCESS_TOKEN_TTL", "1h")
	v.SetDefault("REFRESH_TOKEN_TTL", "1h")
	v.SetDefault("HTTP_ADDRESS", ":8080")
	v.SetDefault("SMTP_PORT", 465)
	v.SetDefault("MAIL_FROM_NAME", "Contact Book")
	v.SetDefault("MINIO_BUCKET", "avatars")
	v.SetDefault("APP_BASE_URL", "http://localhost:8080")

	for _, k := range []string{"DATABASE_URL", "JWT_SECRET", "REDIS_ADDRESS"} {
		if v.GetString(k) == "" {
			return nil, fmt.Errorf("required configuration %s is not set", k)
		}
	}

	cfg := &Config{
		DatabaseURL:      v.GetString("DATABASE_URL"),
		RedisAddress:     v.GetString("REDIS_ADDRESS"),
		RedisPassword:    v.GetString("REDIS_PASSWORD"),
		RedisDB:          v.GetInt("REDIS_DB"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		JWTAlgorithm:     v.GetString("JWT_ALGORITHM"),
		AccessTokenTTL:   v.GetDuration("ACCESS_TOKEN_TTL"),
		RefreshTokenTTL:  v.GetDuration("REFRESH_TOKEN_TTL"),
		HTTPAddress:      v.GetString("HTTP_ADDRESS"),
		AllowedOrigins:   v.GetStringSlice("ALLOWED_ORIGINS"),
		AllowCredentials: v.GetBool("ALLOW_CREDENTIALS"),
		AppBaseURL:       v.GetString("APP_BASE_URL"),
		SMTPHost:         v.GetString("SMTP_HOST"),
		SMTPPort:         v.GetInt("SMTP_PORT"),
		SMTPUsername:     v.GetString("SMTP_USERNAME"),
		SMTPPassword:     v.GetString("SMTP_PASSWORD"),
		MailFrom:         v.GetString("MAIL_FROM"),
		MailFromName:     v.GetString("MAIL_FROM_NAME"),
		MinioEndpoint:    v.GetString("MINIO_ENDPOINT"),
		MinioAccessKey:   v.GetString("MINIO_ACCESS_KEY"),
		MinioSecretKey:   v.GetString("MINIO_SECRET_KEY"),
		MinioBucket:      v.GetString("MINIO_BUCKET"),
		MinioUseSSL:      v.GetBool("MINIO_USE_SSL"),
		MinioPublicURL:   v.GetString("MINIO_PUBLIC_URL"),
	}

	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, fmt.Errorf("token TTLs must be positive")
	}

	return cfg, nil
}
