package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	apperrors "namo/internal/errors"
)

// DevSecretKey signs tokens in development when no secret is provisioned.
const DevSecretKey = "dev_secret_key_not_for_production_use_only"

const devDatabasePassword = "dev_password_123"

// Config holds application level configuration.
type Config struct {
	Environment string
	ServerPort  string
	SwaggerHost string
	LogLevel    string
	SentryDSN   string
	CORSOrigins []string
	ResetDB     bool

	DBDriver    string
	DatabaseDSN string

	RedisAddr string
	RedisDB   int
	RedisPass string

	JWTSecret      string
	JWTAlgorithm   string
	AccessTokenTTL time.Duration
	BcryptCost     int

	SecretsDir         string
	EnrichmentBaseURL  string
	EnrichmentTimeout  time.Duration
	EnrichmentCacheTTL time.Duration

	// Warnings collects non-fatal problems found while loading; they are
	// logged once a logger exists.
	Warnings []string
}

// IsProduction reports whether the process runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load builds Config from an optional .env file, an optional config.yaml and
// the environment. Production without a signing secret is an error.
func Load() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Environment:        strings.ToLower(v.GetString("environment")),
		ServerPort:         v.GetString("server_port"),
		SwaggerHost:        v.GetString("swagger_host"),
		LogLevel:           v.GetString("log_level"),
		SentryDSN:          v.GetString("sentry_dsn"),
		CORSOrigins:        splitList(v.GetString("cors_origins")),
		ResetDB:            v.GetBool("reset_db"),
		DBDriver:           strings.ToLower(v.GetString("db_driver")),
		RedisAddr:          v.GetString("redis_addr"),
		RedisDB:            v.GetInt("redis_db"),
		RedisPass:          v.GetString("redis_password"),
		JWTAlgorithm:       strings.ToUpper(v.GetString("jwt_algorithm")),
		AccessTokenTTL:     time.Duration(v.GetInt("access_token_expire_minutes")) * time.Minute,
		BcryptCost:         v.GetInt("bcrypt_cost"),
		SecretsDir:         v.GetString("secrets_dir"),
		EnrichmentBaseURL:  strings.TrimRight(v.GetString("enrichment_base_url"), "/"),
		EnrichmentTimeout:  v.GetDuration("enrichment_timeout"),
		EnrichmentCacheTTL: v.GetDuration("enrichment_cache_ttl"),
	}

	if cfg.DBDriver != "postgres" && cfg.DBDriver != "mysql" {
		return nil, fmt.Errorf("%w: unsupported DB_DRIVER %q", apperrors.ErrConfiguration, cfg.DBDriver)
	}
	if cfg.AccessTokenTTL <= 0 {
		return nil, fmt.Errorf("%w: ACCESS_TOKEN_EXPIRE_MINUTES must be positive", apperrors.ErrConfiguration)
	}

	secret, err := cfg.resolveSecret(v.GetString("jwt_secret"), "secret_key", DevSecretKey)
	if err != nil {
		return nil, err
	}
	cfg.JWTSecret = secret

	cfg.DatabaseDSN = v.GetString("database_dsn")
	if cfg.DatabaseDSN == "" {
		password, err := cfg.resolveSecret(v.GetString("postgres_password"), "postgres_password", devDatabasePassword)
		if err != nil {
			return nil, err
		}
		cfg.DatabaseDSN = buildDSN(cfg.DBDriver,
			v.GetString("database_host"),
			v.GetString("database_port"),
			v.GetString("postgres_user"),
			password,
			v.GetString("postgres_db"),
		)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("server_port", "8000")
	v.SetDefault("log_level", "info")
	v.SetDefault("cors_origins", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("db_driver", "postgres")
	v.SetDefault("database_host", "localhost")
	v.SetDefault("database_port", "5432")
	v.SetDefault("postgres_user", "namo_user")
	v.SetDefault("postgres_db", "namo_db")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_db", 0)
	v.SetDefault("jwt_algorithm", "HS256")
	v.SetDefault("access_token_expire_minutes", 10080)
	v.SetDefault("bcrypt_cost", bcrypt.DefaultCost)
	v.SetDefault("secrets_dir", "/run/secrets")
	v.SetDefault("enrichment_base_url", "https://de.wiktionary.org/wiki")
	v.SetDefault("enrichment_timeout", 10*time.Second)
	v.SetDefault("enrichment_cache_ttl", 24*time.Hour)
}

// resolveSecret prefers an explicit value, then the secrets file for the
// current environment, then the development fallback.
func (c *Config) resolveSecret(explicit, name, devFallback string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	prefix := "dev"
	if c.IsProduction() {
		prefix = "prod"
	}
	path := filepath.Join(c.SecretsDir, prefix+"_"+name)
	if raw, err := os.ReadFile(path); err == nil {
		if secret := strings.TrimSpace(string(raw)); secret != "" {
			return secret, nil
		}
	}

	if c.IsProduction() {
		return "", fmt.Errorf("%w: %s not found in %s", apperrors.ErrConfiguration, prefix+"_"+name, c.SecretsDir)
	}
	c.Warnings = append(c.Warnings, fmt.Sprintf("%s not provisioned, using development fallback", name))
	return devFallback, nil
}

func buildDSN(driver, host, port, user, password, dbname string) string {
	if driver == "mysql" {
		if port == "5432" {
			port = "3306"
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC", user, password, host, port, dbname)
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC", host, port, user, password, dbname)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
