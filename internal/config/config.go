package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DB      DBConfig
	Storage StorageConfig
	JWT     JWTConfig
	Server  ServerConfig
	Auth    AuthConfig
}

type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type StorageConfig struct {
	// Driver selects the content store backend: "local" or "minio".
	Driver   string
	BasePath string
	MinIO    MinIOConfig
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type JWTConfig struct {
	Secret            string
	ExpirationMinutes int
}

type ServerConfig struct {
	Port string
}

type AuthConfig struct {
	// RequireActive rejects logins from accounts that were never
	// activated. Off by default: registration leaves accounts inactive
	// and no activation flow exists yet.
	RequireActive bool
}

func Load() *Config {
	return &Config{
		DB: DBConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "docvault"),
			Password:        getEnv("DB_PASSWORD", "docvault_secret"),
			Name:            getEnv("DB_NAME", "docvault"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 16),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 4),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Storage: StorageConfig{
			Driver:   getEnv("STORAGE_DRIVER", "local"),
			BasePath: getEnv("STORAGE_BASE_PATH", "./data/files"),
			MinIO: MinIOConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
				AccessKey: getEnv("MINIO_ACCESS_KEY", "docvault"),
				SecretKey: getEnv("MINIO_SECRET_KEY", "docvault_secret"),
				Bucket:    getEnv("MINIO_BUCKET", "docvault"),
				UseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
			},
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", "change-me-in-production"),
			ExpirationMinutes: getEnvAsInt("JWT_EXPIRATION_MINUTES", 60),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8090"),
		},
		Auth: AuthConfig{
			RequireActive: getEnvAsBool("AUTH_REQUIRE_ACTIVE", false),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}
