package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config shift-board bot configuration
type Config struct {
	VK struct {
		Token      string
		GroupID    int
		ChatPeerID int64
	}

	// Reference API (routes / vehicles / user directory)
	API struct {
		BaseURL string
		Company string
	}

	Database DatabaseConfig
	Redis    RedisConfig

	Log struct {
		Level  string
		Format string
	}
}

// DatabaseConfig PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// RedisConfig Redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// GetDSN builds the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// Load reads configuration from environment variables with defaults.
// VK_TOKEN and VK_GROUP_ID are required, everything else has a default.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.VK.Token = getEnv("VK_TOKEN", "")
	cfg.VK.GroupID = parseInt(getEnv("VK_GROUP_ID", "0"), 0)
	peerID, err := strconv.ParseInt(getEnv("CHAT_PEER_ID", "2000000190"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid CHAT_PEER_ID: %w", err)
	}
	cfg.VK.ChatPeerID = peerID

	if cfg.VK.Token == "" {
		return nil, fmt.Errorf("VK_TOKEN is required")
	}
	if cfg.VK.GroupID == 0 {
		return nil, fmt.Errorf("VK_GROUP_ID is required")
	}

	cfg.API.BaseURL = strings.TrimRight(getEnv("API_BASE", "https://rotorbus.ru"), "/")
	cfg.API.Company = getEnv("COMPANY", "company1")

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "rotorbot")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
