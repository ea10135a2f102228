package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	App      AppConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// AppConfig holds exchange-specific settings
type AppConfig struct {
	ClaimBonus         decimal.Decimal
	MaxOddsBasisPoints int64
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	claimBonus, err := decimal.NewFromString(getEnv("CLAIM_BONUS", "1000"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLAIM_BONUS: %w", err)
	}
	if claimBonus.IsNegative() {
		return nil, fmt.Errorf("CLAIM_BONUS must not be negative")
	}

	maxOdds, err := strconv.ParseInt(getEnv("MAX_ODDS_BASIS_POINTS", "1000000"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_ODDS_BASIS_POINTS: %w", err)
	}
	if maxOdds <= 0 {
		return nil, fmt.Errorf("MAX_ODDS_BASIS_POINTS must be positive")
	}

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "easybet"),
		},
		App: AppConfig{
			ClaimBonus:         claimBonus,
			MaxOddsBasisPoints: maxOdds,
		},
	}

	return config, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
