package database

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/movie-recommender/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewConnection opens the Postgres pool and makes sure the pgvector extension is present
func NewConnection(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == "" {
		port = "5432"
	}

	user := cfg.User
	if user == "" {
		user = "app"
	}

	dbName := cfg.DBName
	if dbName == "" {
		dbName = "tmdb"
	}

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	maxOpen, err := parsePositiveInt(cfg.MaxOpenConns, 20)
	if err != nil {
		return nil, fmt.Errorf("invalid max open connections '%s': %v", cfg.MaxOpenConns, err)
	}
	maxIdle, err := parsePositiveInt(cfg.MaxIdleConns, 5)
	if err != nil {
		return nil, fmt.Errorf("invalid max idle connections '%s': %v", cfg.MaxIdleConns, err)
	}

	// Note: empty password is valid for local development
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		host, user, cfg.Password, dbName, port, sslMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return nil, fmt.Errorf("failed to enable pgvector: %w", err)
	}

	return db, nil
}

func parsePositiveInt(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return n, nil
}
