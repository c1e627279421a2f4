package database

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"callcrm-backend/internal/config"
)

// DB is the global database instance
var DB *gorm.DB

// InitDatabase initializes the database connection. DB_DRIVER=sqlite selects
// a local file (or in-memory) database for development; everything else is
// Postgres.
func InitDatabase() error {
	var err error

	if config.GetEnv("DB_DRIVER", "postgres") == "sqlite" {
		path := config.GetEnv("DB_PATH", "callcrm.db")
		DB, err = gorm.Open(sqlite.Open(path), &gorm.Config{})
		if err != nil {
			return fmt.Errorf("failed to open sqlite database: %w", err)
		}
		log.WithField("path", path).Info("sqlite database connected")
		return nil
	}

	host := config.GetEnv("DB_HOST", "localhost")
	port := config.GetEnv("DB_PORT", "5432")
	user := config.GetEnv("DB_USER", "callcrm")
	password := os.Getenv("DB_PASSWORD")
	dbname := config.GetEnv("DB_NAME", "callcrm")

	// SSL on by default; explicitly disabled for development environments.
	sslMode := config.GetEnv("DB_SSLMODE", "require")
	if os.Getenv("DB_SSLMODE") == "" {
		if env := os.Getenv("ENVIRONMENT"); env == "development" || env == "dev" {
			sslMode = "disable"
			log.Warn("database SSL disabled for development environment")
		}
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		host, user, password, dbname, port, sslMode)

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info("database connected successfully")
	return nil
}

// RunMigrations runs auto-migration for the given models.
func RunMigrations(models ...interface{}) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	if err := DB.AutoMigrate(models...); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
