package config

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/ken-b2024/ecommerce-api/internal/repo"
	"github.com/ken-b2024/ecommerce-api/pkg/cache"
	"github.com/ken-b2024/ecommerce-api/pkg/config"
	pkgdb "github.com/ken-b2024/ecommerce-api/pkg/db"
)

type ServiceConfig struct {
	config.Config
}

// Load reads .env when present, then the process environment.
func Load() ServiceConfig {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg := config.Load()

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustOneOf(cfg.DBDriver, "DB_DRIVER", pkgdb.DriverPostgres, pkgdb.DriverSQLite)

	return ServiceConfig{Config: cfg}
}

func (c ServiceConfig) Redis() cache.Config {
	return cache.Config{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// InitDB opens the configured database and creates any missing tables.
func InitDB(ctx context.Context, c ServiceConfig) (*gorm.DB, error) {
	db, err := pkgdb.Open(ctx, c.DBDriver, c.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := (&repo.GormRepo{DB: db}).Migrate(ctx); err != nil {
		_ = pkgdb.Close(db)
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}
