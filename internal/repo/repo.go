package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/ken-b2024/ecommerce-api/internal/models"
)

// GormRepo owns all SQL for the service. DB may be the root handle or a
// transaction; every call is scoped to the caller's context.
type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) Migrate(ctx context.Context) error {
	return r.DB.WithContext(ctx).AutoMigrate(models.All()...)
}

// WithTx runs fn inside one transaction. Returning an error rolls back.
func (r *GormRepo) WithTx(ctx context.Context, fn func(tx *GormRepo) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepo{DB: tx})
	})
}

func (r *GormRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
