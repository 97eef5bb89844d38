package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ken-b2024/ecommerce-api/internal/models"
	pkgconfig "github.com/ken-b2024/ecommerce-api/pkg/config"
	pkgdb "github.com/ken-b2024/ecommerce-api/pkg/db"
)

func TestInitDB_CreatesTables(t *testing.T) {
	cfg := ServiceConfig{Config: pkgconfig.Config{DBDriver: pkgdb.DriverSQLite, DatabaseURL: ":memory:"}}

	db, err := InitDB(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pkgdb.Close(db) })

	for _, m := range models.All() {
		assert.True(t, db.Migrator().HasTable(m), "%T", m)
	}
}

func TestInitDB_UnknownDriver(t *testing.T) {
	cfg := ServiceConfig{Config: pkgconfig.Config{DBDriver: "oracle", DatabaseURL: "x"}}

	_, err := InitDB(context.Background(), cfg)
	require.Error(t, err)
}

func TestRedisConfig(t *testing.T) {
	cfg := ServiceConfig{Config: pkgconfig.Config{RedisAddr: "localhost:6379", RedisPassword: "pw", RedisDB: 2}}

	rc := cfg.Redis()
	assert.Equal(t, "localhost:6379", rc.Addr)
	assert.Equal(t, "pw", rc.Password)
	assert.Equal(t, 2, rc.DB)
}
