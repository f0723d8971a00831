package driver

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/region23/medbook/internal/config"
	"github.com/region23/medbook/internal/storage/models"
	"github.com/region23/medbook/pkg/logger"
)

func TestOpen_Drivers(t *testing.T) {
	mr := miniredis.RunT(t)
	dir := t.TempDir()

	tests := []struct {
		name string
		cfg  config.DatabaseConfig
	}{
		{name: "memory", cfg: config.DatabaseConfig{Driver: config.DriverMemory}},
		{name: "json", cfg: config.DatabaseConfig{Driver: config.DriverJSON, DataDir: filepath.Join(dir, "data")}},
		{name: "sqlite", cfg: config.DatabaseConfig{Driver: config.DriverSQLite, Path: filepath.Join(dir, "medbook.db")}},
		{name: "redis", cfg: config.DatabaseConfig{Driver: config.DriverRedis, RedisAddr: mr.Addr(), RedisKeyPrefix: "t", ConnTimeout: time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			stores, backend, err := Open(ctx, tt.cfg, logger.Discard())
			require.NoError(t, err)
			defer backend.Close()

			require.NoError(t, backend.Ping(ctx))
			assert.Empty(t, stores.Patients.Read(ctx))

			require.NoError(t, stores.Doctors.Write(ctx, []models.Doctor{{ID: "D001", Name: "House"}}))
			got := stores.Doctors.Read(ctx)
			require.Len(t, got, 1)
			assert.Equal(t, "House", got[0].Name)
		})
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, _, err := Open(context.Background(), config.DatabaseConfig{Driver: "mongo"}, logger.Discard())
	assert.Error(t, err)
}
