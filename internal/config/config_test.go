package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.True(t, cfg.Reminders.Enabled)
	assert.Equal(t, time.Hour, cfg.Reminders.Lead())
	assert.False(t, cfg.Telegram.Enabled())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_DRIVER", "Redis")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("REMINDERS_ENABLED", "false")
	t.Setenv("REMINDER_LEAD_MINS", "15")
	t.Setenv("SERVER_READ_TIMEOUT", "5s")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-100200300")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, DriverRedis, cfg.Database.Driver)
	assert.Equal(t, "cache:6379", cfg.Database.RedisAddr)
	assert.Equal(t, 3, cfg.Database.RedisDB)
	assert.False(t, cfg.Reminders.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.Reminders.Lead())
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, int64(-100200300), cfg.Telegram.ChatID)
	assert.True(t, cfg.Telegram.Enabled())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:    ServerConfig{Port: "8080"},
			Database:  DatabaseConfig{Driver: DriverSQLite, Path: "medbook.db", MaxConnections: 10},
			Reminders: RemindersConfig{Enabled: true, LeadMins: 60},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "memory needs nothing", mutate: func(c *Config) { c.Database.Driver = DriverMemory; c.Database.Path = "" }},
		{name: "postgres without url", mutate: func(c *Config) { c.Database.Driver = DriverPostgres }, wantErr: "DATABASE_URL"},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mongo" }, wantErr: "unknown STORAGE_DRIVER"},
		{name: "token without chat", mutate: func(c *Config) { c.Telegram.Token = "t" }, wantErr: "TELEGRAM_CHAT_ID"},
		{name: "negative lead", mutate: func(c *Config) { c.Reminders.LeadMins = -1 }, wantErr: "REMINDER_LEAD_MINS"},
		{name: "no connections", mutate: func(c *Config) { c.Database.MaxConnections = 0 }, wantErr: "DB_MAX_CONNECTIONS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
