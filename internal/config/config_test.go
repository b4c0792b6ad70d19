package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PLAN_SOURCE", "")
	t.Setenv("BOARD_FETCH_CONCURRENCY", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, PlanSourceAPI, cfg.PlanAPI.Source)
	assert.Equal(t, 7, cfg.Board.FetchConcurrency)
	assert.Equal(t, 30*time.Second, cfg.PlanAPI.WeekCacheTTL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PLAN_SOURCE", PlanSourceMongo)
	t.Setenv("BOARD_DECORATION_DELAY", "25ms")
	t.Setenv("BOARD_FETCH_CONCURRENCY", "not-a-number")
	t.Setenv("BOARD_TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, PlanSourceMongo, cfg.PlanAPI.Source)
	assert.Equal(t, 25*time.Millisecond, cfg.Board.DecorationDelay)
	assert.Equal(t, 7, cfg.Board.FetchConcurrency)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			JWT:     JWTConfig{Secret: "s"},
			PlanAPI: PlanAPIConfig{Source: PlanSourceAPI, BaseURL: "http://api"},
			Board:   BoardConfig{FetchConcurrency: 1, Timezone: "Local"},
		}
	}

	require.NoError(t, valid().Validate())

	missingSecret := valid()
	missingSecret.JWT.Secret = ""
	assert.ErrorContains(t, missingSecret.Validate(), "JWT_SECRET")

	badSource := valid()
	badSource.PlanAPI.Source = "ftp"
	assert.ErrorContains(t, badSource.Validate(), "PLAN_SOURCE")

	badZone := valid()
	badZone.Board.Timezone = "Mars/Olympus"
	assert.ErrorContains(t, badZone.Validate(), "BOARD_TIMEZONE")
}

func TestLoad_RedisIsOptional(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.Redis.Addr)

	t.Setenv("REDIS_ADDR", "redis:6379")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
}

func TestLoad_BoardIdleTTL(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("BOARD_IDLE_TTL", "")
	t.Setenv("BOARD_SWEEP_INTERVAL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, cfg.Board.IdleTTL)
	assert.Equal(t, time.Minute, cfg.Board.SweepInterval)

	t.Setenv("BOARD_IDLE_TTL", "5m")
	t.Setenv("BOARD_SWEEP_INTERVAL", "0s")
	_, err = Load()
	assert.ErrorContains(t, err, "BOARD_SWEEP_INTERVAL")
}
