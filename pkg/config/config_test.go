package config

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, SourceHTTP, cfg.LateArrivals.Source)
	assert.Equal(t, 5, cfg.LateArrivals.TopN)
	assert.Equal(t, time.Minute, cfg.LateArrivals.CacheTTL)
	assert.Equal(t, 5*time.Second, cfg.LateArrivals.Timeout)
	assert.Equal(t, "Asia/Kolkata", cfg.Timezone)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LATE_ARRIVALS_SOURCE", " Postgres ")
	t.Setenv("LATE_ARRIVALS_BASE_URL", "http://attendance:8003/")
	t.Setenv("LATE_ARRIVALS_CACHE_TTL", "not-a-duration")
	t.Setenv("LATE_ARRIVALS_TOP_N", "0")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, SourcePostgres, cfg.LateArrivals.Source)
	assert.Equal(t, "http://attendance:8003", cfg.LateArrivals.BaseURL)
	assert.Equal(t, time.Minute, cfg.LateArrivals.CacheTTL)
	assert.Equal(t, 5, cfg.LateArrivals.TopN)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}

func TestLocationFallsBackToUTC(t *testing.T) {
	loc, err := (&Config{Timezone: "Mars/Olympus"}).Location()
	assert.Error(t, err)
	assert.Equal(t, time.UTC, loc)

	loc, err = (*Config)(nil).Location()
	assert.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	loc, err = (&Config{Timezone: "Asia/Kolkata"}).Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", loc.String())
}

func TestLocationEmptyTimezoneIsUTCWithoutError(t *testing.T) {
	for _, tz := range []string{"", "   "} {
		loc, err := (&Config{Timezone: tz}).Location()
		assert.NoError(t, err, "timezone %q", tz)
		assert.Equal(t, time.UTC, loc)
	}
}

func TestValidateRejectsUnsafeSettings(t *testing.T) {
	cfg := &Config{
		Env:          EnvProduction,
		Port:         8080,
		JWT:          JWTConfig{Secret: devJWTSecret},
		LateArrivals: LateArrivalsConfig{Source: SourceHTTP},
		Export:       ExportConfig{RatePerSecond: 1, Burst: 3},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "LATE_ARRIVALS_BASE_URL")

	cfg.JWT.Secret = "s3cret"
	cfg.LateArrivals = LateArrivalsConfig{Source: SourcePostgres}
	assert.NoError(t, cfg.Validate())
}

func TestLoadFailsOnInvalidEnv(t *testing.T) {
	t.Setenv("ENV", EnvProduction)

	_, err := Load()
	assert.Error(t, err)
}
