package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calbridge/internal/cache"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range envNames {
		t.Setenv(env, "")
		require.NoError(t, os.Unsetenv(env))
	}
	t.Chdir(t.TempDir())
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(newFlags(t), "")
	require.NoError(t, err)

	assert.Equal(t, "primary", cfg.CalendarID)
	assert.Equal(t, 30*time.Minute, cfg.SlotDuration())
	assert.Equal(t, ":3000", cfg.ListenAddr())
	assert.Equal(t, 5*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 10.0, cfg.RateLimit)
	assert.Equal(t, 20, cfg.RateBurst)
	assert.False(t, cfg.TrustProxy)
	assert.Equal(t, cache.TypeNone, cfg.CacheType)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 256, cfg.CacheSize)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "calbridge:", cfg.RedisKeyPrefix)
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.True(t, cfg.Credentials().IsZero())
}

func TestLoad_NilFlagSet(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Port)
}

func TestLoad_Env(t *testing.T) {
	clearEnv(t)
	t.Setenv("CALENDAR_ID", "bookings@example.com")
	t.Setenv("SLOT_DURATION_MINUTES", "15")
	t.Setenv("PORT", "8080")
	t.Setenv("UPSTREAM_TIMEOUT", "2s")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/secrets/sa.json")
	t.Setenv("RATE_LIMIT", "0")
	t.Setenv("CACHE_TYPE", "memory")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := Load(newFlags(t), "")
	require.NoError(t, err)

	assert.Equal(t, "bookings@example.com", cfg.CalendarID)
	assert.Equal(t, 15*time.Minute, cfg.SlotDuration())
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 2*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, "/secrets/sa.json", cfg.Credentials().File)
	assert.Zero(t, cfg.RateLimit)
	assert.Equal(t, cache.TypeMemory, cfg.Cache().Type)
	assert.False(t, cfg.MetricsEnabled)

	d := cfg.Dispatcher()
	assert.Equal(t, "bookings@example.com", d.CalendarID)
	assert.Equal(t, 15*time.Minute, d.SlotDuration)
	assert.Equal(t, 2*time.Second, d.UpstreamTimeout)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("CALENDAR_ID", "from-env")

	cfg, err := Load(newFlags(t, "--port", "9000"), "")
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "from-env", cfg.CalendarID, "unset flags must not shadow env")
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "calbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
calendar-id: team@example.com
slot-duration: 45
cache-type: redis
redis-addr: redis:6379
cache-ttl: 1m
`), 0o600))
	t.Setenv("SLOT_DURATION_MINUTES", "60")

	cfg, err := Load(newFlags(t), path)
	require.NoError(t, err)

	assert.Equal(t, "team@example.com", cfg.CalendarID)
	assert.Equal(t, 60, cfg.SlotDurationMinutes, "env wins over file")
	assert.Equal(t, cache.TypeRedis, cfg.CacheType)
	assert.Equal(t, "redis:6379", cfg.Cache().RedisAddr)
	assert.Equal(t, time.Minute, cfg.Cache().TTL)
}

func TestLoad_DiscoversConfigInWorkingDir(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.WriteFile("calbridge.yaml", []byte("port: 4000\n"), 0o600))

	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Port)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(nil, filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestLoad_InvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("SLOT_DURATION_MINUTES", "0")
	t.Setenv("LOG_FORMAT", "xml")

	_, err := Load(nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slot-duration must be positive")
	assert.Contains(t, err.Error(), "log-format must be text or json")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			CalendarID:          "primary",
			SlotDurationMinutes: 30,
			Port:                3000,
			UpstreamTimeout:     time.Second,
			LogLevel:            "debug",
			LogFormat:           "json",
			RateLimit:           1,
			RateBurst:           1,
			CacheType:           cache.TypeNone,
			MetricsEnabled:      true,
			MetricsAddr:         ":9090",
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty calendar", func(c *Config) { c.CalendarID = "" }, "calendar-id"},
		{"port range", func(c *Config) { c.Port = 70000 }, "port"},
		{"timeout", func(c *Config) { c.UpstreamTimeout = 0 }, "upstream-timeout"},
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "invalid log level"},
		{"negative rate", func(c *Config) { c.RateLimit = -1 }, "rate-limit"},
		{"zero burst", func(c *Config) { c.RateBurst = 0 }, "rate-burst"},
		{"cache type", func(c *Config) { c.CacheType = "memcached" }, "cache-type"},
		{"memory size", func(c *Config) { c.CacheType = cache.TypeMemory; c.CacheTTL = time.Second }, "cache-size"},
		{"redis ttl", func(c *Config) { c.CacheType = cache.TypeRedis; c.RedisAddr = "x:1" }, "cache-ttl"},
		{"metrics addr", func(c *Config) { c.MetricsAddr = "" }, "metrics-addr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			assert.ErrorContains(t, c.Validate(), tt.want)
		})
	}

	c := valid()
	c.RateLimit = 0
	c.RateBurst = 0
	assert.NoError(t, c.Validate(), "burst is irrelevant when limiting is off")
}
