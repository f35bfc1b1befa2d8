// Package config loads calbridge settings from flags, environment variables
// and an optional config file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/teemow/calbridge/internal/booking"
	"github.com/teemow/calbridge/internal/cache"
	"github.com/teemow/calbridge/internal/google"
	"github.com/teemow/calbridge/internal/logging"
)

// Keys double as flag names and config file keys.
const (
	KeyCalendarID      = "calendar-id"
	KeySlotDuration    = "slot-duration"
	KeyPort            = "port"
	KeyUpstreamTimeout = "upstream-timeout"
	KeyCredentialsFile = "credentials-file"
	KeyCredentialsJSON = "credentials-json"
	KeyLogLevel        = "log-level"
	KeyLogFormat       = "log-format"
	KeyRateLimit       = "rate-limit"
	KeyRateBurst       = "rate-burst"
	KeyTrustProxy      = "trust-proxy"
	KeyCacheType       = "cache-type"
	KeyCacheTTL        = "cache-ttl"
	KeyCacheSize       = "cache-size"
	KeyRedisAddr       = "redis-addr"
	KeyRedisPassword   = "redis-password"
	KeyRedisDB         = "redis-db"
	KeyRedisKeyPrefix  = "redis-key-prefix"
	KeyMetricsEnabled  = "metrics-enabled"
	KeyMetricsAddr     = "metrics-addr"
)

// envNames maps each key to its environment variable.
var envNames = map[string]string{
	KeyCalendarID:      "CALENDAR_ID",
	KeySlotDuration:    "SLOT_DURATION_MINUTES",
	KeyPort:            "PORT",
	KeyUpstreamTimeout: "UPSTREAM_TIMEOUT",
	KeyCredentialsFile: "GOOGLE_APPLICATION_CREDENTIALS",
	KeyCredentialsJSON: "GOOGLE_CREDENTIALS_JSON",
	KeyLogLevel:        "LOG_LEVEL",
	KeyLogFormat:       "LOG_FORMAT",
	KeyRateLimit:       "RATE_LIMIT",
	KeyRateBurst:       "RATE_BURST",
	KeyTrustProxy:      "TRUST_PROXY",
	KeyCacheType:       "CACHE_TYPE",
	KeyCacheTTL:        "CACHE_TTL",
	KeyCacheSize:       "CACHE_SIZE",
	KeyRedisAddr:       "REDIS_ADDR",
	KeyRedisPassword:   "REDIS_PASSWORD",
	KeyRedisDB:         "REDIS_DB",
	KeyRedisKeyPrefix:  "REDIS_KEY_PREFIX",
	KeyMetricsEnabled:  "METRICS_ENABLED",
	KeyMetricsAddr:     "METRICS_ADDR",
}

// Defaults.
const (
	DefaultCalendarID      = "primary"
	DefaultSlotMinutes     = 30
	DefaultPort            = 3000
	DefaultUpstreamTimeout = 5 * time.Second
	DefaultRateLimit       = 10.0
	DefaultRateBurst       = 20
	DefaultCacheTTL        = 30 * time.Second
	DefaultCacheSize       = 256
	DefaultRedisAddr       = "localhost:6379"
	DefaultRedisKeyPrefix  = "calbridge:"
	DefaultMetricsAddr     = ":9090"
)

// Config is the typed, validated configuration.
type Config struct {
	CalendarID          string        `mapstructure:"calendar-id"`
	SlotDurationMinutes int           `mapstructure:"slot-duration"`
	Port                int           `mapstructure:"port"`
	UpstreamTimeout     time.Duration `mapstructure:"upstream-timeout"`

	CredentialsFile string `mapstructure:"credentials-file"`
	CredentialsJSON string `mapstructure:"credentials-json"`

	LogLevel  string `mapstructure:"log-level"`
	LogFormat string `mapstructure:"log-format"`

	// RateLimit is requests per second per client IP; 0 disables limiting.
	RateLimit float64 `mapstructure:"rate-limit"`
	RateBurst int     `mapstructure:"rate-burst"`
	// TrustProxy keys the limiter on the rightmost X-Forwarded-For entry, then X-Real-IP.
	TrustProxy bool `mapstructure:"trust-proxy"`

	CacheType      string        `mapstructure:"cache-type"`
	CacheTTL       time.Duration `mapstructure:"cache-ttl"`
	CacheSize      int           `mapstructure:"cache-size"`
	RedisAddr      string        `mapstructure:"redis-addr"`
	RedisPassword  string        `mapstructure:"redis-password"`
	RedisDB        int           `mapstructure:"redis-db"`
	RedisKeyPrefix string        `mapstructure:"redis-key-prefix"`

	MetricsEnabled bool   `mapstructure:"metrics-enabled"`
	MetricsAddr    string `mapstructure:"metrics-addr"`
}

// RegisterFlags defines every configuration flag on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(KeyCalendarID, DefaultCalendarID, "Calendar to read availability from and book into")
	fs.Int(KeySlotDuration, DefaultSlotMinutes, "Slot length in minutes")
	fs.Int(KeyPort, DefaultPort, "HTTP port for the webhook server")
	fs.Duration(KeyUpstreamTimeout, DefaultUpstreamTimeout, "Timeout for each calendar API call")
	fs.String(KeyCredentialsFile, "", "Path to a service account JSON key")
	fs.String(KeyCredentialsJSON, "", "Inline service account JSON key")
	fs.String(KeyLogLevel, "info", "Log level (debug, info, warn, error)")
	fs.String(KeyLogFormat, logging.FormatText, "Log format (text, json)")
	fs.Float64(KeyRateLimit, DefaultRateLimit, "Requests per second allowed per client IP (0 disables)")
	fs.Int(KeyRateBurst, DefaultRateBurst, "Burst size for the per-IP rate limiter")
	fs.Bool(KeyTrustProxy, false, "Identify clients by proxy headers (only behind a trusted proxy)")
	fs.String(KeyCacheType, cache.TypeNone, "Busy-interval cache backend (none, memory, redis)")
	fs.Duration(KeyCacheTTL, DefaultCacheTTL, "Lifetime of cached busy intervals")
	fs.Int(KeyCacheSize, DefaultCacheSize, "Maximum entries held by the memory cache")
	fs.String(KeyRedisAddr, DefaultRedisAddr, "Redis address for the redis cache")
	fs.String(KeyRedisPassword, "", "Redis password")
	fs.Int(KeyRedisDB, 0, "Redis database number")
	fs.String(KeyRedisKeyPrefix, DefaultRedisKeyPrefix, "Prefix for redis cache keys")
	fs.Bool(KeyMetricsEnabled, true, "Serve Prometheus metrics on a dedicated address")
	fs.String(KeyMetricsAddr, DefaultMetricsAddr, "Address of the metrics server")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyCalendarID, DefaultCalendarID)
	v.SetDefault(KeySlotDuration, DefaultSlotMinutes)
	v.SetDefault(KeyPort, DefaultPort)
	v.SetDefault(KeyUpstreamTimeout, DefaultUpstreamTimeout)
	v.SetDefault(KeyCredentialsFile, "")
	v.SetDefault(KeyCredentialsJSON, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, logging.FormatText)
	v.SetDefault(KeyRateLimit, DefaultRateLimit)
	v.SetDefault(KeyRateBurst, DefaultRateBurst)
	v.SetDefault(KeyTrustProxy, false)
	v.SetDefault(KeyCacheType, cache.TypeNone)
	v.SetDefault(KeyCacheTTL, DefaultCacheTTL)
	v.SetDefault(KeyCacheSize, DefaultCacheSize)
	v.SetDefault(KeyRedisAddr, DefaultRedisAddr)
	v.SetDefault(KeyRedisPassword, "")
	v.SetDefault(KeyRedisDB, 0)
	v.SetDefault(KeyRedisKeyPrefix, DefaultRedisKeyPrefix)
	v.SetDefault(KeyMetricsEnabled, true)
	v.SetDefault(KeyMetricsAddr, DefaultMetricsAddr)
}

// Load resolves the configuration. fs may be nil; only flags the user set
// override other sources. configFile may be empty, in which case
// calbridge.{yaml,json,toml} is looked up in the working directory and
// /etc/calbridge and silently skipped when absent.
func Load(fs *pflag.FlagSet, configFile string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range envNames {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if fs != nil {
		var bindErr error
		fs.VisitAll(func(f *pflag.Flag) {
			if _, known := envNames[f.Name]; known && bindErr == nil {
				bindErr = v.BindPFlag(f.Name, f)
			}
		})
		if bindErr != nil {
			return Config{}, fmt.Errorf("failed to bind flags: %w", bindErr)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("calbridge")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/calbridge")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	var errs []error

	if c.CalendarID == "" {
		errs = append(errs, fmt.Errorf("%s must not be empty", KeyCalendarID))
	}
	if c.SlotDurationMinutes <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %d", KeySlotDuration, c.SlotDurationMinutes))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("%s must be between 1 and 65535, got %d", KeyPort, c.Port))
	}
	if c.UpstreamTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %s", KeyUpstreamTimeout, c.UpstreamTimeout))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != logging.FormatText && c.LogFormat != logging.FormatJSON {
		errs = append(errs, fmt.Errorf("%s must be text or json, got %q", KeyLogFormat, c.LogFormat))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative, got %g", KeyRateLimit, c.RateLimit))
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1 when rate limiting is enabled", KeyRateBurst))
	}

	switch c.CacheType {
	case cache.TypeNone:
	case cache.TypeMemory:
		if c.CacheSize <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive for the memory cache", KeyCacheSize))
		}
		if c.CacheTTL <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", KeyCacheTTL))
		}
	case cache.TypeRedis:
		if c.RedisAddr == "" {
			errs = append(errs, fmt.Errorf("%s is required for the redis cache", KeyRedisAddr))
		}
		if c.CacheTTL <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", KeyCacheTTL))
		}
	default:
		errs = append(errs, fmt.Errorf("%s must be one of none, memory, redis, got %q", KeyCacheType, c.CacheType))
	}

	if c.MetricsEnabled && c.MetricsAddr == "" {
		errs = append(errs, fmt.Errorf("%s is required when metrics are enabled", KeyMetricsAddr))
	}

	return errors.Join(errs...)
}

// ListenAddr returns the webhook server address.
func (c Config) ListenAddr() string {
	return ":" + strconv.Itoa(c.Port)
}

// SlotDuration returns the slot length.
func (c Config) SlotDuration() time.Duration {
	return time.Duration(c.SlotDurationMinutes) * time.Minute
}

// Dispatcher returns the booking dispatcher settings.
func (c Config) Dispatcher() booking.Config {
	return booking.Config{
		CalendarID:      c.CalendarID,
		SlotDuration:    c.SlotDuration(),
		UpstreamTimeout: c.UpstreamTimeout,
	}
}

// Cache returns the busy cache settings.
func (c Config) Cache() cache.Options {
	return cache.Options{
		Type:           c.CacheType,
		TTL:            c.CacheTTL,
		Size:           c.CacheSize,
		RedisAddr:      c.RedisAddr,
		RedisPassword:  c.RedisPassword,
		RedisDB:        c.RedisDB,
		RedisKeyPrefix: c.RedisKeyPrefix,
	}
}

// Credentials returns where the service account key comes from.
func (c Config) Credentials() google.Source {
	return google.Source{File: c.CredentialsFile, JSON: c.CredentialsJSON}
}
