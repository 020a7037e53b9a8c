package app

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/bnema/previewgate/internal/adapters/out/sandboxregistry"
	"github.com/bnema/previewgate/internal/domain"
)

// EnvPrefix namespaces environment overrides, e.g. PREVIEWGATE_SERVER_PORT.
const EnvPrefix = "PREVIEWGATE"

// Config holds the application configuration.
type Config struct {
	Server struct {
		Port           int      `mapstructure:"port" yaml:"port"`
		BaseDomain     string   `mapstructure:"base_domain" yaml:"base_domain"`
		PreviewDomain  string   `mapstructure:"preview_domain" yaml:"preview_domain"`
		TrustedProxies []string `mapstructure:"trusted_proxies" yaml:"trusted_proxies"`
		DataDir        string   `mapstructure:"data_dir" yaml:"data_dir"`
	} `mapstructure:"server" yaml:"server"`

	CORS struct {
		AllowedOrigins         []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
		AllowPreviewSubdomains bool     `mapstructure:"allow_preview_subdomains" yaml:"allow_preview_subdomains"`
	} `mapstructure:"cors" yaml:"cors"`

	Assets struct {
		Dir         string `mapstructure:"dir" yaml:"dir"`
		SPAFallback bool   `mapstructure:"spa_fallback" yaml:"spa_fallback"`
	} `mapstructure:"assets" yaml:"assets"`

	AIGateway struct {
		URL string `mapstructure:"url" yaml:"url"`
	} `mapstructure:"ai_gateway" yaml:"ai_gateway"`

	Sandbox struct {
		RedisAddr     string        `mapstructure:"redis_addr" yaml:"redis_addr"`
		RedisPassword string        `mapstructure:"redis_password" yaml:"-"`
		RedisDB       int           `mapstructure:"redis_db" yaml:"redis_db"`
		KeyPrefix     string        `mapstructure:"key_prefix" yaml:"key_prefix"`
		HeartbeatTTL  time.Duration `mapstructure:"heartbeat_ttl" yaml:"heartbeat_ttl"`
		DialTimeout   time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	} `mapstructure:"sandbox" yaml:"sandbox"`

	Dispatch struct {
		Enabled     bool          `mapstructure:"enabled" yaml:"enabled"`
		LabelPrefix string        `mapstructure:"label_prefix" yaml:"label_prefix"`
		Network     string        `mapstructure:"network" yaml:"network"`
		CacheSize   int           `mapstructure:"cache_size" yaml:"cache_size"`
		CacheTTL    time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
	} `mapstructure:"dispatch" yaml:"dispatch"`

	API struct {
		RateLimit struct {
			Enabled   bool    `mapstructure:"enabled" yaml:"enabled"`
			Backend   string  `mapstructure:"backend" yaml:"backend"` // "memory" or "redis"
			GlobalRPS float64 `mapstructure:"global_rps" yaml:"global_rps"`
			PerIPRPS  float64 `mapstructure:"per_ip_rps" yaml:"per_ip_rps"`
			Burst     int     `mapstructure:"burst" yaml:"burst"`
		} `mapstructure:"rate_limit" yaml:"rate_limit"`
		MetricsAllowedCIDRs []string `mapstructure:"metrics_allowed_cidrs" yaml:"metrics_allowed_cidrs"`
	} `mapstructure:"api" yaml:"api"`

	Logging struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
		File   struct {
			Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
			Path       string `mapstructure:"path" yaml:"path"`
			MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
			MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
			MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
		} `mapstructure:"file" yaml:"file"`
	} `mapstructure:"logging" yaml:"logging"`
}

// LoadConfig reads configuration from the config file, an optional .env file
// in the working directory, and PREVIEWGATE_* environment variables.
func LoadConfig(configPath string) (Config, error) {
	_, cfg, err := initConfig(configPath)
	return cfg, err
}

// initConfig loads configuration from file.
func initConfig(configPath string) (*viper.Viper, Config, error) {
	v := viper.New()
	if err := loadConfig(v, configPath); err != nil {
		return nil, Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Server.BaseDomain = domain.NormalizeHost(cfg.Server.BaseDomain)
	cfg.Server.PreviewDomain = domain.NormalizeHost(cfg.Server.PreviewDomain)

	return v, cfg, nil
}

func loadConfig(v *viper.Viper, configPath string) error {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_domain", "")
	v.SetDefault("server.preview_domain", "")
	v.SetDefault("server.trusted_proxies", []string{})
	v.SetDefault("server.data_dir", DefaultDataDir())
	v.SetDefault("cors.allowed_origins", []string{})
	v.SetDefault("cors.allow_preview_subdomains", true)
	v.SetDefault("assets.dir", "./public")
	v.SetDefault("assets.spa_fallback", true)
	v.SetDefault("ai_gateway.url", "")
	v.SetDefault("sandbox.redis_addr", "")
	v.SetDefault("sandbox.redis_password", "")
	v.SetDefault("sandbox.redis_db", 0)
	v.SetDefault("sandbox.key_prefix", sandboxregistry.DefaultKeyPrefix)
	v.SetDefault("sandbox.heartbeat_ttl", "30s")
	v.SetDefault("sandbox.dial_timeout", "2s")
	v.SetDefault("dispatch.enabled", false)
	v.SetDefault("dispatch.label_prefix", domain.DefaultLabelPrefix)
	v.SetDefault("dispatch.network", "")
	v.SetDefault("dispatch.cache_size", 512)
	v.SetDefault("dispatch.cache_ttl", "15s")
	v.SetDefault("api.rate_limit.enabled", true)
	v.SetDefault("api.rate_limit.backend", "memory")
	v.SetDefault("api.rate_limit.global_rps", 500)
	v.SetDefault("api.rate_limit.per_ip_rps", 50)
	v.SetDefault("api.rate_limit.burst", 100)
	v.SetDefault("api.metrics_allowed_cidrs", []string{"127.0.0.0/8", "::1/128"})
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.enabled", false)
	v.SetDefault("logging.file.path", "")
	v.SetDefault("logging.file.max_size", 100)
	v.SetDefault("logging.file.max_backups", 3)
	v.SetDefault("logging.file.max_age", 28)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read .env file: %w", err)
	}

	ConfigureViper(v, configPath)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return nil
}

// PlatformConfig derives the immutable routing configuration. Dispatch
// availability is decided by the caller after probing Docker.
func (c Config) PlatformConfig(dispatchAvailable bool) domain.PlatformConfig {
	previewSuffix := ""
	if c.CORS.AllowPreviewSubdomains {
		previewSuffix = domain.NormalizeHost(c.Server.PreviewDomain)
	}
	return domain.PlatformConfig{
		BaseDomain:        domain.NormalizeHost(c.Server.BaseDomain),
		PreviewDomain:     domain.NormalizeHost(c.Server.PreviewDomain),
		OriginPolicy:      domain.NewOriginAllowlist(c.CORS.AllowedOrigins, previewSuffix),
		DispatchAvailable: dispatchAvailable,
	}
}
