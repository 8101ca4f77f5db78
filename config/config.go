package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/assetgate/bucket"
	"github.com/sagarc03/assetgate/diagnostic"
	gatehttp "github.com/sagarc03/assetgate/http"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for assetgate.
type Config struct {
	Env         string              `mapstructure:"env"`
	Server      ServerConfig        `mapstructure:"server"`
	Storage     StorageConfig       `mapstructure:"storage"`
	Request     RequestConfig       `mapstructure:"request"`
	Diagnostics DiagnosticsConfig   `mapstructure:"diagnostics"`
	CORS        gatehttp.CORSConfig `mapstructure:"cors"`
	Metrics     MetricsConfig       `mapstructure:"metrics"`
	Log         LogConfig           `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration. Timeouts are in seconds.
type ServerConfig struct {
	Port            int `mapstructure:"port" validate:"required,min=1,max=65535"`
	ReadTimeout     int `mapstructure:"read_timeout" validate:"min=0"`
	WriteTimeout    int `mapstructure:"write_timeout" validate:"min=0"`
	IdleTimeout     int `mapstructure:"idle_timeout" validate:"min=0"`
	ShutdownTimeout int `mapstructure:"shutdown_timeout" validate:"min=1"`
}

// StorageConfig selects and configures the object store.
type StorageConfig struct {
	Backend string        `mapstructure:"backend" validate:"required,oneof=filesystem bucket"`
	Path    string        `mapstructure:"path" validate:"required_if=Backend filesystem"`
	Bucket  bucket.Config `mapstructure:"bucket"`
}

// RequestConfig names the headers the edge sets on forwarded requests.
type RequestConfig struct {
	ClientIPHeader string `mapstructure:"client_ip_header" validate:"required"`
	CountryHeader  string `mapstructure:"country_header" validate:"required"`
}

// DiagnosticsConfig holds the thresholds for slow request and large asset
// events.
type DiagnosticsConfig struct {
	SlowRequestMS   int   `mapstructure:"slow_request_ms" validate:"min=1"`
	LargeAssetBytes int64 `mapstructure:"large_asset_bytes" validate:"min=1"`
}

// Thresholds converts the configured values for the diagnostic logger.
func (d DiagnosticsConfig) Thresholds() diagnostic.Thresholds {
	return diagnostic.Thresholds{
		SlowRequest: time.Duration(d.SlowRequestMS) * time.Millisecond,
		LargeAsset:  d.LargeAssetBytes,
	}
}

// MetricsConfig holds the Prometheus listener configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr" validate:"required_if=Enabled true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// Validate checks cross-field rules the struct tags cannot express.
func (c *Config) Validate() error {
	if c.Storage.Backend == "bucket" && c.Storage.Bucket.Name == "" {
		return errors.New("storage.bucket.name is required for the bucket backend")
	}
	return nil
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"port":         "server.port",
	"backend":      "storage.backend",
	"storage-path": "storage.path",
	"bucket":       "storage.bucket.name",
	"endpoint":     "storage.bucket.endpoint",
	"log-level":    "log.level",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		// Use custom mapping if it exists, otherwise use flag name as-is
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance. Every key
// gets a default so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")

	v.SetDefault("server.port", 8787)
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 60)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("server.shutdown_timeout", 30)

	v.SetDefault("storage.backend", "filesystem")
	v.SetDefault("storage.path", "./assets")
	v.SetDefault("storage.bucket.name", "")
	v.SetDefault("storage.bucket.endpoint", "")
	v.SetDefault("storage.bucket.region", "auto")
	v.SetDefault("storage.bucket.access_key_id", "")
	v.SetDefault("storage.bucket.secret_access_key", "")
	v.SetDefault("storage.bucket.use_path_style", false)

	v.SetDefault("request.client_ip_header", "cf-connecting-ip")
	v.SetDefault("request.country_header", "cf-ipcountry")

	v.SetDefault("diagnostics.slow_request_ms", 100)
	v.SetDefault("diagnostics.large_asset_bytes", 5_000_000)

	v.SetDefault("cors.enabled", false)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "HEAD"})
	v.SetDefault("cors.allowed_headers", []string{})
	v.SetDefault("cors.exposed_headers", []string{"ETag", "Content-Length"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9090")

	v.SetDefault("log.level", "info")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("ASSETGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
