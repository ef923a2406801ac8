// Package config loads and validates the gateway configuration from files,
// environment variables and CLI flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/storgate/storgate"
	"github.com/storgate/storgate/authn"
	"github.com/storgate/storgate/database"
	storgatehttp "github.com/storgate/storgate/http"
	"github.com/storgate/storgate/policy"
	"github.com/storgate/storgate/s3"
)

// Config is the root configuration struct.
type Config struct {
	// ID is the application identity presented to the policy engine.
	ID   string     `mapstructure:"id" validate:"required"`
	HTTP HTTPConfig `mapstructure:"http"`
	Log  LogConfig  `mapstructure:"log"`
	Env  string     `mapstructure:"env"`

	Authn authn.ConfigMap `mapstructure:"authn"`
	Authz policy.Config   `mapstructure:"authz"`

	// AuthzWriteOnly disables policy authorization for read paths. A
	// deliberate operational escape hatch; it must always be set
	// explicitly, never defaulted on.
	AuthzWriteOnly bool `mapstructure:"authz_write_only"`

	// Audiences holds per-tenant settings keyed by audience.
	Audiences map[string]storgate.TenantSettings `mapstructure:"audiences"`

	// Backends maps backend aliases to endpoints. The "default" alias is
	// required.
	Backends map[string]s3.Config `mapstructure:"backends" validate:"required,dive"`

	Database database.Config `mapstructure:"database"`
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	ListenerAddress string                  `mapstructure:"listener_address" validate:"required"`
	CORS            storgatehttp.CORSConfig `mapstructure:"cors"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"listen":           "http.listener_address",
	"authz-write-only": "authz_write_only",
	"db-dsn":           "database.dsn",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
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

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("http.listener_address", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("authz_write_only", false)
	v.SetDefault("authz.cache.enabled", false)
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
	v.SetEnvPrefix("STORGATE")
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

	if _, ok := cfg.Backends[storgate.DefaultBackend]; !ok {
		return nil, fmt.Errorf("validate config: backend '%s' must be configured", storgate.DefaultBackend)
	}

	return &cfg, nil
}
