package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Ning0612/mistergen/internal/domain"
)

// EnvPrefix is prepended to every environment override, e.g. MISTERGEN_FTP_HOST
const EnvPrefix = "MISTERGEN"

// DefaultConfigPaths returns the default paths to search for config files
func DefaultConfigPaths() []string {
	paths := []string{
		".",
		"./configs",
	}

	// Add user config directory
	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, "mistergen"))
	}

	// Add home directory
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", "mistergen"))
		paths = append(paths, filepath.Join(homeDir, ".mistergen"))
	}

	return paths
}

// SetDefaults registers every default value on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("ftp.host", "")
	v.SetDefault("ftp.local_root", "")
	v.SetDefault("ftp.port", 21)
	v.SetDefault("ftp.user", "root")
	v.SetDefault("ftp.password", "1")
	v.SetDefault("ftp.timeout", "10s")

	v.SetDefault("device.api_port", 8182)
	v.SetDefault("device.api_path", "/api/launch")
	v.SetDefault("device.host_var", "MISTERIP")
	v.SetDefault("device.drive_var", "MISTERDRIVE")
	v.SetDefault("device.drive", "fat")
	v.SetDefault("device.primary_prefix", "/media/fat/")
	v.SetDefault("device.mount_base", "/media/")

	v.SetDefault("scan.source", SourceSD)
	v.SetDefault("scan.include_arcade", true)
	v.SetDefault("scan.games_dir", "games")
	v.SetDefault("scan.arcade_dir", "_Arcade")

	v.SetDefault("output.dir", ".")
	v.SetDefault("output.extension", ".bat")
	v.SetDefault("output.dispatcher", true)
	v.SetDefault("output.osd_wait", 5)

	v.SetDefault("attract.interval", "60s")

	v.SetDefault("workers", 1)
	v.SetDefault("state_dir", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file.enabled", false)
	v.SetDefault("log.file.path", "")
	v.SetDefault("log.file.max_size_mb", 10)
	v.SetDefault("log.file.max_age_days", 30)
	v.SetDefault("log.file.max_backups", 5)
	v.SetDefault("log.file.compress", true)
}

// New returns a viper instance with defaults and environment overrides
// configured, ready for flag binding.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads and parses a configuration file
// If path is empty, searches default locations for config.yaml.
// A missing config file is not an error when searching: defaults,
// environment and flags still produce a usable configuration.
func Load(path string) (*Config, error) {
	return LoadWith(New(), path)
}

// LoadWith reads and validates the configuration through an existing viper
// instance, which lets the CLI bind its flags before reading.
func LoadWith(v *viper.Viper, path string) (*Config, error) {
	cfg, err := Read(v, path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read is LoadWith without validation, for commands that never contact
// the device
func Read(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		// Use specific file
		v.SetConfigFile(path)
	} else {
		// Search default paths
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, p := range DefaultConfigPaths() {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
		switch {
		case missing && path != "":
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		case missing:
			// Fall through to defaults
		default:
			return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
		}
	}

	return decode(v)
}

// LoadFromString parses configuration from a YAML string
func LoadFromString(yamlContent string) (*Config, error) {
	v := New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(strings.NewReader(yamlContent)); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	// Normalize origins so "sd" or "usb0" work in root entries
	for i := range cfg.Roots {
		if cfg.Roots[i].Origin == "" {
			cfg.Roots[i].Origin = domain.OriginPrimary
			continue
		}
		origin, err := domain.ParseOrigin(string(cfg.Roots[i].Origin))
		if err != nil {
			return nil, err
		}
		cfg.Roots[i].Origin = origin
	}
	cfg.Scan.Source = strings.ToLower(strings.TrimSpace(cfg.Scan.Source))
	if cfg.Scan.Source == "usb0" {
		cfg.Scan.Source = SourceUSB
	}

	return &cfg, nil
}
