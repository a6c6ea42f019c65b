package config

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/Ning0612/mistergen/internal/core/exclude"
	"github.com/Ning0612/mistergen/internal/domain"
	"github.com/Ning0612/mistergen/internal/logger"
)

// Scan sources
const (
	SourceSD  = "sd"
	SourceUSB = "usb"
)

// Config represents the complete configuration for mistergen
type Config struct {
	// FTP holds the device connection settings
	FTP FTPConfig `mapstructure:"ftp"`

	// Device describes the target's launch API and storage layout
	Device DeviceConfig `mapstructure:"device"`

	// Scan selects which remote directories become scan roots
	Scan ScanConfig `mapstructure:"scan"`

	// Roots, when set, replace Scan entirely
	Roots []domain.ScanRoot `mapstructure:"roots"`

	// Exclude configures the reserved names
	Exclude exclude.Rules `mapstructure:"exclude"`

	// Output describes the generated tree
	Output OutputConfig `mapstructure:"output"`

	// Attract configures the random launch loop
	Attract AttractConfig `mapstructure:"attract"`

	// Workers bounds how many scan roots are walked concurrently,
	// each over its own session
	Workers int `mapstructure:"workers"`

	// StateDir holds the run history database and is created on demand
	StateDir string `mapstructure:"state_dir"`

	// Log configures logging
	Log LogConfig `mapstructure:"log"`
}

// FTPConfig holds the device's FTP server settings
type FTPConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout"`

	// LocalRoot serves the remote tree from a mounted copy instead of FTP
	LocalRoot string `mapstructure:"local_root"`
}

// DeviceConfig describes the launch API and storage layout of the device
type DeviceConfig struct {
	APIPort       int    `mapstructure:"api_port"`
	APIPath       string `mapstructure:"api_path"`
	HostVar       string `mapstructure:"host_var"`
	DriveVar      string `mapstructure:"drive_var"`
	Drive         string `mapstructure:"drive"`
	PrimaryPrefix string `mapstructure:"primary_prefix"`
	MountBase     string `mapstructure:"mount_base"`
}

// ScanConfig selects scan roots the way the device lays out its storage
type ScanConfig struct {
	// Source is "sd" or "usb"
	Source string `mapstructure:"source"`

	// Directories under the games directory; empty means all of them
	Directories []string `mapstructure:"directories"`

	IncludeArcade bool   `mapstructure:"include_arcade"`
	GamesDir      string `mapstructure:"games_dir"`
	ArcadeDir     string `mapstructure:"arcade_dir"`
}

// OutputConfig describes the generated tree
type OutputConfig struct {
	Dir        string `mapstructure:"dir"`
	Extension  string `mapstructure:"extension"`
	Dispatcher bool   `mapstructure:"dispatcher"`
	OSDWait    int    `mapstructure:"osd_wait"`
}

// AttractConfig configures attract mode
type AttractConfig struct {
	// Interval is the time each game runs before the next launch
	Interval time.Duration `mapstructure:"interval"`
}

// LogConfig mirrors logger.Config in file form
type LogConfig struct {
	Level  string        `mapstructure:"level"`
	Format string        `mapstructure:"format"`
	File   LogFileConfig `mapstructure:"file"`
}

// LogFileConfig configures the rotating log file
type LogFileConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// Validate checks if the configuration is complete and consistent
func (c *Config) Validate() error {
	if c.FTP.Host == "" && c.FTP.LocalRoot == "" {
		return fmt.Errorf("%w: ftp host cannot be empty", domain.ErrConfigInvalid)
	}
	if c.FTP.Port <= 0 || c.FTP.Port > 65535 {
		return fmt.Errorf("%w: invalid ftp port: %d", domain.ErrConfigInvalid, c.FTP.Port)
	}
	if c.Device.APIPort <= 0 || c.Device.APIPort > 65535 {
		return fmt.Errorf("%w: invalid api port: %d", domain.ErrConfigInvalid, c.Device.APIPort)
	}
	if !strings.HasPrefix(c.Device.APIPath, "/") {
		return fmt.Errorf("%w: api path must start with /: %q", domain.ErrConfigInvalid, c.Device.APIPath)
	}
	if c.Device.PrimaryPrefix == "" || !path.IsAbs(c.Device.PrimaryPrefix) {
		return fmt.Errorf("%w: primary prefix must be absolute: %q", domain.ErrConfigInvalid, c.Device.PrimaryPrefix)
	}

	if len(c.Roots) == 0 {
		switch c.Scan.Source {
		case SourceSD, SourceUSB:
		default:
			return fmt.Errorf("%w: invalid scan source: %q (want sd or usb)", domain.ErrConfigInvalid, c.Scan.Source)
		}
		dirs := make(map[string]bool)
		for _, d := range c.Scan.Directories {
			if d == "" || strings.Contains(d, "..") {
				return fmt.Errorf("%w: invalid scan directory: %q", domain.ErrConfigInvalid, d)
			}
			key := domain.ScanRoot{LocalPath: d}.LocalKey()
			if dirs[key] {
				return fmt.Errorf("%w: duplicate scan directory: %s", domain.ErrConfigInvalid, d)
			}
			dirs[key] = true
		}
	}

	// Roots are unique by remote path and by local directory
	remotes := make(map[string]bool)
	locals := make(map[string]string)
	for _, r := range c.Roots {
		if err := r.Validate(); err != nil {
			return err
		}
		remote := path.Clean(r.RemotePath)
		if remotes[remote] {
			return fmt.Errorf("%w: duplicate root: %s", domain.ErrConfigInvalid, r.RemotePath)
		}
		remotes[remote] = true

		if other, ok := locals[r.LocalKey()]; ok {
			return fmt.Errorf("%w: roots %s and %s both write to %s",
				domain.ErrConfigInvalid, other, r.RemotePath, r.LocalDir())
		}
		locals[r.LocalKey()] = r.RemotePath
	}

	if strings.TrimSpace(c.Device.HostVar) == "" || strings.TrimSpace(c.Device.DriveVar) == "" {
		return fmt.Errorf("%w: device host_var and drive_var cannot be empty", domain.ErrConfigInvalid)
	}

	if strings.TrimPrefix(c.Output.Extension, ".") == "" {
		return fmt.Errorf("%w: output extension cannot be empty", domain.ErrConfigInvalid)
	}
	if c.Output.OSDWait < 0 {
		return fmt.Errorf("%w: osd wait cannot be negative", domain.ErrConfigInvalid)
	}
	if c.Attract.Interval <= 0 {
		return fmt.Errorf("%w: attract interval must be positive", domain.ErrConfigInvalid)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", domain.ErrConfigInvalid, c.Workers)
	}

	return nil
}

// DeviceHost returns host:port of the launch API as written into the dispatcher
func (c *Config) DeviceHost() string {
	return fmt.Sprintf("%s:%d", c.FTP.Host, c.Device.APIPort)
}

// GetStateDir returns the directory for the run history database
func (c *Config) GetStateDir() string {
	if c.StateDir != "" {
		return ExpandPath(c.StateDir)
	}
	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "mistergen")
	}
	return ".mistergen"
}

// GetOutputDir returns the expanded output directory
func (c *Config) GetOutputDir() string {
	if c.Output.Dir == "" {
		return "."
	}
	return ExpandPath(c.Output.Dir)
}

// LoggerOptions converts the log section into logger options
func (c *Config) LoggerOptions(quiet bool) logger.Options {
	logPath := filepath.Join(c.GetStateDir(), "mistergen.log")
	if c.Log.File.Path != "" {
		logPath = ExpandPath(c.Log.File.Path)
	}
	return logger.Options{
		Level:   c.Log.Level,
		Format:  c.Log.Format,
		Secrets: []string{c.FTP.Password},
		File: logger.FileConfig{
			Enabled:    c.Log.File.Enabled,
			Path:       logPath,
			MaxSizeMB:  c.Log.File.MaxSizeMB,
			MaxAgeDays: c.Log.File.MaxAgeDays,
			MaxBackups: c.Log.File.MaxBackups,
			Compress:   c.Log.File.Compress,
		},
		Quiet: quiet,
	}
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	// Expand ~ to home directory
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			if len(path) > 1 && (path[1] == '/' || path[1] == filepath.Separator) {
				path = filepath.Join(home, path[2:])
			} else if len(path) == 1 {
				path = home
			}
		}
	}
	// Expand environment variables
	path = os.ExpandEnv(path)
	return filepath.Clean(path)
}
