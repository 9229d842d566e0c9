package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDatabasePath   = "~/.local/share/bonsai/history.db"
	DefaultListenAddr     = "127.0.0.1:7420"
	DefaultQueueSize      = 256
	DefaultRequestTimeout = 10 * time.Second
)

// Config holds runtime settings shared by every binary
type Config struct {
	DatabasePath   string        `yaml:"database" toml:"database"`
	ListenAddr     string        `yaml:"listen" toml:"listen"`
	QueueSize      int           `yaml:"queue_size" toml:"queue_size"`
	RequestTimeout time.Duration `yaml:"request_timeout" toml:"request_timeout"`
	LogFile        string        `yaml:"log_file" toml:"log_file"`
	Verbosity      int           `yaml:"verbosity" toml:"verbosity"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		DatabasePath:   DefaultDatabasePath,
		ListenAddr:     DefaultListenAddr,
		QueueSize:      DefaultQueueSize,
		RequestTimeout: DefaultRequestTimeout,
	}
}

// fileConfig mirrors Config with the timeout as text so both formats accept "10s"
type fileConfig struct {
	DatabasePath   string `yaml:"database" toml:"database"`
	ListenAddr     string `yaml:"listen" toml:"listen"`
	QueueSize      int    `yaml:"queue_size" toml:"queue_size"`
	RequestTimeout string `yaml:"request_timeout" toml:"request_timeout"`
	LogFile        string `yaml:"log_file" toml:"log_file"`
	Verbosity      *int   `yaml:"verbosity" toml:"verbosity"`
}

// Load reads path (yaml or toml, by extension) over the defaults and then
// applies BONSAI_* environment overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(ExpandHome(path), &fc); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(ExpandHome(path))
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}

	if fc.DatabasePath != "" {
		c.DatabasePath = fc.DatabasePath
	}
	if fc.ListenAddr != "" {
		c.ListenAddr = fc.ListenAddr
	}
	if fc.QueueSize > 0 {
		c.QueueSize = fc.QueueSize
	}
	if fc.RequestTimeout != "" {
		d, err := time.ParseDuration(fc.RequestTimeout)
		if err != nil {
			return fmt.Errorf("request_timeout: %w", err)
		}
		c.RequestTimeout = d
	}
	if fc.LogFile != "" {
		c.LogFile = fc.LogFile
	}
	if fc.Verbosity != nil {
		c.Verbosity = *fc.Verbosity
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("BONSAI_DB"); ok && v != "" {
		c.DatabasePath = v
	}
	if v, ok := lookup("BONSAI_LISTEN"); ok && v != "" {
		c.ListenAddr = v
	}
	if v, ok := lookup("BONSAI_LOG"); ok && v != "" {
		c.LogFile = v
	}
	if v, ok := lookup("BONSAI_VERBOSITY"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BONSAI_VERBOSITY: %w", err)
		}
		c.Verbosity = n
	}
	if v, ok := lookup("BONSAI_REQUEST_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("BONSAI_REQUEST_TIMEOUT: %w", err)
		}
		c.RequestTimeout = d
	}
	return nil
}

// DatabaseFile returns the database path with ~ expanded
func (c Config) DatabaseFile() string {
	return ExpandHome(c.DatabasePath)
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
