// pkg/core/config.go
package core

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds bpkg settings
type Config struct {
	Registry      string `mapstructure:"registry"`
	BinDir        string `mapstructure:"bin_dir"`
	DataDir       string `mapstructure:"data_dir"`
	TmpDir        string `mapstructure:"tmp_dir"`
	Workers       int    `mapstructure:"workers"`
	RedirectLimit int    `mapstructure:"redirect_limit"`
	GitHubAPI     string `mapstructure:"github_api"`
	GitHubToken   string `mapstructure:"github_token"`
	MetricsFile   string `mapstructure:"metrics_file"`
	Debug         bool   `mapstructure:"debug"`
	LogFile       string `mapstructure:"log_file"`
}

const (
	// DefaultGitHubAPI is the GitHub REST endpoint
	DefaultGitHubAPI = "https://api.github.com"
	// DefaultRedirectLimit is the number of redirects followed per download
	DefaultRedirectLimit = 50
	// EnvPrefix prefixes every environment override
	EnvPrefix = "BPKG"
)

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() *Config {
	return &Config{
		Registry:      filepath.Join(configHome(), "bpkg", "bpkg.yaml"),
		BinDir:        defaultBinDir(),
		DataDir:       filepath.Join(dataHome(), "bpkg"),
		TmpDir:        filepath.Join(os.TempDir(), "bpkg"),
		RedirectLimit: DefaultRedirectLimit,
		GitHubAPI:     DefaultGitHubAPI,
	}
}

// LoadConfig resolves settings from defaults, an optional settings file and
// the environment. An empty path looks for settings.yaml in the user config
// directory; an explicit path must exist.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("registry", def.Registry)
	v.SetDefault("bin_dir", def.BinDir)
	v.SetDefault("data_dir", def.DataDir)
	v.SetDefault("tmp_dir", def.TmpDir)
	v.SetDefault("workers", 0)
	v.SetDefault("redirect_limit", def.RedirectLimit)
	v.SetDefault("github_api", def.GitHubAPI)
	v.SetDefault("github_token", "")
	v.SetDefault("metrics_file", "")
	v.SetDefault("debug", false)
	v.SetDefault("log_file", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Historical names kept working next to the prefixed keys
	v.BindEnv("registry", "BPKG_CONFIG", "BPKG_REGISTRY")
	v.BindEnv("github_token", "BPKG_GITHUB_TOKEN", "GITHUB_TOKEN")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("settings")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(configHome(), "bpkg"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading settings: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing settings: %w", err)
	}

	cfg.Registry = expandHome(cfg.Registry)
	cfg.BinDir = expandHome(cfg.BinDir)
	cfg.DataDir = expandHome(cfg.DataDir)
	cfg.TmpDir = expandHome(cfg.TmpDir)
	cfg.MetricsFile = expandHome(cfg.MetricsFile)
	cfg.LogFile = expandHome(cfg.LogFile)
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.DataDir, "bpkg.log")
	}
	if cfg.RedirectLimit <= 0 {
		cfg.RedirectLimit = DefaultRedirectLimit
	}

	return &cfg, nil
}

// EnsureDirs creates every directory bpkg writes into
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.BinDir, c.DataDir, c.TmpDir, filepath.Dir(c.Registry)} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return nil
}

// NewLogger returns the debug logger. Without debug it discards
// everything; with debug it appends to LogFile, since the terminal
// belongs to the output actor. Close the returned closer when done.
func NewLogger(c *Config) (*log.Logger, io.Closer, error) {
	if !c.Debug {
		return log.New(io.Discard, "", 0), io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(c.LogFile), 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	return log.New(f, "[BPKG] ", log.LstdFlags), f, nil
}

func configHome() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	return filepath.Join(homeDir(), ".config")
}

func dataHome() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir
	}
	return filepath.Join(homeDir(), ".local", "share")
}

func defaultBinDir() string {
	if dir := os.Getenv("XDG_BIN_HOME"); dir != "" {
		return dir
	}
	return filepath.Join(homeDir(), ".local", "bin")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return home
}

func expandHome(path string) string {
	if path == "~" {
		return homeDir()
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}
