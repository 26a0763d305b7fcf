package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/santiagomed/infragenie/core"
	"github.com/spf13/viper"
)

const DefaultAPIURL = "http://localhost:8000"

// Config stores all configuration of the application.
type Config struct {
	APIURL           string        `mapstructure:"api_url"`
	CloudProvider    string        `mapstructure:"cloud_provider"`
	AIProvider       string        `mapstructure:"ai_provider"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	TerminalInterval time.Duration `mapstructure:"terminal_interval"`
	ExportDir        string        `mapstructure:"export_dir"`
	LogDir           string        `mapstructure:"log_dir"`
	LogLevel         string        `mapstructure:"log_level"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		APIURL:           DefaultAPIURL,
		CloudProvider:    string(core.Azure),
		AIProvider:       string(core.Gemini),
		RequestTimeout:   2 * time.Minute,
		TerminalInterval: 200 * time.Millisecond,
		ExportDir:        ".",
		LogDir:           defaultLogDir(),
		LogLevel:         "info",
	}
}

// LoadConfig reads configuration from config.yaml in configPath, the working
// directory or ~/.infragenie, then from INFRAGENIE_* environment variables.
// A missing config file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	defaults := DefaultConfig()

	v := viper.New()
	v.SetDefault("api_url", defaults.APIURL)
	v.SetDefault("cloud_provider", defaults.CloudProvider)
	v.SetDefault("ai_provider", defaults.AIProvider)
	v.SetDefault("request_timeout", defaults.RequestTimeout)
	v.SetDefault("terminal_interval", defaults.TerminalInterval)
	v.SetDefault("export_dir", defaults.ExportDir)
	v.SetDefault("log_dir", defaults.LogDir)
	v.SetDefault("log_level", defaults.LogLevel)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath(defaultLogDir())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("INFRAGENIE")
	v.AutomaticEnv()

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks enum values and durations.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("api_url is required")
	}
	if _, err := core.ParseCloudProvider(c.CloudProvider); err != nil {
		return fmt.Errorf("invalid cloud_provider: %w", err)
	}
	if _, err := core.ParseAIProvider(c.AIProvider); err != nil {
		return fmt.Errorf("invalid ai_provider: %w", err)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", c.RequestTimeout)
	}
	if c.TerminalInterval <= 0 {
		return fmt.Errorf("terminal_interval must be positive, got %v", c.TerminalInterval)
	}
	return nil
}

// Cloud returns the configured cloud provider. Call after Validate.
func (c *Config) Cloud() core.CloudProvider {
	p, _ := core.ParseCloudProvider(c.CloudProvider)
	return p
}

// AI returns the configured AI provider. Call after Validate.
func (c *Config) AI() core.AIProvider {
	p, _ := core.ParseAIProvider(c.AIProvider)
	return p
}

func defaultLogDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".infragenie")
	}
	return filepath.Join(homeDir, ".infragenie")
}
