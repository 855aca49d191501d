package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// AppConfig holds application-specific configuration.
type AppConfig struct {
	WorkDir        string `mapstructure:"workdir"`
	SourceDir      string `mapstructure:"source_dir"`
	ListenHost     string `mapstructure:"listen_host"`
	Port           int    `mapstructure:"port"`
	StartupTimeout int    `mapstructure:"startup_timeout"`
	View           string `mapstructure:"view"`
	BirthdayWindow int    `mapstructure:"birthday_window"`
}

// StorageConfig selects and configures the address book backend.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	File    string `mapstructure:"file"`
}

// LoggingConfig holds the logging-related configuration.
type LoggingConfig struct {
	Level string `mapstructure:"log_level"`
}

// EtcdConfig holds etcd-related configuration.
type EtcdConfig struct {
	Endpoints         []string `mapstructure:"etcd_endpoints"`
	DialTimeout       float64  `mapstructure:"etcd_dial_timeout"`
	PathPrefix        string   `mapstructure:"etcd_path_prefix"`
	LockTTL           float64  `mapstructure:"etcd_lock_ttl"`
	LockTimeout       float64  `mapstructure:"etcd_lock_timeout"`
	LockRetryInterval float64  `mapstructure:"etcd_lock_retry_interval"`
}

// ImageConfig describes the container image the bot ships in.
type ImageConfig struct {
	Name         string   `mapstructure:"name"`
	BaseImage    string   `mapstructure:"base_image"`
	RuntimeImage string   `mapstructure:"runtime_image"`
	WorkDir      string   `mapstructure:"workdir"`
	Entrypoint   []string `mapstructure:"entrypoint"`
	Context      string   `mapstructure:"context"`
}

// DockerConfig holds settings for talking to the local container engine.
type DockerConfig struct {
	Container   string `mapstructure:"container"`
	WaitTimeout int    `mapstructure:"wait_timeout"`
}

// Config is the top-level configuration struct.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"log"`
	Etcd    EtcdConfig    `mapstructure:"etcd"`
	Image   ImageConfig   `mapstructure:"image"`
	Docker  DockerConfig  `mapstructure:"docker"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app.workdir", ".")
	v.SetDefault("app.source_dir", "")
	v.SetDefault("app.listen_host", "0.0.0.0")
	v.SetDefault("app.port", 8000)
	v.SetDefault("app.startup_timeout", 5)
	v.SetDefault("app.view", "")
	v.SetDefault("app.birthday_window", 7)
	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.file", "addressbook.json")
	v.SetDefault("log.log_level", "INFO")
	v.SetDefault("etcd.etcd_endpoints", []string{"localhost:2379"})
	v.SetDefault("etcd.etcd_dial_timeout", 2.0)
	v.SetDefault("etcd.etcd_path_prefix", "/assistant-bot")
	v.SetDefault("etcd.etcd_lock_ttl", 5.0)
	v.SetDefault("etcd.etcd_lock_timeout", 2.0)
	v.SetDefault("etcd.etcd_lock_retry_interval", 0.1)
	v.SetDefault("image.name", "assistant-bot:latest")
	v.SetDefault("image.base_image", "golang:1.24-alpine")
	v.SetDefault("image.runtime_image", "alpine:3.20")
	v.SetDefault("image.workdir", "/app")
	v.SetDefault("image.entrypoint", []string{"/usr/local/bin/assistant-bot", "serve"})
	v.SetDefault("image.context", ".")
	v.SetDefault("docker.container", "assistant-bot")
	v.SetDefault("docker.wait_timeout", 30)
}

// InitConfig performs the initial configuration: setting defaults, specifying the config file, and reading it.
// An explicit configFile takes precedence over config.yaml in the current directory.
func InitConfig(configFile string) error {
	SetDefaults(viper.GetViper())

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config") // Looks for config.yaml
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// If the file is not found, just continue with defaults and env vars.
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return nil
}

// Load unmarshals the configuration into the Config struct.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom unmarshals the configuration held by v and validates it.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the values that cannot be defaulted away.
func (c *Config) Validate() error {
	if c.App.Port < 1 || c.App.Port > 65535 {
		return fmt.Errorf("app.port must be between 1 and 65535, got %d", c.App.Port)
	}
	if c.App.StartupTimeout <= 0 {
		return fmt.Errorf("app.startup_timeout must be positive, got %d", c.App.StartupTimeout)
	}
	if c.App.BirthdayWindow < 0 {
		return fmt.Errorf("app.birthday_window must not be negative, got %d", c.App.BirthdayWindow)
	}
	switch strings.ToLower(c.App.View) {
	case "", "simple", "table":
	default:
		return fmt.Errorf("app.view must be simple or table, got %q", c.App.View)
	}
	if c.App.WorkDir == "" {
		return fmt.Errorf("app.workdir must not be empty")
	}
	return nil
}
