// Package config loads run settings from nsxmaker.toml, NSXMAKER_*
// environment variables and command line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	FileName  = "nsxmaker"
	FileType  = "toml"
	EnvPrefix = "NSXMAKER"

	ProviderFile    = "file"
	ProviderMariaDB = "mariadb"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	InputDir        string    `mapstructure:"input_dir"`
	OutputDir       string    `mapstructure:"output_dir"`
	ApplicationsDir string    `mapstructure:"applications_dir"`
	IPSetFile       string    `mapstructure:"ipset_file"`
	Overwrite       string    `mapstructure:"overwrite"`
	Provider        string    `mapstructure:"provider"`
	DSN             string    `mapstructure:"dsn"`
	Log             LogConfig `mapstructure:"log"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	File   string `mapstructure:"file"`
	Format string `mapstructure:"format"`
}

func Default() Config {
	return Config{
		InputDir:        "input",
		OutputDir:       "output",
		ApplicationsDir: "output_applications",
		IPSetFile:       "app_shared_ipsets.tf",
		Overwrite:       "prompt",
		Provider:        ProviderFile,
		Log: LogConfig{
			Level:  "INFO",
			Format: "json",
		},
	}
}

// FlagKeys maps configuration keys to the command line flags that override them.
var FlagKeys = map[string]string{
	"input_dir":        "input-dir",
	"output_dir":       "output-dir",
	"applications_dir": "applications-dir",
	"overwrite":        "overwrite",
	"provider":         "provider",
	"dsn":              "dsn",
	"log.level":        "log-level",
	"log.file":         "log-file",
	"log.format":       "log-format",
}

// Load reads the configuration. An explicit path must exist; otherwise
// nsxmaker.toml in the working directory is used when present. Flags that
// were set on the command line take precedence over everything else.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("input_dir", def.InputDir)
	v.SetDefault("output_dir", def.OutputDir)
	v.SetDefault("applications_dir", def.ApplicationsDir)
	v.SetDefault("ipset_file", def.IPSetFile)
	v.SetDefault("overwrite", def.Overwrite)
	v.SetDefault("provider", def.Provider)
	v.SetDefault("dsn", def.DSN)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.file", def.Log.File)
	v.SetDefault("log.format", def.Log.Format)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType(FileType)
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	if flags != nil {
		for key, name := range FlagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, err
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Provider {
	case ProviderFile:
	case ProviderMariaDB:
		if c.DSN == "" {
			return fmt.Errorf("%w: provider %q needs a dsn", ErrInvalidConfig, c.Provider)
		}
	default:
		return fmt.Errorf("%w: unknown provider %q (expected %s or %s)", ErrInvalidConfig, c.Provider, ProviderFile, ProviderMariaDB)
	}

	switch strings.ToLower(c.Overwrite) {
	case "prompt", "always", "never":
	default:
		return fmt.Errorf("%w: unknown overwrite mode %q (expected prompt, always or never)", ErrInvalidConfig, c.Overwrite)
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("%w: unknown log format %q (expected json or text)", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}
