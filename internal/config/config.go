package config

import (
	stderrors "errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/choreo/internal/clock"
	"github.com/ivlev/choreo/internal/errors"
	"github.com/ivlev/choreo/internal/log"
	"github.com/ivlev/choreo/internal/motion"
)

// Config holds the runtime settings of the choreo CLI.
type Config struct {
	FPS       int     `mapstructure:"fps" yaml:"fps"`
	Rate      float64 `mapstructure:"rate" yaml:"rate"`
	LogLevel  string  `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string  `mapstructure:"log_format" yaml:"log_format"`
	// PolicyFile is a motion settings file that is watched for changes.
	// When empty the Motion block is used as a static policy.
	PolicyFile  string          `mapstructure:"policy_file" yaml:"policy_file,omitempty"`
	ScenarioDir string          `mapstructure:"scenario_dir" yaml:"scenario_dir"`
	Motion      motion.Settings `mapstructure:"motion" yaml:"motion"`

	BuildVersion string `mapstructure:"-" yaml:"-"`
}

// DefaultConfig returns the settings used when no file or environment
// overrides them.
func DefaultConfig() Config {
	return Config{
		FPS:         clock.DefaultFPS,
		Rate:        1,
		LogLevel:    "info",
		LogFormat:   "text",
		ScenarioDir: "scenarios",
		Motion:      motion.Settings{DurationScale: 1},
	}
}

// Load reads cfgFile, or config.yaml from the working directory and
// $HOME/.choreo when cfgFile is empty. CHOREO_ environment variables
// override file values; nested keys use underscores (CHOREO_MOTION_REDUCE_MOTION).
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("fps", defaults.FPS)
	v.SetDefault("rate", defaults.Rate)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_format", defaults.LogFormat)
	v.SetDefault("policy_file", defaults.PolicyFile)
	v.SetDefault("scenario_dir", defaults.ScenarioDir)
	v.SetDefault("motion.reduce_motion", defaults.Motion.ReduceMotion)
	v.SetDefault("motion.duration_scale", defaults.Motion.DurationScale)

	v.SetEnvPrefix("CHOREO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
			return nil, errors.NewFileNotFoundError(cfgFile)
		}
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.choreo")
	}

	// the config file is optional unless named explicitly
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) {
			return nil, errors.NewFileUnmarshalError(v.ConfigFileUsed(), "yaml", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigInvalid, "failed to unmarshal config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.FPS <= 0 {
		return invalid(fmt.Sprintf("fps must be positive, got %d", c.FPS))
	}
	if c.Rate <= 0 || math.IsNaN(c.Rate) || math.IsInf(c.Rate, 0) {
		return invalid(fmt.Sprintf("rate must be a positive number, got %v", c.Rate))
	}
	if c.Motion.DurationScale < 0 {
		return invalid("motion.duration_scale must not be negative")
	}
	for category, scale := range c.Motion.CategoryScale {
		if scale < 0 {
			return invalid(fmt.Sprintf("motion.category_scale.%s must not be negative", category))
		}
	}
	return nil
}

func invalid(msg string) error {
	return errors.New(errors.ErrCodeConfigInvalid, msg).
		WithSuggestion("Check the config file and CHOREO_ environment variables")
}

// LogConfig maps the logging settings onto a logger config.
func (c *Config) LogConfig() log.Config {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(c.LogLevel)
	cfg.Format = log.ParseFormat(c.LogFormat)
	return cfg
}

// WriteDefault writes the default configuration to path.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileMarshal, "failed to marshal config", err)
	}

	header := []byte(`# choreo configuration
# Every key can be overridden with a CHOREO_ environment variable,
# for example CHOREO_FPS=30 or CHOREO_MOTION_REDUCE_MOTION=true.

`)
	if err := os.WriteFile(path, append(header, data...), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeFileWrite, fmt.Sprintf("failed to write config: %s", path), err)
	}
	return nil
}
