package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/mhpenta/copilot/provider/gemini"
	"github.com/mhpenta/copilot/provider/ollama"
)

// EnvPrefix prefixes every environment override (COPILOT_OLLAMA_ENDPOINT, ...).
const EnvPrefix = "COPILOT"

// Load builds the configuration in order of precedence: defaults, config
// file, environment. An explicit path must exist; without one, copilot.yaml
// is looked up in the working directory and the user config directory and
// may be absent.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := readConfigFile(v, path); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("copilot")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "copilot"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// setDefaults reproduces the fixed behaviour: local Ollama, no timeout,
// primary display.
func setDefaults(v *viper.Viper) {
	v.SetDefault("backend", BackendOllama)

	v.SetDefault("ollama.endpoint", ollama.DefaultEndpoint)
	v.SetDefault("ollama.timeout", "0s")

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", gemini.APIModelFlash)
	v.SetDefault("gemini.timeout", "0s")

	v.SetDefault("capture.display", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
}
