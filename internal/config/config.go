// Package config loads sign configuration from a YAML file with
// OPENSIGN_-prefixed environment overrides, so a boot-script deployment can
// be tuned without editing files.
package config

import (
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/Maker-Melissa/OpenSign/internal/matrix"
)

type Config struct {
	// Driver is "spi", "term" or "sim"; empty tries SPI and falls back to
	// the terminal.
	Driver  string `yaml:"driver" env:"OPENSIGN_DRIVER"`
	SPIPort string `yaml:"spi_port" env:"OPENSIGN_SPI_PORT"`

	Matrix matrix.Options `yaml:"matrix"`

	// Brightness, when positive, overrides Matrix.Brightness. It exists so
	// the common knob has a dedicated environment variable.
	Brightness int `yaml:"-" env:"OPENSIGN_BRIGHTNESS"`

	// PreviewAddr, when set, serves the websocket frame preview.
	PreviewAddr string `yaml:"preview_addr,omitempty" env:"OPENSIGN_PREVIEW_ADDR"`

	// ShowPath points at a YAML show program to run instead of the built-in
	// demo. Use an absolute path when started from an init script.
	ShowPath string `yaml:"show,omitempty" env:"OPENSIGN_SHOW"`
}

// Load reads the YAML file at path, then applies environment overrides.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	return &c, nil
}

// FromEnv builds a config from environment variables alone.
func FromEnv() (*Config, error) {
	var c Config
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyEnv() error {
	if err := env.Parse(c); err != nil {
		return errors.Wrap(err, "parse environment")
	}
	if c.Brightness > 0 {
		c.Matrix.Brightness = c.Brightness
	}
	return nil
}

// Save writes the config as YAML.
func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}
	return os.WriteFile(path, b, 0644)
}
