package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mchmarny/vitalrisk/pkg/risk"
	"gopkg.in/yaml.v3"
)

const (
	configFileName = "config.yaml"
	dirMode        = 0700
	fileMode       = 0600

	PortDefault = 8080
)

// Config represents app config object.
type Config struct {
	Seed          uint64  `yaml:"seed"`
	Samples       int     `yaml:"samples"`
	SplitSeed     uint64  `yaml:"splitSeed"`
	TestRatio     float64 `yaml:"testRatio"`
	MaxIterations int     `yaml:"maxIterations"`
	C             float64 `yaml:"c"`
	Port          int     `yaml:"port"`
}

// Default returns the config written on first use.
func Default() *Config {
	fit := risk.DefaultFitOptions()
	return &Config{
		Seed:          risk.DefaultSeed,
		Samples:       risk.DefaultSamples,
		SplitSeed:     fit.SplitSeed,
		TestRatio:     fit.TestRatio,
		MaxIterations: fit.MaxIterations,
		C:             fit.C,
		Port:          PortDefault,
	}
}

// Validate checks the values a scorer cannot run with.
func (c *Config) Validate() error {
	if c.Samples <= 0 {
		return fmt.Errorf("samples must be positive: %d", c.Samples)
	}
	if c.TestRatio <= 0 || c.TestRatio >= 1 {
		return fmt.Errorf("test ratio must be between 0 and 1: %v", c.TestRatio)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max iterations must be positive: %d", c.MaxIterations)
	}
	if c.C <= 0 {
		return fmt.Errorf("c must be positive: %v", c.C)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return nil
}

// ScorerConfig maps the file settings onto scorer settings.
func (c *Config) ScorerConfig() risk.Config {
	return risk.Config{
		Seed:    c.Seed,
		Samples: c.Samples,
		Fit: risk.FitOptions{
			SplitSeed:     c.SplitSeed,
			TestRatio:     c.TestRatio,
			MaxIterations: c.MaxIterations,
			C:             c.C,
		},
	}
}

func Save(dirPath string, c *Config) error {
	if dirPath == "" {
		return errors.New("config directory required")
	}
	if c == nil {
		return errors.New("config required")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	path := filepath.Join(dirPath, configFileName)
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return fmt.Errorf("writing config file %s: %w", path, err)
	}
	return nil
}

// ReadOrCreate reads app config from directory or creates a new one.
// Fields missing from the file keep their default values.
func ReadOrCreate(dirPath string) (*Config, error) {
	if dirPath == "" {
		return nil, errors.New("config directory required")
	}

	if err := os.MkdirAll(dirPath, dirMode); err != nil {
		return nil, fmt.Errorf("creating dir %s: %w", dirPath, err)
	}

	path := filepath.Join(dirPath, configFileName)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating default config", "path", path)
		if err := Save(dirPath, Default()); err != nil {
			return nil, fmt.Errorf("creating default config: %w", err)
		}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("unmarshaling config file %s: %w", path, err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return c, nil
}

// GetOrCreateHomeDir returns the app directory under the user home dir.
// The create flag is set to true if the directory was created.
func GetOrCreateHomeDir(name string) (path string, created bool, err error) {
	if name == "" {
		return "", false, errors.New("name cannot be empty")
	}

	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("getting user home dir: %w", err)
	}
	slog.Debug("home dir", "path", home)

	dir := filepath.Join(home, name)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating dir", "path", dir)
		if err := os.Mkdir(dir, dirMode); err != nil {
			return "", false, fmt.Errorf("creating dir %s: %w", dir, err)
		}
		created = true
	}
	return dir, created, nil
}
