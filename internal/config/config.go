// Package config loads the application configuration from stencil.yaml and
// applies environment overrides. Path overrides are fail-fast: a variable
// pointing at a missing path is an immediate error, never a silent default.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Environment variables recognized by the server.
const (
	EnvConfig       = "STENCIL_CONFIG"
	EnvTemplateRoot = "STENCIL_TEMPLATE_ROOT"
	EnvPort         = "PORT"
	EnvDBPath       = "DB_PATH"
)

// Config holds all stencil configuration.
type Config struct {
	WorkspaceRoot     string              `yaml:"workspace_root"`
	TemplateRoot      string              `yaml:"template_root"`
	ArtifactTypesPath string              `yaml:"artifact_types_path"`
	RegistryPath      string              `yaml:"registry_path"`
	DBPath            string              `yaml:"db_path"`
	TempDir           string              `yaml:"temp_dir"`
	Port              int                 `yaml:"port"`
	OutputDirs        map[string][]string `yaml:"output_dirs"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		WorkspaceRoot:     ".",
		TemplateRoot:      "templates",
		ArtifactTypesPath: "config/artifact_types.yaml",
		RegistryPath:      ".stencil/version_registry.json",
		DBPath:            ".stencil/stencil.db",
		TempDir:           ".stencil/tmp",
		Port:              3000,
		OutputDirs:        map[string][]string{},
	}
}

// Load reads configuration from path (or STENCIL_CONFIG when set), merges it
// over the defaults, and applies env overrides. A missing explicit config
// path is an error; a missing default path just yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := false
	if env := os.Getenv(EnvConfig); env != "" {
		path = env
		explicit = true
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg.applyEnvOverrides()
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg.applyEnvOverrides()
}

func (c *Config) applyEnvOverrides() (*Config, error) {
	if root := os.Getenv(EnvTemplateRoot); root != "" {
		if _, err := os.Stat(root); err != nil {
			return nil, fmt.Errorf("%s points at %s: %w", EnvTemplateRoot, root, err)
		}
		c.TemplateRoot = root
	}
	if v := os.Getenv(EnvPort); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer, got %q", EnvPort, v)
		}
		c.Port = p
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		c.DBPath = v
	}
	return c, nil
}
