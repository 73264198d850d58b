package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimeToWait = 10000
	defaultMaxRetries = 5

	instancesFile = "instances.yaml"
)

// GlobalConfig is the registry of quality-analysis server instances.
// Order is significant: the first entry is the default instance.
type GlobalConfig struct {
	Instances []InstanceConfig `yaml:"instances"`
	Path      string           `yaml:"-"`
}

// InstanceConfig holds the connection identity of one SonarQube instance.
type InstanceConfig struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Token    string `yaml:"token,omitempty"`

	// TimeToWait is the pause between analysis polls, in milliseconds.
	TimeToWait int `yaml:"time_to_wait,omitempty"`
	// MaxRetries bounds the number of analysis polls.
	MaxRetries int `yaml:"max_retries,omitempty"`
}

// Load reads the instance registry from the config directory.
// A missing registry file yields an empty registry.
func Load() (*GlobalConfig, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	path := filepath.Join(configDir, instancesFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &GlobalConfig{Path: path}, nil
	}
	return LoadFile(path)
}

// LoadFile reads the instance registry from a specific file.
func LoadFile(path string) (*GlobalConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read instances file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load instances from %s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Parse decodes and validates an instance registry document.
// Credential fields may reference environment variables (${SONAR_TOKEN}).
func Parse(data []byte) (*GlobalConfig, error) {
	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse instances: %w", err)
	}

	for i := range cfg.Instances {
		inst := &cfg.Instances[i]
		inst.URL = strings.TrimRight(strings.TrimSpace(inst.URL), "/")
		inst.Username = os.ExpandEnv(inst.Username)
		inst.Password = os.ExpandEnv(inst.Password)
		inst.Token = os.ExpandEnv(inst.Token)
		if inst.TimeToWait <= 0 {
			inst.TimeToWait = defaultTimeToWait
		}
		if inst.MaxRetries <= 0 {
			inst.MaxRetries = defaultMaxRetries
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that every instance has a unique name and a URL.
func (c *GlobalConfig) Validate() error {
	seen := make(map[string]bool, len(c.Instances))
	for i, inst := range c.Instances {
		if strings.TrimSpace(inst.Name) == "" {
			return fmt.Errorf("instance %d: name is required", i)
		}
		if seen[inst.Name] {
			return fmt.Errorf("instance %q: duplicate name", inst.Name)
		}
		seen[inst.Name] = true
		if inst.URL == "" {
			return fmt.Errorf("instance %q: url is required", inst.Name)
		}
	}
	return nil
}

// Default returns the first registered instance, or nil for an empty registry.
func (c *GlobalConfig) Default() *InstanceConfig {
	if c == nil || len(c.Instances) == 0 {
		return nil
	}
	return &c.Instances[0]
}

// Lookup returns the instance registered under name.
func (c *GlobalConfig) Lookup(name string) (*InstanceConfig, bool) {
	if c == nil {
		return nil, false
	}
	for i := range c.Instances {
		if c.Instances[i].Name == name {
			return &c.Instances[i], true
		}
	}
	return nil, false
}

// getEnvOrDefault returns the environment variable value if set,
// otherwise returns the default value.
func getEnvOrDefault(envVar, defaultValue string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return defaultValue
}

func getConfigDir() (string, error) {
	configDir := os.Getenv("QUALITYGATES_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, ".qualitygates")
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}
	return configDir, nil
}
