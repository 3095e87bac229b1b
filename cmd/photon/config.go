package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"photon/pkg/client"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const defaultServer = "http://localhost:8000"

// cliConfig is persisted between runs. The token and identity are written by
// login and cleared by logout.
type cliConfig struct {
	Server   string        `yaml:"server"`
	DeviceID string        `yaml:"device_id"`
	Token    string        `yaml:"token,omitempty"`
	User     *savedUser    `yaml:"user,omitempty"`
	Policy   string        `yaml:"policy,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
}

type savedUser struct {
	ID          string `yaml:"id"`
	Username    string `yaml:"username"`
	IsSuperuser bool   `yaml:"is_superuser,omitempty"`
}

func (c *cliConfig) identity() client.Identity {
	if c.User == nil {
		return client.Identity{}
	}
	return client.Identity{ID: c.User.ID, Username: c.User.Username, IsSuperuser: c.User.IsSuperuser}
}

func (c *cliConfig) signIn(token string, u client.User) {
	c.Token = token
	c.User = &savedUser{ID: u.ID, Username: u.Username, IsSuperuser: u.IsSuperuser}
}

func (c *cliConfig) signOut() {
	c.Token = ""
	c.User = nil
}

func configPath() (string, error) {
	if p := os.Getenv("PHOTON_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "photon", "config.yaml"), nil
}

// loadConfig reads path, filling in defaults. A missing file is not an error;
// a fresh device id is generated and kept once the config is saved.
func loadConfig(path string) (*cliConfig, error) {
	cfg := &cliConfig{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if cfg.Server == "" {
		cfg.Server = defaultServer
	}
	if cfg.DeviceID == "" {
		cfg.DeviceID = uuid.New().String()
	}
	return cfg, nil
}

func saveConfig(path string, cfg *cliConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
