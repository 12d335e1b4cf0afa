// Package config loads the daemon configuration: one bridge entry per
// service, plus logging. Services are a configuration-time set; enabling
// a new platform means a bridge entry here, not runtime data.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/aigustalabs/switchboard/internal/bridge"
	"github.com/aigustalabs/switchboard/internal/protocol"
)

// Service configures how to reach one service's bridge.
type Service struct {
	Enabled   bool     `toml:"enabled"`
	Transport string   `toml:"transport"` // "stdio" (default) or "websocket"
	Command   string   `toml:"command"`
	Args      []string `toml:"args"`
	URL       string   `toml:"url"`
}

// Config is ~/.config/switchboard/config.toml.
type Config struct {
	LogPath  string             `toml:"log_path"`
	Services map[string]Service `toml:"services"`
}

// BaseDir returns ~/.config/switchboard.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "switchboard")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// Default returns the configuration used when no file exists: every
// service enabled as a spawned sidecar named after the service.
func Default() *Config {
	services := make(map[string]Service, protocol.NumServices)
	for _, id := range protocol.Services() {
		services[id.String()] = Service{
			Enabled: true,
			Command: "switchboard-" + id.String(),
		}
	}
	return &Config{
		LogPath:  filepath.Join(BaseDir(), "switchboardd.log"),
		Services: services,
	}
}

// Load reads and validates config from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	if cfg.LogPath == "" {
		cfg.LogPath = Default().LogPath
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

func (c *Config) validate() error {
	for name, svc := range c.Services {
		if _, err := protocol.ParseServiceID(name); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if !svc.Enabled {
			continue
		}
		switch svc.Transport {
		case "", bridge.TransportStdio:
			if svc.Command == "" {
				return fmt.Errorf("config: service %s needs a command", name)
			}
		case bridge.TransportWebSocket:
			if svc.URL == "" {
				return fmt.Errorf("config: service %s needs a url", name)
			}
		default:
			return fmt.Errorf("config: service %s has unknown transport %q", name, svc.Transport)
		}
	}
	return nil
}

// BridgeConfigs converts the service table into supervisor configs.
func (c *Config) BridgeConfigs() map[protocol.ServiceID]bridge.ServiceConfig {
	out := make(map[protocol.ServiceID]bridge.ServiceConfig, len(c.Services))
	for name, svc := range c.Services {
		id, err := protocol.ParseServiceID(name)
		if err != nil {
			continue // validated on load
		}
		out[id] = bridge.ServiceConfig{
			Enabled:   svc.Enabled,
			Transport: svc.Transport,
			Command:   svc.Command,
			Args:      svc.Args,
			URL:       svc.URL,
		}
	}
	return out
}
