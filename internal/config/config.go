package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Aliases           map[string]string `yaml:"aliases,omitempty"`
	Theme             string            `yaml:"theme"`
	APIURL            string            `yaml:"api_url"`
	HistFile          string            `yaml:"hist_file,omitempty"`
	HistorySize       int               `yaml:"history_size"`
	MaxMemoryBufferMB int               `yaml:"max_memory_buffer_mb"`
}

const DefaultMaxMemoryBufferMB = 100 // 100MB

func Default() *Config {
	return &Config{
		Theme:             "auto",
		APIURL:            "http://localhost:8421",
		HistorySize:       1000,
		MaxMemoryBufferMB: DefaultMaxMemoryBufferMB,
		Aliases:           make(map[string]string),
	}
}

func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".agfs-shell"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DefaultHistoryPath returns ~/.agfs_shell_history, the default named by
// the spec when HISTFILE is unset.
func DefaultHistoryPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".agfs_shell_history"), nil
}

// HistoryPath returns the effective history file path: $HISTFILE if set,
// otherwise DefaultHistoryPath.
func HistoryPath() (string, error) {
	if hist := os.Getenv("HISTFILE"); hist != "" {
		return hist, nil
	}
	return DefaultHistoryPath()
}

func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		f, err := os.Open(path)
		if err == nil {
			defer f.Close()
			if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if url := os.Getenv("AGFS_API_URL"); url != "" {
		cfg.APIURL = url
	}
	if hist := os.Getenv("HISTFILE"); hist != "" {
		cfg.HistFile = hist
	}

	return cfg, nil
}

// Save writes the config to ~/.agfs-shell/config.yaml
func Save(cfg *Config) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := yaml.NewEncoder(f)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
