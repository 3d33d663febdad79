package federator

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
)

const filePermission = 0o644

type Config struct {
	Coordinator  CoordinatorConfig   `toml:"coordinator"`
	Participants []ParticipantConfig `toml:"participants"`
}

type CoordinatorConfig struct {
	URL          string `toml:"url"`
	MQTTUsername string `toml:"mqtt_username,omitempty"`
	MQTTPassword string `toml:"mqtt_password,omitempty"`
}

type ParticipantConfig struct {
	ID      string `toml:"id"`
	Address string `toml:"address"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	tree, err := toml.Load(string(data))
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	var cfg Config
	if err := tree.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func SaveConfig(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, filePermission); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}
