package telegram

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrNoChatID is returned by LoadConfig for a file without a chat_id.
var ErrNoChatID = errors.New("chat_id is required")

// Config binds a campaign to one chat. Users maps Telegram user ids to the
// combatant each one plays.
type Config struct {
	ChatID int64            `yaml:"chat_id"`
	Users  map[int64]string `yaml:"users"`
	// GMs may act as the game master with "by: gm".
	GMs []int64 `yaml:"gms,omitempty"`
}

// LoadConfig reads a campaign's telegram.yaml.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if cfg.ChatID == 0 {
		return cfg, fmt.Errorf("%s: %w", path, ErrNoChatID)
	}
	return cfg, nil
}

// SaveConfig writes cfg as YAML.
func SaveConfig(path string, cfg Config) error {
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func (c Config) isGM(id int64) bool {
	for _, gm := range c.GMs {
		if gm == id {
			return true
		}
	}
	return false
}
