package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

type GameConfig struct {
	// HandsPerGame ends the game after this many hands. Zero plays until
	// the game is ended explicitly.
	HandsPerGame        int `json:"hands_per_game"`
	MaxRules            int `json:"max_rules"`
	TurnDurationSeconds int `json:"turn_duration_seconds"`
	// BotAutoFillDelaySeconds configures how many seconds to wait before filling empty seats with bots.
	BotAutoFillDelaySeconds int    `json:"bot_auto_fill_delay_seconds"`
	BotsEnabled             bool   `json:"bots_enabled"`
	AuditSecret             string `json:"audit_secret"`
	AuditIssuer             string `json:"audit_issuer"`
}

// Env keys read by ApplyEnv.
const (
	EnvBotsEnabled  = "whist_bots_enabled"
	EnvHandsPerGame = "whist_hands_per_game"
	EnvAuditSecret  = "whist_audit_secret"
)

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// Defaults returns the configuration used when no file has been loaded.
func Defaults() GameConfig {
	return GameConfig{
		HandsPerGame:            5,
		TurnDurationSeconds:     30,
		BotAutoFillDelaySeconds: 15,
		BotsEnabled:             true,
		AuditIssuer:             "whist",
	}
}

// Parse decodes a JSON config over the defaults.
func Parse(data []byte) (GameConfig, error) {
	c := Defaults()
	if err := json.Unmarshal(data, &c); err != nil {
		return GameConfig{}, fmt.Errorf("failed to unmarshal game config: %w", err)
	}
	if c.HandsPerGame < 0 || c.MaxRules < 0 || c.TurnDurationSeconds < 0 || c.BotAutoFillDelaySeconds < 0 {
		return GameConfig{}, fmt.Errorf("game config values must not be negative")
	}
	return c, nil
}

// LoadGameConfig loads the game configuration from the given path.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}

		c, err := Parse(data)
		if err != nil {
			loadErr = err
			return
		}
		cfg = &c
	})
	return loadErr
}

// GetGameConfig returns the global game configuration, or the defaults when
// none was loaded.
func GetGameConfig() GameConfig {
	if cfg == nil {
		return Defaults()
	}
	return *cfg
}

// ApplyEnv overrides c with runtime env values. Malformed values are
// ignored.
func (c GameConfig) ApplyEnv(env map[string]string) GameConfig {
	if v, ok := env[EnvBotsEnabled]; ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			c.BotsEnabled = b
		}
	}
	if v, ok := env[EnvHandsPerGame]; ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n >= 0 {
			c.HandsPerGame = n
		}
	}
	if v := strings.TrimSpace(env[EnvAuditSecret]); v != "" {
		c.AuditSecret = v
	}
	return c
}
