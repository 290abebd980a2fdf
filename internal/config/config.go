package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the full process configuration. Values come from an
// optional YAML file (CONFIG_FILE) overridden by environment variables.
type AppConfig struct {
	ListenAddr string `yaml:"listen_addr"`

	DatabaseURL string `yaml:"database_url"`
	RedisURL    string `yaml:"redis_url"`
	EngineURL   string `yaml:"engine_url"`

	Gameplay GameplayConfig `yaml:"gameplay"`
}

// GameplayConfig carries the session-level tuning knobs.
type GameplayConfig struct {
	ReconnectionTimeoutSeconds    int    `yaml:"reconnection_timeout_seconds"`
	InactivityDeleteTimeoutSeconds int   `yaml:"inactivity_delete_timeout_seconds"`
	MinimumElo                    int    `yaml:"minimum_elo"`
	KFactor                       int    `yaml:"k_factor"`
	RematchRoomName               string `yaml:"rematch_room_name"`
	RematchRoomPassword           string `yaml:"rematch_room_password"`

	Bot                 bool   `yaml:"bot"`
	BotName             string `yaml:"bot_name"`
	BotJoinDelaySeconds int    `yaml:"bot_join_delay_seconds"`
	BotEloOffset        int    `yaml:"bot_elo_offset"`
	BotMaxRetries       int    `yaml:"bot_max_retries"`
	BotMoveDelayMillis  int    `yaml:"bot_move_delay_millis"`
}

func (g GameplayConfig) ReconnectionTimeout() time.Duration {
	return time.Duration(g.ReconnectionTimeoutSeconds) * time.Second
}

func (g GameplayConfig) InactivityDeleteTimeout() time.Duration {
	return time.Duration(g.InactivityDeleteTimeoutSeconds) * time.Second
}

func (g GameplayConfig) BotJoinDelay() time.Duration {
	return time.Duration(g.BotJoinDelaySeconds) * time.Second
}

func (g GameplayConfig) BotMoveDelay() time.Duration {
	return time.Duration(g.BotMoveDelayMillis) * time.Millisecond
}

// Load builds the configuration: defaults, then the YAML file named by
// CONFIG_FILE (if any), then env-var overrides, then validation.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr: ":8080",
		Gameplay: GameplayConfig{
			ReconnectionTimeoutSeconds:     30,
			InactivityDeleteTimeoutSeconds: 120,
			MinimumElo:                     100,
			KFactor:                        30,
			RematchRoomName:                "rematch",
			BotName:                        "MiniCarlsen",
			BotJoinDelaySeconds:            3,
			BotEloOffset:                   30,
			BotMaxRetries:                  10,
			BotMoveDelayMillis:             1000,
		},
	}

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		cfg.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		cfg.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("ENGINE_URL")); v != "" {
		cfg.EngineURL = v
	}

	overrideInt(&cfg.Gameplay.ReconnectionTimeoutSeconds, "RECONNECTION_TIMEOUT_SECONDS")
	overrideInt(&cfg.Gameplay.InactivityDeleteTimeoutSeconds, "INACTIVITY_DELETE_TIMEOUT_SECONDS")
	overrideInt(&cfg.Gameplay.MinimumElo, "MINIMUM_ELO")
	overrideInt(&cfg.Gameplay.KFactor, "K_FACTOR")
	overrideInt(&cfg.Gameplay.BotJoinDelaySeconds, "BOT_JOIN_DELAY_SECONDS")
	overrideInt(&cfg.Gameplay.BotEloOffset, "BOT_ELO_OFFSET")
	overrideInt(&cfg.Gameplay.BotMaxRetries, "BOT_MAX_RETRIES")
	overrideInt(&cfg.Gameplay.BotMoveDelayMillis, "BOT_MOVE_DELAY_MILLIS")
	if v := strings.TrimSpace(os.Getenv("BOT_ENABLED")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Gameplay.Bot = b
		}
	}
	if v := strings.TrimSpace(os.Getenv("BOT_NAME")); v != "" {
		cfg.Gameplay.BotName = v
	}
	if v := strings.TrimSpace(os.Getenv("REMATCH_ROOM_NAME")); v != "" {
		cfg.Gameplay.RematchRoomName = v
	}
	if v := strings.TrimSpace(os.Getenv("REMATCH_ROOM_PASSWORD")); v != "" {
		cfg.Gameplay.RematchRoomPassword = v
	}

	if cfg.Gameplay.ReconnectionTimeoutSeconds <= 0 {
		return nil, errors.New("reconnection timeout must be positive")
	}
	if cfg.Gameplay.InactivityDeleteTimeoutSeconds <= 0 {
		return nil, errors.New("inactivity delete timeout must be positive")
	}
	if cfg.Gameplay.KFactor <= 0 {
		return nil, errors.New("k-factor must be positive")
	}
	if cfg.Gameplay.Bot && strings.TrimSpace(cfg.EngineURL) == "" {
		return nil, errors.New("ENGINE_URL is required when the bot is enabled")
	}

	return cfg, nil
}

func overrideInt(dst *int, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		*dst = n
	}
}
