// Package config holds the runtime options, their defaults and the override merge policy
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Canvas      Canvas      `toml:"canvas" json:"canvas"`
	Gameplay    Gameplay    `toml:"gameplay" json:"gameplay"`
	Audio       Audio       `toml:"audio" json:"audio"`
	Performance Performance `toml:"performance" json:"performance"`
	UI          UI          `toml:"ui" json:"ui"`

	Logging   Logging   `toml:"logging" json:"logging"`
	Storage   Storage   `toml:"storage" json:"storage"`
	Telemetry Telemetry `toml:"telemetry" json:"telemetry"`
	Input     Input     `toml:"input" json:"input"`
	Scripting Scripting `toml:"scripting" json:"scripting"`
}

// Canvas is the logical play field in world units
type Canvas struct {
	Width  int `toml:"width" json:"width"`
	Height int `toml:"height" json:"height"`
}

func (c Canvas) WidthHalf() float64  { return float64(c.Width) * 0.5 }
func (c Canvas) HeightHalf() float64 { return float64(c.Height) * 0.5 }

type Gameplay struct {
	HeroSpeed         float64 `toml:"hero_speed" json:"heroSpeed"`
	HeroSpeedUp       float64 `toml:"hero_speed_up" json:"heroSpeedUp"`
	HeroRotationSpeed float64 `toml:"hero_rotation_speed" json:"heroRotationSpeed"`
	MaxAIFollowers    int     `toml:"max_ai_followers" json:"maxAIFollowers"`
	FoodSpawnInterval int     `toml:"food_spawn_interval" json:"foodSpawnInterval"` // milliseconds
	SnakeTypes        int     `toml:"snake_types" json:"snakeTypes"`
	PlayerType        int     `toml:"player_type" json:"playerType"`
	EnemyTypes        []int   `toml:"enemy_types" json:"enemyTypes"`
}

func (g Gameplay) SpawnInterval() time.Duration {
	return time.Duration(g.FoodSpawnInterval) * time.Millisecond
}

type Audio struct {
	Enabled            bool    `toml:"enabled" json:"enabled"`
	Volume             float64 `toml:"volume" json:"volume"`
	Muted              bool    `toml:"muted" json:"muted"`
	DisableSoundMobile bool    `toml:"disable_sound_mobile" json:"disableSoundMobile"`
	SoundDir           string  `toml:"sound_dir" json:"soundDir"`
}

type Performance struct {
	FPS              int `toml:"fps" json:"fps"`
	ObjectPoolSize   int `toml:"object_pool_size" json:"objectPoolSize"`
	MaxFoodsInstance int `toml:"max_foods_instance" json:"maxFoodsInstance"`
}

// FrameInterval is the target time between ticks, zero when FPS is not positive
func (p Performance) FrameInterval() time.Duration {
	if p.FPS <= 0 {
		return 0
	}
	return time.Second / time.Duration(p.FPS)
}

type UI struct {
	FontFamily string `toml:"font_family" json:"fontFamily"`
	EdgeboardX int    `toml:"edgeboard_x" json:"edgeboardX"`
	EdgeboardY int    `toml:"edgeboard_y" json:"edgeboardY"`
}

type Logging struct {
	Level  string `toml:"level" json:"level"`
	Format string `toml:"format" json:"format"` // "json" or "console"
	File   string `toml:"file" json:"file"`     // empty logs to stderr
}

type Storage struct {
	Backend string `toml:"backend" json:"backend"` // "file", "postgres" or "memory"
	Path    string `toml:"path" json:"path"`
	DSN     string `toml:"dsn" json:"dsn"`
}

type Telemetry struct {
	MaxErrors int    `toml:"max_errors" json:"maxErrors"`
	NATSURL   string `toml:"nats_url" json:"natsURL"`
	Subject   string `toml:"subject" json:"subject"`
}

type Input struct {
	BindingsFile string `toml:"bindings_file" json:"bindingsFile"`

	// HoldTimeout must exceed the terminal auto-repeat delay (X11 defaults to 660ms) or a held key
	// releases before its first repeat; a single tap holds the action for this long
	HoldTimeout time.Duration `toml:"hold_timeout" json:"holdTimeout"`
}

// Scripting loads an optional Lua subsystem registered under System, replacing a native one of the same name
type Scripting struct {
	File   string `toml:"file" json:"file"`
	System string `toml:"system" json:"system"`
}

// Default returns a fresh configuration with every option at its default
func Default() *Config {
	return &Config{
		Canvas: Canvas{
			Width:  1360,
			Height: 768,
		},
		Gameplay: Gameplay{
			HeroSpeed:         10,
			HeroSpeedUp:       15,
			HeroRotationSpeed: 10,
			MaxAIFollowers:    1,
			FoodSpawnInterval: 500,
			SnakeTypes:        5,
			PlayerType:        4,
			EnemyTypes:        []int{0, 1, 2, 3},
		},
		Audio: Audio{
			Enabled:  true,
			Volume:   1.0,
			SoundDir: "sounds",
		},
		Performance: Performance{
			FPS:              30,
			ObjectPoolSize:   50,
			MaxFoodsInstance: 100,
		},
		UI: UI{
			FontFamily: "palamecia_titlingregular",
			EdgeboardX: 175,
			EdgeboardY: 90,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
		Storage: Storage{
			Backend: "file",
			Path:    "data",
		},
		Telemetry: Telemetry{
			MaxErrors: 100,
			Subject:   "snake.telemetry.errors",
		},
		Input: Input{
			HoldTimeout: 700 * time.Millisecond,
		},
		Scripting: Scripting{
			System: "gameover",
		},
	}
}

// Load reads a TOML file onto the defaults; a .json file is read as JSON overrides
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if filepath.Ext(path) == ".json" {
		cfg, err := FromJSON(data)
		if err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		return cfg, nil
	}
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// FromJSON decodes a partial JSON document as Overrides and merges it onto the defaults
func FromJSON(data []byte) (*Config, error) {
	var o Overrides
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("decode overrides: %w", err)
	}
	cfg := Default()
	cfg.Merge(o)
	return cfg, nil
}

// ToJSON encodes the full configuration
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// Clone returns a deep copy
func (c *Config) Clone() *Config {
	out := *c
	out.Gameplay.EnemyTypes = slices.Clone(c.Gameplay.EnemyTypes)
	return &out
}
