package config

import (
	"fmt"

	"github.com/pixil98/go-errors"
	"go.uber.org/zap/zapcore"
)

// Validate reports every invalid option at once
func (c *Config) Validate() error {
	el := errors.NewErrorList()

	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		el.Add(fmt.Errorf("canvas size must be positive, got %dx%d", c.Canvas.Width, c.Canvas.Height))
	}

	g := c.Gameplay
	if g.HeroSpeed < 0 || g.HeroSpeedUp < 0 {
		el.Add(fmt.Errorf("hero speeds must not be negative"))
	}
	if g.FoodSpawnInterval <= 0 {
		el.Add(fmt.Errorf("gameplay.foodSpawnInterval must be positive, got %d", g.FoodSpawnInterval))
	}
	if g.SnakeTypes <= 0 {
		el.Add(fmt.Errorf("gameplay.snakeTypes must be positive, got %d", g.SnakeTypes))
	}
	if g.PlayerType < 0 || g.PlayerType >= g.SnakeTypes {
		el.Add(fmt.Errorf("gameplay.playerType %d out of range [0,%d)", g.PlayerType, g.SnakeTypes))
	}
	for _, e := range g.EnemyTypes {
		if e < 0 || e >= g.SnakeTypes {
			el.Add(fmt.Errorf("gameplay.enemyTypes entry %d out of range [0,%d)", e, g.SnakeTypes))
		}
	}

	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		el.Add(fmt.Errorf("audio.volume must be within [0,1], got %g", c.Audio.Volume))
	}

	p := c.Performance
	if p.FPS <= 0 {
		el.Add(fmt.Errorf("performance.fps must be positive, got %d", p.FPS))
	}
	if p.ObjectPoolSize < 0 {
		el.Add(fmt.Errorf("performance.objectPoolSize must not be negative, got %d", p.ObjectPoolSize))
	}
	if p.MaxFoodsInstance <= 0 {
		el.Add(fmt.Errorf("performance.maxFoodsInstance must be positive, got %d", p.MaxFoodsInstance))
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		el.Add(fmt.Errorf("logging.level: %w", err))
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		el.Add(fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format))
	}

	switch c.Storage.Backend {
	case "memory":
	case "file":
		if c.Storage.Path == "" {
			el.Add(fmt.Errorf("storage.path is required for the file backend"))
		}
	case "postgres":
		if c.Storage.DSN == "" {
			el.Add(fmt.Errorf("storage.dsn is required for the postgres backend"))
		}
	default:
		el.Add(fmt.Errorf("unknown storage.backend %q", c.Storage.Backend))
	}

	if c.Telemetry.MaxErrors <= 0 {
		el.Add(fmt.Errorf("telemetry.maxErrors must be positive, got %d", c.Telemetry.MaxErrors))
	}
	if c.Input.HoldTimeout < 0 {
		el.Add(fmt.Errorf("input.holdTimeout must not be negative"))
	}
	if c.Scripting.File != "" && c.Scripting.System == "" {
		el.Add(fmt.Errorf("scripting.system is required when scripting.file is set"))
	}

	return el.Err()
}
