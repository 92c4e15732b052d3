package config

import "time"

// Overrides is a partial configuration; nil fields leave the current value in place
//
// Merge policy: groups merge field by field, scalars replace, slices replace wholesale
// A nil slice is unset, an empty non-nil slice replaces with empty
type Overrides struct {
	Canvas      *CanvasOverrides      `json:"canvas,omitempty"`
	Gameplay    *GameplayOverrides    `json:"gameplay,omitempty"`
	Audio       *AudioOverrides       `json:"audio,omitempty"`
	Performance *PerformanceOverrides `json:"performance,omitempty"`
	UI          *UIOverrides          `json:"ui,omitempty"`
	Logging     *LoggingOverrides     `json:"logging,omitempty"`
	Storage     *StorageOverrides     `json:"storage,omitempty"`
	Telemetry   *TelemetryOverrides   `json:"telemetry,omitempty"`
	Input       *InputOverrides       `json:"input,omitempty"`
	Scripting   *ScriptingOverrides   `json:"scripting,omitempty"`
}

type CanvasOverrides struct {
	Width  *int `json:"width,omitempty"`
	Height *int `json:"height,omitempty"`
}

type GameplayOverrides struct {
	HeroSpeed         *float64 `json:"heroSpeed,omitempty"`
	HeroSpeedUp       *float64 `json:"heroSpeedUp,omitempty"`
	HeroRotationSpeed *float64 `json:"heroRotationSpeed,omitempty"`
	MaxAIFollowers    *int     `json:"maxAIFollowers,omitempty"`
	FoodSpawnInterval *int     `json:"foodSpawnInterval,omitempty"`
	SnakeTypes        *int     `json:"snakeTypes,omitempty"`
	PlayerType        *int     `json:"playerType,omitempty"`
	EnemyTypes        []int    `json:"enemyTypes,omitempty"`
}

type AudioOverrides struct {
	Enabled            *bool    `json:"enabled,omitempty"`
	Volume             *float64 `json:"volume,omitempty"`
	Muted              *bool    `json:"muted,omitempty"`
	DisableSoundMobile *bool    `json:"disableSoundMobile,omitempty"`
	SoundDir           *string  `json:"soundDir,omitempty"`
}

type PerformanceOverrides struct {
	FPS              *int `json:"fps,omitempty"`
	ObjectPoolSize   *int `json:"objectPoolSize,omitempty"`
	MaxFoodsInstance *int `json:"maxFoodsInstance,omitempty"`
}

type UIOverrides struct {
	FontFamily *string `json:"fontFamily,omitempty"`
	EdgeboardX *int    `json:"edgeboardX,omitempty"`
	EdgeboardY *int    `json:"edgeboardY,omitempty"`
}

type LoggingOverrides struct {
	Level  *string `json:"level,omitempty"`
	Format *string `json:"format,omitempty"`
	File   *string `json:"file,omitempty"`
}

type StorageOverrides struct {
	Backend *string `json:"backend,omitempty"`
	Path    *string `json:"path,omitempty"`
	DSN     *string `json:"dsn,omitempty"`
}

type TelemetryOverrides struct {
	MaxErrors *int    `json:"maxErrors,omitempty"`
	NATSURL   *string `json:"natsURL,omitempty"`
	Subject   *string `json:"subject,omitempty"`
}

type InputOverrides struct {
	BindingsFile *string        `json:"bindingsFile,omitempty"`
	HoldTimeout  *time.Duration `json:"holdTimeout,omitempty"`
}

type ScriptingOverrides struct {
	File   *string `json:"file,omitempty"`
	System *string `json:"system,omitempty"`
}

// Merge applies o onto c
func (c *Config) Merge(o Overrides) {
	if g := o.Canvas; g != nil {
		set(&c.Canvas.Width, g.Width)
		set(&c.Canvas.Height, g.Height)
	}
	if g := o.Gameplay; g != nil {
		set(&c.Gameplay.HeroSpeed, g.HeroSpeed)
		set(&c.Gameplay.HeroSpeedUp, g.HeroSpeedUp)
		set(&c.Gameplay.HeroRotationSpeed, g.HeroRotationSpeed)
		set(&c.Gameplay.MaxAIFollowers, g.MaxAIFollowers)
		set(&c.Gameplay.FoodSpawnInterval, g.FoodSpawnInterval)
		set(&c.Gameplay.SnakeTypes, g.SnakeTypes)
		set(&c.Gameplay.PlayerType, g.PlayerType)
		if g.EnemyTypes != nil {
			c.Gameplay.EnemyTypes = append([]int{}, g.EnemyTypes...)
		}
	}
	if g := o.Audio; g != nil {
		set(&c.Audio.Enabled, g.Enabled)
		set(&c.Audio.Volume, g.Volume)
		set(&c.Audio.Muted, g.Muted)
		set(&c.Audio.DisableSoundMobile, g.DisableSoundMobile)
		set(&c.Audio.SoundDir, g.SoundDir)
	}
	if g := o.Performance; g != nil {
		set(&c.Performance.FPS, g.FPS)
		set(&c.Performance.ObjectPoolSize, g.ObjectPoolSize)
		set(&c.Performance.MaxFoodsInstance, g.MaxFoodsInstance)
	}
	if g := o.UI; g != nil {
		set(&c.UI.FontFamily, g.FontFamily)
		set(&c.UI.EdgeboardX, g.EdgeboardX)
		set(&c.UI.EdgeboardY, g.EdgeboardY)
	}
	if g := o.Logging; g != nil {
		set(&c.Logging.Level, g.Level)
		set(&c.Logging.Format, g.Format)
		set(&c.Logging.File, g.File)
	}
	if g := o.Storage; g != nil {
		set(&c.Storage.Backend, g.Backend)
		set(&c.Storage.Path, g.Path)
		set(&c.Storage.DSN, g.DSN)
	}
	if g := o.Telemetry; g != nil {
		set(&c.Telemetry.MaxErrors, g.MaxErrors)
		set(&c.Telemetry.NATSURL, g.NATSURL)
		set(&c.Telemetry.Subject, g.Subject)
	}
	if g := o.Input; g != nil {
		set(&c.Input.BindingsFile, g.BindingsFile)
		set(&c.Input.HoldTimeout, g.HoldTimeout)
	}
	if g := o.Scripting; g != nil {
		set(&c.Scripting.File, g.File)
		set(&c.Scripting.System, g.System)
	}
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Ptr returns a pointer to v for building Overrides literals
func Ptr[T any](v T) *T {
	return &v
}
