package engine

import (
	"time"

	"github.com/lixenwraith/snake-arena/pool"
)

// PerformanceStats is a diagnostics snapshot of the frame clock
type PerformanceStats struct {
	GameTime  time.Duration      `json:"gameTime"`
	DeltaTime time.Duration      `json:"deltaTime"`
	FPS       float64            `json:"fps"`
	Ticks     int64              `json:"ticks"`
	State     string             `json:"state"`
	Pools     pool.RegistryStats `json:"objectPools"`
	Errors    int                `json:"errors"`
}

func (c *Coordinator) Stats() PerformanceStats {
	return PerformanceStats{
		GameTime:  c.gameTime,
		DeltaTime: c.deltaTime,
		FPS:       c.fps(),
		Ticks:     c.ticks,
		State:     c.state.String(),
		Pools:     c.pools.Stats(),
		Errors:    c.ctx.Errors.Count(),
	}
}

// fps is the instantaneous rate from the last delta, zero before the second tick
func (c *Coordinator) fps() float64 {
	if c.deltaTime <= 0 {
		return 0
	}
	return float64(time.Second) / float64(c.deltaTime)
}
