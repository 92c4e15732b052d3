// Package status is the lock-free metrics registry written by the frame loop and read by the overlay
package status

import "sync/atomic"

// Metric keys written by the runtime
const (
	KeyState        = "engine.state"
	KeyOwner        = "engine.owner"
	KeyFPS          = "engine.fps"
	KeyDeltaMS      = "engine.delta_ms"
	KeyGameTimeMS   = "engine.game_time_ms"
	KeyTicks        = "engine.ticks"
	KeyErrors       = "engine.errors"
	KeyFoodActive   = "pool.food.active"
	KeyFoodFree     = "pool.food.free"
	KeyPartActive   = "pool.particle.active"
	KeyPartFree     = "pool.particle.free"
	KeyAudioVoices  = "audio.voices"
	KeyAudioMuted   = "audio.muted"
	KeyScore        = "game.score"
	KeyInputEnabled = "input.enabled"
)

// Registry groups metric maps by value type
type Registry struct {
	Bools   *MetricMap[atomic.Bool]
	Ints    *MetricMap[atomic.Int64]
	Floats  *MetricMap[AtomicFloat]
	Strings *MetricMap[AtomicString]
}

func NewRegistry() *Registry {
	return &Registry{
		Bools:   NewMetricMap[atomic.Bool](),
		Ints:    NewMetricMap[atomic.Int64](),
		Floats:  NewMetricMap[AtomicFloat](),
		Strings: NewMetricMap[AtomicString](),
	}
}

func (r *Registry) TotalCount() int {
	return r.Bools.Count() + r.Ints.Count() + r.Floats.Count() + r.Strings.Count()
}

// Snapshot reads every metric into a plain map keyed by metric name
func (r *Registry) Snapshot() map[string]any {
	out := make(map[string]any, r.TotalCount())
	r.Bools.Range(func(k string, v *atomic.Bool) { out[k] = v.Load() })
	r.Ints.Range(func(k string, v *atomic.Int64) { out[k] = v.Load() })
	r.Floats.Range(func(k string, v *AtomicFloat) { out[k] = v.Load() })
	r.Strings.Range(func(k string, v *AtomicString) { out[k] = v.Load() })
	return out
}
