// Package audio loads and plays the game's sound clips over a single master mix
package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/lixenwraith/snake-arena/config"
	"github.com/lixenwraith/snake-arena/telemetry"
)

// SampleRate is the output rate every clip is resampled to
const SampleRate = beep.SampleRate(44100)

var (
	ErrNotLoaded = errors.New("sound not loaded")
	ErrDestroyed = errors.New("audio manager destroyed")
)

// Handle identifies one playback; zero is the null handle
type Handle uint64

// Reporter receives playback and load failures
type Reporter interface {
	LogError(kind string, err error, fields map[string]any)
}

type voice struct {
	id    Handle
	name  string
	ctrl  *beep.Ctrl
	vol   *effects.Volume
	ended atomic.Bool
}

// Manager owns loaded sounds and live voices
// Disabled managers hand out mock sounds and never touch the device
type Manager struct {
	mu sync.Mutex

	enabled   bool
	muted     bool
	volume    float64
	soundDir  string
	destroyed bool

	sink   Sink
	silent bool // device failed to open
	mixer  *beep.Mixer
	master *effects.Volume

	sounds  map[string]*Sound
	voices  map[Handle]*voice
	nextID  Handle
	loading singleflight.Group

	log      *zap.Logger
	reporter Reporter
}

type Option func(*Manager)

// WithSink replaces the system speaker
func WithSink(s Sink) Option {
	return func(m *Manager) { m.sink = s }
}

func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

func WithReporter(r Reporter) Option {
	return func(m *Manager) { m.reporter = r }
}

// NewManager creates the manager and opens the output device when audio is enabled
// Audio is disabled when cfg.Enabled is false or on mobile hosts with DisableSoundMobile
func NewManager(cfg config.Audio, mobile bool, opts ...Option) *Manager {
	m := &Manager{
		enabled:  cfg.Enabled && !(mobile && cfg.DisableSoundMobile),
		muted:    cfg.Muted,
		volume:   clamp01(cfg.Volume),
		soundDir: cfg.SoundDir,
		mixer:    &beep.Mixer{},
		sounds:   make(map[string]*Sound),
		voices:   make(map[Handle]*voice),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.master = &effects.Volume{Streamer: m.mixer, Base: 2}
	m.applyMaster()

	if !m.enabled {
		m.log.Info("audio disabled", zap.Bool("mobile", mobile))
		return m
	}

	if m.sink == nil {
		m.sink = NewSpeakerSink(0)
	}
	if err := m.sink.Init(SampleRate); err != nil {
		m.silent = true
		m.log.Warn("audio device unavailable, continuing silent", zap.Error(err))
		return m
	}
	m.sink.Play(m.master)
	return m
}

// LoadSound decodes path once and caches it under name
// Concurrent loads of the same name share one decode
func (m *Manager) LoadSound(ctx context.Context, name, path string, opts LoadOptions) (*Sound, error) {
	m.mu.Lock()
	if m.destroyed {
		m.mu.Unlock()
		return nil, ErrDestroyed
	}
	if s, ok := m.sounds[name]; ok {
		m.mu.Unlock()
		return s, nil
	}
	live := m.enabled && !m.silent
	m.mu.Unlock()

	ch := m.loading.DoChan(name, func() (any, error) {
		s := &Sound{name: name, opts: opts}
		if live {
			buf, err := decodeFile(path, SampleRate)
			if err != nil {
				return nil, err
			}
			s.buffer = buf
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		if existing, ok := m.sounds[name]; ok {
			return existing, nil
		}
		if m.destroyed {
			return nil, ErrDestroyed
		}
		m.sounds[name] = s
		return s, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("load sound %s: %w", name, res.Err)
		}
		return res.Val.(*Sound), nil
	}
}

// LoadGameSounds loads GameSounds from the configured directory concurrently
// A clip that fails to load is reported and skipped; only cancellation fails the call
func (m *Manager) LoadGameSounds(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, gs := range GameSounds {
		g.Go(func() error {
			path := filepath.Join(m.soundDir, gs.File)
			_, err := m.LoadSound(gctx, gs.Name, path, LoadOptions{Loop: gs.Loop})
			if err == nil {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.report(err, map[string]any{"sound": gs.Name, "path": path})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	m.log.Info("audio loading complete", zap.Int("sounds", m.LoadedCount()))
	return nil
}

// Play starts a new voice of name
// Returns the null handle without error when audio is disabled, silent or muted
func (m *Manager) Play(name string, opts PlayOptions) (h Handle, err error) {
	defer func() {
		if r := recover(); r != nil {
			h, err = 0, fmt.Errorf("play %s: %w", name, telemetry.Recovered(r))
			m.report(err, map[string]any{"sound": name})
		}
	}()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.destroyed || !m.enabled || m.silent || m.muted {
		return 0, nil
	}
	s, ok := m.sounds[name]
	if !ok {
		m.log.Warn("sound not loaded", zap.String("sound", name))
		return 0, fmt.Errorf("play %s: %w", name, ErrNotLoaded)
	}
	if s.IsMock() {
		return 0, nil
	}

	var src beep.Streamer = s.buffer.Streamer(0, s.buffer.Len())
	if s.opts.Loop {
		src = beep.Loop(-1, s.buffer.Streamer(0, s.buffer.Len()))
	}

	level := 1.0
	if s.opts.Volume > 0 {
		level = s.opts.Volume
	}
	if opts.Volume != nil {
		level = *opts.Volume
	}

	m.nextID++
	v := &voice{id: m.nextID, name: name}
	v.ctrl = &beep.Ctrl{Streamer: src}
	v.vol = &effects.Volume{Streamer: v.ctrl, Base: 2}
	setLevel(v.vol, level)

	m.sink.Lock()
	m.mixer.Add(beep.Seq(v.vol, beep.Callback(func() { v.ended.Store(true) })))
	m.sink.Unlock()

	m.voices[v.id] = v
	return v.id, nil
}

// Stop ends the voice h of name, or every voice of name when h is zero
func (m *Manager) Stop(name string, h Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sink == nil {
		return
	}
	m.sink.Lock()
	defer m.sink.Unlock()
	for id, v := range m.voices {
		if v.name != name || (h != 0 && id != h) {
			continue
		}
		// Replacing the inner streamer drains the voice on the next pull
		v.ctrl.Streamer = nil
		v.ctrl.Paused = false
		v.ended.Store(true)
		delete(m.voices, id)
	}
}

// Pause holds the voice h of name, or every voice of name when h is zero
func (m *Manager) Pause(name string, h Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sink == nil {
		return
	}
	m.sink.Lock()
	defer m.sink.Unlock()
	for id, v := range m.voices {
		if v.name == name && (h == 0 || id == h) {
			v.ctrl.Paused = true
		}
	}
}

// Resume continues paused voices of name; zero h resumes all of them
func (m *Manager) Resume(name string, h Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sink == nil {
		return
	}
	m.sink.Lock()
	defer m.sink.Unlock()
	for id, v := range m.voices {
		if v.name == name && (h == 0 || id == h) {
			v.ctrl.Paused = false
		}
	}
}

// SetVolume sets the master volume, clamped to [0,1]
func (m *Manager) SetVolume(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = clamp01(v)
	m.applyMaster()
}

func (m *Manager) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

func (m *Manager) Mute(muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muted = muted
	m.applyMaster()
}

func (m *Manager) IsMuted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted
}

func (m *Manager) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled && !m.silent
}

// IsPlaying reports whether any unpaused voice of name is still running
func (m *Manager) IsPlaying(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sink == nil {
		return false
	}
	m.sink.Lock()
	defer m.sink.Unlock()
	for _, v := range m.voices {
		if v.name == name && !v.ended.Load() && !v.ctrl.Paused {
			return true
		}
	}
	return false
}

// Sound returns the loaded sound for name
func (m *Manager) Sound(name string) (*Sound, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sounds[name]
	return s, ok
}

func (m *Manager) LoadedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sounds)
}

// ActiveVoices returns the number of tracked voices, finished ones included until Update prunes them
func (m *Manager) ActiveVoices() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.voices)
}

// Update drops voices that finished playing; called once per frame
func (m *Manager) Update() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, v := range m.voices {
		if v.ended.Load() {
			delete(m.voices, id)
		}
	}
}

// Destroy stops playback, releases the device and forgets every sound
// Safe to call more than once
func (m *Manager) Destroy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return
	}
	m.destroyed = true

	if m.sink != nil {
		m.sink.Lock()
		m.mixer.Clear()
		m.sink.Unlock()
		if m.enabled && !m.silent {
			m.sink.Close()
		}
	}
	clear(m.sounds)
	clear(m.voices)
}

func (m *Manager) applyMaster() {
	if m.sink != nil {
		m.sink.Lock()
		defer m.sink.Unlock()
	}
	m.master.Silent = m.muted || m.volume == 0
	if !m.master.Silent {
		m.master.Volume = math.Log2(m.volume)
	}
}

func (m *Manager) report(err error, fields map[string]any) {
	if m.reporter != nil {
		m.reporter.LogError(telemetry.KindAudio, err, fields)
		return
	}
	m.log.Warn("audio failure", zap.Error(err), zap.Any("context", fields))
}

// setLevel maps a linear gain in [0,1] onto the base-2 volume effect
func setLevel(v *effects.Volume, level float64) {
	level = clamp01(level)
	v.Silent = level == 0
	if !v.Silent {
		v.Volume = math.Log2(level)
	}
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
