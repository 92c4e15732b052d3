// Package engine coordinates game state, frame timing and subsystem dispatch
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/lixenwraith/snake-arena/audio"
	"github.com/lixenwraith/snake-arena/input"
	"github.com/lixenwraith/snake-arena/pool"
	"github.com/lixenwraith/snake-arena/score"
	"github.com/lixenwraith/snake-arena/status"
	"github.com/lixenwraith/snake-arena/telemetry"
)

var (
	// ErrUnrecoverable wrapped by a subsystem error moves the game to StateError
	ErrUnrecoverable = errors.New("unrecoverable game error")
	ErrDestroyed     = errors.New("coordinator destroyed")
)

const defaultScoreTimeout = 2 * time.Second

// Initializer runs during Initialize after audio loading, typically registering subsystems
type Initializer func(ctx context.Context, c *Coordinator) error

// Coordinator owns the state machine, the frame clock and the subsystem registry
// Not safe for concurrent use; drive every method from the frame loop goroutine
type Coordinator struct {
	ctx    *Context
	log    *zap.Logger
	input  InputSource
	audio  Audio
	scores ScoreStore
	pools  *pool.Registry

	state     State
	gameTime  time.Duration
	deltaTime time.Duration
	lastTime  time.Duration
	started   bool
	ticks     int64

	systems map[string]Subsystem
	order   []string
	owners  map[State]string

	initializers []Initializer
	handles      map[input.Action]input.Handle

	notifying bool
	pending   []State
	destroyed bool

	scoreTimeout time.Duration

	metrics coordinatorMetrics
}

// coordinatorMetrics caches registry cells written each frame
type coordinatorMetrics struct {
	state      *status.AtomicString
	owner      *status.AtomicString
	fps        *status.AtomicFloat
	deltaMS    *status.AtomicFloat
	gameTimeMS *status.AtomicFloat
	ticks      *atomic.Int64
	errors     *atomic.Int64
	foodActive *atomic.Int64
	foodFree   *atomic.Int64
	partActive *atomic.Int64
	partFree   *atomic.Int64
}

type Option func(*Coordinator)

// WithPools replaces the pool registry sized from configuration
func WithPools(p *pool.Registry) Option {
	return func(c *Coordinator) { c.pools = p }
}

// WithInitializer appends a step to the subsystem initialization list
func WithInitializer(fn Initializer) Option {
	return func(c *Coordinator) { c.initializers = append(c.initializers, fn) }
}

func WithScoreTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.scoreTimeout = d
		}
	}
}

// New wires the coordinator to its collaborators and subscribes to input actions
// audio and scores may be nil; the game then runs silent or without persistence
func New(ctx *Context, in InputSource, au Audio, scores ScoreStore, opts ...Option) *Coordinator {
	if ctx == nil {
		ctx = NewContext(nil, nil, nil, Platform{})
	}
	c := &Coordinator{
		ctx:          ctx,
		log:          ctx.Logger,
		input:        in,
		audio:        au,
		scores:       scores,
		state:        StateLoading,
		systems:      make(map[string]Subsystem),
		owners:       defaultOwners(),
		handles:      make(map[input.Action]input.Handle),
		scoreTimeout: defaultScoreTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.pools == nil {
		perf := ctx.Config.Performance
		c.pools = pool.NewRegistry(perf.ObjectPoolSize, perf.MaxFoodsInstance)
	}

	m := ctx.Metrics
	c.metrics = coordinatorMetrics{
		state:      m.Strings.Get(status.KeyState),
		owner:      m.Strings.Get(status.KeyOwner),
		fps:        m.Floats.Get(status.KeyFPS),
		deltaMS:    m.Floats.Get(status.KeyDeltaMS),
		gameTimeMS: m.Floats.Get(status.KeyGameTimeMS),
		ticks:      m.Ints.Get(status.KeyTicks),
		errors:     m.Ints.Get(status.KeyErrors),
		foodActive: m.Ints.Get(status.KeyFoodActive),
		foodFree:   m.Ints.Get(status.KeyFoodFree),
		partActive: m.Ints.Get(status.KeyPartActive),
		partFree:   m.Ints.Get(status.KeyPartFree),
	}
	c.metrics.state.Store(c.state.String())

	c.subscribe()
	return c
}

// subscribe maps action phases onto HandleInput and the pause toggle
func (c *Coordinator) subscribe() {
	if c.input == nil {
		return
	}
	directional := func(action input.Action, phase input.Phase) error {
		switch phase {
		case input.PhaseDown, input.PhaseTouch:
			c.HandleInput(action, true)
		case input.PhaseUp:
			// Another bound key or contact may still hold the action
			if !c.input.IsPressed(action) {
				c.HandleInput(action, false)
			}
		}
		return nil
	}
	for _, a := range []input.Action{input.ActionLeft, input.ActionRight, input.ActionUp, input.ActionDown} {
		c.handles[a] = c.input.On(a, directional)
	}

	c.handles[input.ActionPause] = c.input.On(input.ActionPause, func(action input.Action, phase input.Phase) error {
		if phase != input.PhaseDown {
			return nil
		}
		switch c.state {
		case StatePlaying, StatePaused:
			c.TogglePause()
		default:
			// Outside play the pause key acts as a confirm press for the active subsystem
			c.HandleInput(action, true)
		}
		return nil
	})
}

// Initialize loads audio, runs the initializer list and enters the menu
// Any failure records an initialization error, moves to StateError and is returned
func (c *Coordinator) Initialize(ctx context.Context) error {
	if c.destroyed {
		return ErrDestroyed
	}
	if c.state != StateLoading {
		c.SetState(StateLoading)
	}

	if err := c.initialize(ctx); err != nil {
		err = fmt.Errorf("initialize: %w", err)
		c.ctx.Errors.LogError(telemetry.KindInitialization, err, nil)
		c.SetState(StateError)
		return err
	}

	c.SetState(StateMenu)
	c.log.Info("game initialized", zap.Int("systems", len(c.order)))
	return nil
}

func (c *Coordinator) initialize(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = telemetry.Recovered(r)
		}
	}()

	if c.audio != nil {
		if err := c.audio.LoadGameSounds(ctx); err != nil {
			return fmt.Errorf("load sounds: %w", err)
		}
	}
	for _, fn := range c.initializers {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// Tick advances the frame clock to now and updates the state owner, then the global systems
// The first tick only establishes the baseline and forwards a zero delta
func (c *Coordinator) Tick(now time.Duration) {
	if c.destroyed {
		return
	}

	if !c.started {
		c.started = true
		c.deltaTime = 0
	} else {
		c.deltaTime = max(now-c.lastTime, 0)
	}
	c.lastTime = now
	c.gameTime += c.deltaTime
	c.ticks++

	if name, sys := c.CurrentSystem(); sys != nil {
		dt := c.deltaTime
		c.dispatch(name, "update", func() error { return sys.Update(dt) })
	}

	c.updateGlobals()
}

// updateGlobals runs always-on bookkeeping after the state owner
func (c *Coordinator) updateGlobals() {
	if c.audio != nil {
		c.audio.Update()
	}

	m := c.metrics
	m.ticks.Store(c.ticks)
	m.deltaMS.Store(float64(c.deltaTime) / float64(time.Millisecond))
	m.gameTimeMS.Store(float64(c.gameTime) / float64(time.Millisecond))
	m.fps.Store(c.fps())
	m.errors.Store(int64(c.ctx.Errors.Count()))

	ps := c.pools.Stats()
	m.foodActive.Store(int64(ps.Food.Active))
	m.foodFree.Store(int64(ps.Food.Free))
	m.partActive.Store(int64(ps.Particle.Active))
	m.partFree.Store(int64(ps.Particle.Free))
}

// HandleInput forwards an action to the current state owner
func (c *Coordinator) HandleInput(action input.Action, pressed bool) {
	if c.destroyed {
		return
	}
	name, sys := c.CurrentSystem()
	if sys == nil {
		return
	}
	c.dispatch(name, "input", func() error { return sys.HandleInput(action, pressed) })
}

// dispatch runs a subsystem hook, recording errors and panics as update failures
func (c *Coordinator) dispatch(name, hook string, fn func() error) {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = telemetry.Recovered(r)
			}
		}()
		return fn()
	}()
	if err == nil {
		return
	}

	c.ctx.Errors.LogError(telemetry.KindUpdate, err, map[string]any{
		"system": name,
		"hook":   hook,
		"state":  c.state.String(),
	})
	if errors.Is(err, ErrUnrecoverable) {
		c.SetState(StateError)
	}
}

// SetState swaps the active state and notifies every subsystem in registration order before returning
// A SetState issued from inside a notification is applied once the current round completes
func (c *Coordinator) SetState(s State) {
	if c.destroyed {
		return
	}
	if c.notifying {
		c.pending = append(c.pending, s)
		return
	}

	c.notifying = true
	defer func() { c.notifying = false }()

	for {
		old := c.state
		c.state = s
		c.metrics.state.Store(s.String())
		c.metrics.owner.Store(c.owners[s])
		c.log.Info("game state changed", zap.Stringer("from", old), zap.Stringer("to", s))

		for _, name := range c.order {
			sys := c.systems[name]
			c.dispatch(name, "state", func() error {
				sys.OnStateChange(s, old)
				return nil
			})
		}

		if len(c.pending) == 0 {
			return
		}
		s = c.pending[0]
		c.pending = c.pending[1:]
	}
}

func (c *Coordinator) State() State {
	return c.state
}

// Pause moves playing to paused; no-op from any other state
func (c *Coordinator) Pause() {
	if c.state == StatePlaying {
		c.SetState(StatePaused)
	}
}

// Resume moves paused to playing; no-op from any other state
func (c *Coordinator) Resume() {
	if c.state == StatePaused {
		c.SetState(StatePlaying)
	}
}

func (c *Coordinator) TogglePause() {
	switch c.state {
	case StatePlaying:
		c.Pause()
	case StatePaused:
		c.Resume()
	}
}

// Focus maps host window focus changes onto Resume and Pause
func (c *Coordinator) Focus(focused bool) {
	if focused {
		c.Resume()
	} else {
		c.Pause()
	}
}

// StartGame enters playing and starts the soundtrack
func (c *Coordinator) StartGame() {
	c.SetState(StatePlaying)
	c.PlaySound("soundtrack")
}

// EndGame enters gameover, swaps the soundtrack for the game over cue and saves score
func (c *Coordinator) EndGame(finalScore int) {
	c.SetState(StateGameOver)
	if c.audio != nil {
		c.audio.Stop("soundtrack", 0)
	}
	c.PlaySound("game_over")
	c.saveScore(finalScore)
}

// ReturnToMenu leaves gameover for the menu; no-op from any other state
func (c *Coordinator) ReturnToMenu() {
	if c.state == StateGameOver {
		c.SetState(StateMenu)
	}
}

// PlaySound plays name, recording failures; returns the null handle when nothing plays
func (c *Coordinator) PlaySound(name string) audio.Handle {
	if c.audio == nil || c.destroyed {
		return 0
	}
	h, err := c.audio.Play(name, audio.PlayOptions{})
	if err != nil {
		c.ctx.Errors.LogError(telemetry.KindAudio, err, map[string]any{"sound": name})
		return 0
	}
	return h
}

func (c *Coordinator) saveScore(finalScore int) {
	if c.scores == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.scoreTimeout)
	defer cancel()
	if err := c.scores.SaveScore(ctx, finalScore); err != nil {
		c.ctx.Errors.LogError(telemetry.KindScoreSave, err, map[string]any{"score": finalScore})
	}
}

// HighScores returns the stored table, or an empty list when it cannot be read
func (c *Coordinator) HighScores() []score.Entry {
	if c.scores == nil {
		return []score.Entry{}
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.scoreTimeout)
	defer cancel()
	entries, err := c.scores.HighScores(ctx)
	if err != nil {
		c.ctx.Errors.LogError(telemetry.KindScoreLoad, err, nil)
		return []score.Entry{}
	}
	return entries
}

// Destroy tears down subsystems, then input, then audio
// Later calls are no-ops, as are Tick and HandleInput after it
func (c *Coordinator) Destroy() {
	if c.destroyed {
		return
	}

	for _, name := range c.order {
		sys := c.systems[name]
		c.dispatch(name, "destroy", func() error {
			sys.Destroy()
			return nil
		})
	}
	c.destroyed = true

	if c.input != nil {
		c.input.Destroy()
	}
	if c.audio != nil {
		c.audio.Destroy()
	}
	c.pools.ReleaseAll()
	c.log.Info("game destroyed")
}

func (c *Coordinator) Destroyed() bool {
	return c.destroyed
}

func (c *Coordinator) Context() *Context {
	return c.ctx
}

func (c *Coordinator) Pools() *pool.Registry {
	return c.pools
}
