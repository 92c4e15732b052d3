package systems

import (
	"math"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/lixenwraith/snake-arena/config"
	"github.com/lixenwraith/snake-arena/engine"
	"github.com/lixenwraith/snake-arena/input"
	"github.com/lixenwraith/snake-arena/pool"
	"github.com/lixenwraith/snake-arena/status"
	"github.com/lixenwraith/snake-arena/vmath"
)

// Speeds in config are per reference frame; scaled to per-second here
const referenceFPS = 30

const (
	eatRadius        = 24.0
	spawnMargin      = 32.0
	burstSize        = 8
	particleLife     = 0.5 // seconds
	particleVelocity = 120.0
	foodKinds        = 4
)

// Hero is the player-controlled snake head
type Hero struct {
	Pos   vmath.Vec2
	Angle float64 // radians, 0 along +X
}

// Gameplay moves the hero, spawns and eats food, and drives the particle burst
// Food and particles are pool records; every one is released when play ends
type Gameplay struct {
	ctl   Controller
	pools *pool.Registry
	log   *zap.Logger
	rng   *rand.Rand

	canvas config.Canvas
	play   config.Gameplay

	hero              Hero
	left, right, boost bool

	foods     []*pool.Food
	particles []*pool.Particle
	spawnAcc  time.Duration
	score     int

	statScore *atomic.Int64
}

type GameplayOption func(*Gameplay)

// WithRand sets the source for food placement and particle spread
func WithRand(r *rand.Rand) GameplayOption {
	return func(g *Gameplay) { g.rng = r }
}

func NewGameplay(ctl Controller, ctx *engine.Context, opts ...GameplayOption) *Gameplay {
	g := &Gameplay{
		ctl:       ctl,
		pools:     ctl.Pools(),
		log:       ctx.Logger.Named("gameplay"),
		rng:       rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
		canvas:    ctx.Config.Canvas,
		play:      ctx.Config.Gameplay,
		statScore: ctx.Metrics.Ints.Get(status.KeyScore),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.reset()
	return g
}

func (g *Gameplay) Initialize() error { return nil }

func (g *Gameplay) HandleInput(action input.Action, pressed bool) error {
	switch action {
	case input.ActionLeft:
		g.left = pressed
	case input.ActionRight:
		g.right = pressed
	case input.ActionUp:
		g.boost = pressed
	}
	return nil
}

// Update advances one frame; leaving the canvas ends the game
func (g *Gameplay) Update(dt time.Duration) error {
	sec := dt.Seconds()

	turn := 0.0
	if g.left {
		turn--
	}
	if g.right {
		turn++
	}
	rot := g.play.HeroRotationSpeed * referenceFPS * math.Pi / 180
	g.hero.Angle += turn * rot * sec

	speed := g.play.HeroSpeed
	if g.boost {
		speed = g.play.HeroSpeedUp
	}
	step := vmath.V2Scale(vmath.V2FromAngle(g.hero.Angle), speed*referenceFPS*sec)
	g.hero.Pos = vmath.V2Add(g.hero.Pos, step)

	if !vmath.V2Inside(g.hero.Pos, float64(g.canvas.Width), float64(g.canvas.Height)) {
		g.log.Debug("hero left canvas", zap.Int("score", g.score))
		g.ctl.EndGame(g.score)
		return nil
	}

	g.spawn(dt)
	g.eat()
	g.updateParticles(sec)
	g.statScore.Store(int64(g.score))
	return nil
}

func (g *Gameplay) spawn(dt time.Duration) {
	interval := g.play.SpawnInterval()
	if interval <= 0 {
		return
	}
	g.spawnAcc += dt
	for g.spawnAcc >= interval {
		g.spawnAcc -= interval
		w := float64(g.canvas.Width) - 2*spawnMargin
		h := float64(g.canvas.Height) - 2*spawnMargin
		pos := vmath.V2(spawnMargin+g.rng.Float64()*w, spawnMargin+g.rng.Float64()*h)
		if !g.spawnAt(pos) {
			// At the cap; drop the backlog instead of bursting when food frees up
			g.spawnAcc = 0
			return
		}
	}
}

func (g *Gameplay) spawnAt(pos vmath.Vec2) bool {
	f, ok := g.pools.Food()
	if !ok {
		return false
	}
	f.Pos = pos
	f.Kind = g.rng.IntN(foodKinds)
	f.Visible = true
	g.foods = append(g.foods, f)
	return true
}

func (g *Gameplay) eat() {
	r2 := eatRadius * eatRadius
	for i := 0; i < len(g.foods); {
		f := g.foods[i]
		if vmath.V2DistSq(f.Pos, g.hero.Pos) >= r2 {
			i++
			continue
		}
		g.burst(f.Pos)
		g.pools.ReleaseFood(f)
		last := len(g.foods) - 1
		g.foods[i] = g.foods[last]
		g.foods[last] = nil
		g.foods = g.foods[:last]

		g.score++
		g.ctl.PlaySound(soundEat)
	}
}

func (g *Gameplay) burst(at vmath.Vec2) {
	base := g.rng.Float64() * 2 * math.Pi
	for i := range burstSize {
		p := g.pools.Particle()
		angle := base + float64(i)*2*math.Pi/burstSize
		p.Pos = at
		p.Vel = vmath.V2Scale(vmath.V2FromAngle(angle), particleVelocity)
		p.Life = particleLife
		p.MaxLife = particleLife
		g.particles = append(g.particles, p)
	}
}

func (g *Gameplay) updateParticles(sec float64) {
	for i := 0; i < len(g.particles); {
		p := g.particles[i]
		p.Life -= sec
		if p.Life > 0 {
			p.Pos = vmath.V2Add(p.Pos, vmath.V2Scale(p.Vel, sec))
			i++
			continue
		}
		g.pools.ReleaseParticle(p)
		last := len(g.particles) - 1
		g.particles[i] = g.particles[last]
		g.particles[last] = nil
		g.particles = g.particles[:last]
	}
}

// OnStateChange starts a fresh round on entering play and releases everything when play ends
func (g *Gameplay) OnStateChange(newState, oldState engine.State) {
	wasInGame := oldState == engine.StatePlaying || oldState == engine.StatePaused
	switch {
	case newState == engine.StatePlaying && oldState != engine.StatePaused:
		g.release()
		g.reset()
	case wasInGame && (newState == engine.StateMenu || newState == engine.StateGameOver):
		g.release()
	}
	if newState == engine.StatePaused {
		// Key releases during pause never reach this subsystem
		g.left, g.right, g.boost = false, false, false
	}
}

func (g *Gameplay) Destroy() {
	g.release()
}

func (g *Gameplay) reset() {
	g.hero = Hero{
		Pos:   vmath.V2(g.canvas.WidthHalf(), g.canvas.HeightHalf()),
		Angle: -math.Pi / 2,
	}
	g.left, g.right, g.boost = false, false, false
	g.spawnAcc = 0
	g.score = 0
	g.statScore.Store(0)
}

func (g *Gameplay) release() {
	for _, f := range g.foods {
		g.pools.ReleaseFood(f)
	}
	for _, p := range g.particles {
		g.pools.ReleaseParticle(p)
	}
	clear(g.foods)
	clear(g.particles)
	g.foods = g.foods[:0]
	g.particles = g.particles[:0]
}

// === View ===

func (g *Gameplay) Hero() Hero { return g.hero }

func (g *Gameplay) Score() int { return g.score }

// Foods copies the visible food records
func (g *Gameplay) Foods() []pool.Food {
	out := make([]pool.Food, 0, len(g.foods))
	for _, f := range g.foods {
		if f.Visible {
			out = append(out, *f)
		}
	}
	return out
}

func (g *Gameplay) Particles() []pool.Particle {
	out := make([]pool.Particle, 0, len(g.particles))
	for _, p := range g.particles {
		out = append(out, *p)
	}
	return out
}
