package pool

import "github.com/lixenwraith/snake-arena/vmath"

const defaultFoodCapacity = 20

// Food is a pooled edible item
type Food struct {
	Pos     vmath.Vec2
	Kind    int
	Visible bool
}

// Particle is a pooled short-lived visual effect point
type Particle struct {
	Pos     vmath.Vec2
	Vel     vmath.Vec2
	Life    float64
	MaxLife float64
}

func newFood() *Food { return &Food{} }

// resetFood restores every field a fresh record has
func resetFood(f *Food) { *f = Food{} }

func newParticle() *Particle { return &Particle{} }

func resetParticle(p *Particle) { *p = Particle{} }

// RegistryStats groups per-pool diagnostics
type RegistryStats struct {
	Food     Stats `json:"food"`
	Particle Stats `json:"particle"`
}

// Registry owns the typed pools of the game's transient entities
type Registry struct {
	food     *Pool[Food]
	particle *Pool[Particle]
}

// NewRegistry creates the food and particle pools
// particleCapacity pre-populates particles, maxFoods caps active food for TryAcquire (0 = no cap)
func NewRegistry(particleCapacity, maxFoods int) *Registry {
	return &Registry{
		food:     New(newFood, resetFood, defaultFoodCapacity, WithLimit(maxFoods)),
		particle: New(newParticle, resetParticle, particleCapacity),
	}
}

// Food acquires a food record, false when the active food cap is reached
func (r *Registry) Food() (*Food, bool) {
	return r.food.TryAcquire()
}

func (r *Registry) ReleaseFood(f *Food) {
	r.food.Release(f)
}

// Particle acquires a particle record, never refuses
func (r *Registry) Particle() *Particle {
	return r.particle.Acquire()
}

func (r *Registry) ReleaseParticle(p *Particle) {
	r.particle.Release(p)
}

// Foods exposes the food pool for iteration-free bookkeeping
func (r *Registry) Foods() *Pool[Food] {
	return r.food
}

// Particles exposes the particle pool
func (r *Registry) Particles() *Pool[Particle] {
	return r.particle
}

// ReleaseAll returns every active record of every pool
func (r *Registry) ReleaseAll() {
	r.food.ReleaseAll()
	r.particle.ReleaseAll()
}

func (r *Registry) Stats() RegistryStats {
	return RegistryStats{
		Food:     r.food.Stats(),
		Particle: r.particle.Stats(),
	}
}
