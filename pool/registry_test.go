package pool

import (
	"testing"

	"github.com/lixenwraith/snake-arena/vmath"
)

func TestRegistryDefaults(t *testing.T) {
	r := NewRegistry(50, 100)
	st := r.Stats()

	if st.Food.Free != defaultFoodCapacity {
		t.Errorf("Expected %d free food, got %d", defaultFoodCapacity, st.Food.Free)
	}
	if st.Particle.Free != 50 {
		t.Errorf("Expected 50 free particles, got %d", st.Particle.Free)
	}
}

func TestRegistryFoodCap(t *testing.T) {
	r := NewRegistry(0, 2)

	a, ok := r.Food()
	if !ok {
		t.Fatal("Food refused below cap")
	}
	if _, ok := r.Food(); !ok {
		t.Fatal("Food refused below cap")
	}
	if _, ok := r.Food(); ok {
		t.Error("Food exceeded maxFoods cap")
	}

	r.ReleaseFood(a)
	if _, ok := r.Food(); !ok {
		t.Error("Food refused after release")
	}
}

func TestRegistryResetRestoresFreshState(t *testing.T) {
	r := NewRegistry(1, 0)

	f, _ := r.Food()
	f.Pos = vmath.V2(10, 20)
	f.Kind = 3
	f.Visible = true
	r.ReleaseFood(f)
	if *f != (Food{}) {
		t.Errorf("Food not fully reset: %+v", *f)
	}

	p := r.Particle()
	p.Pos = vmath.V2(1, 1)
	p.Vel = vmath.V2(2, 2)
	p.Life, p.MaxLife = 0.5, 1
	r.ReleaseParticle(p)
	if *p != (Particle{}) {
		t.Errorf("Particle not fully reset: %+v", *p)
	}
}

func TestRegistryReleaseAll(t *testing.T) {
	r := NewRegistry(0, 0)
	r.Food()
	r.Particle()
	r.Particle()

	r.ReleaseAll()
	st := r.Stats()
	if st.Food.Active != 0 || st.Particle.Active != 0 {
		t.Errorf("Expected no active records, got food %d particle %d", st.Food.Active, st.Particle.Active)
	}
	if st.Particle.Total != 2 {
		t.Errorf("Expected 2 particles total, got %d", st.Particle.Total)
	}
}
