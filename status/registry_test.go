package status

import (
	"strings"
	"sync"
	"testing"

	"github.com/pixil98/go-testutil"
)

func TestMetricMapGetCaches(t *testing.T) {
	m := NewMetricMap[AtomicFloat]()
	a := m.Get(KeyFPS)
	b := m.Get(KeyFPS)
	if a != b {
		t.Error("Expected the same cell for repeated Get")
	}
	testutil.AssertEqual(t, "count", m.Count(), 1)
}

func TestMetricMapRangeSorted(t *testing.T) {
	m := NewMetricMap[AtomicString]()
	for _, k := range []string{"c", "a", "b"} {
		m.Get(k).Store(k)
	}
	var keys []string
	m.Range(func(k string, _ *AtomicString) { keys = append(keys, k) })
	testutil.AssertEqual(t, "order", strings.Join(keys, ","), "a,b,c")
}

func TestAtomicFloatConcurrentStore(t *testing.T) {
	var f AtomicFloat
	testutil.AssertEqual(t, "zero", f.Load(), 0.0)

	var wg sync.WaitGroup
	for i := 1; i <= 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.Store(float64(i) * 0.25)
		}()
	}
	wg.Wait()

	switch v := f.Load(); v {
	case 0.25, 0.5, 0.75, 1.0:
	default:
		t.Errorf("Expected one of the stored values, got %v", v)
	}
}

func TestAtomicStringTruncates(t *testing.T) {
	var s AtomicString
	testutil.AssertEqual(t, "zero", s.Load(), "")
	s.Store(strings.Repeat("x", MaxStringLen+8))
	testutil.AssertEqual(t, "len", len(s.Load()), MaxStringLen)
}

func TestRegistrySnapshot(t *testing.T) {
	r := NewRegistry()
	r.Strings.Get(KeyState).Store("playing")
	r.Ints.Get(KeyTicks).Store(42)
	r.Floats.Get(KeyFPS).Store(30)
	r.Bools.Get(KeyAudioMuted).Store(true)

	snap := r.Snapshot()
	testutil.AssertEqual(t, "total", r.TotalCount(), 4)
	testutil.AssertEqual(t, "state", snap[KeyState], any("playing"))
	testutil.AssertEqual(t, "ticks", snap[KeyTicks], any(int64(42)))
	testutil.AssertEqual(t, "fps", snap[KeyFPS], any(30.0))
	testutil.AssertEqual(t, "muted", snap[KeyAudioMuted], any(true))
}
