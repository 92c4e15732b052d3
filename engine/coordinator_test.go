package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"

	"github.com/lixenwraith/snake-arena/audio"
	"github.com/lixenwraith/snake-arena/input"
	"github.com/lixenwraith/snake-arena/pool"
	"github.com/lixenwraith/snake-arena/status"
	"github.com/lixenwraith/snake-arena/telemetry"
)

func TestStateString(t *testing.T) {
	tests := map[State]string{
		StateLoading:  "loading",
		StateMenu:     "menu",
		StatePlaying:  "playing",
		StatePaused:   "paused",
		StateGameOver: "gameover",
		StateError:    "error",
		State(42):     "unknown",
	}
	for s, want := range tests {
		testutil.AssertEqual(t, "state name", s.String(), want)
	}
}

func TestInitialStateIsLoading(t *testing.T) {
	c, _, _, _ := newTestCoordinator()
	testutil.AssertEqual(t, "state", c.State(), StateLoading)
}

func TestInitializeSuccess(t *testing.T) {
	var ran bool
	c, _, au, _ := newTestCoordinator(WithInitializer(func(ctx context.Context, c *Coordinator) error {
		ran = true
		return c.RegisterSystem(SystemMenu, &recordingSystem{name: "menu"})
	}))

	if err := c.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	testutil.AssertEqual(t, "state", c.State(), StateMenu)
	testutil.AssertEqual(t, "audio loaded", au.loaded, true)
	testutil.AssertEqual(t, "initializer ran", ran, true)
	_, sys := c.CurrentSystem()
	if sys == nil {
		t.Error("Expected menu owner after initialize")
	}
}

func TestInitializeAudioFailure(t *testing.T) {
	c, _, au, _ := newTestCoordinator()
	au.loadErr = errBoom

	err := c.Initialize(context.Background())
	if !errors.Is(err, errBoom) {
		t.Fatalf("Expected wrapped boom, got %v", err)
	}
	testutil.AssertEqual(t, "state", c.State(), StateError)

	recs := c.Context().Errors.Errors()
	testutil.AssertEqual(t, "errors", len(recs), 1)
	testutil.AssertEqual(t, "kind", recs[0].Type, telemetry.KindInitialization)
}

func TestInitializeInitializerPanic(t *testing.T) {
	c, _, _, _ := newTestCoordinator(WithInitializer(func(context.Context, *Coordinator) error {
		panic("bad wiring")
	}))

	err := c.Initialize(context.Background())
	var pe *telemetry.PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected panic error, got %v", err)
	}
	testutil.AssertEqual(t, "state", c.State(), StateError)
}

func TestInitializeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c, _, _, _ := newTestCoordinator(WithInitializer(func(context.Context, *Coordinator) error { return nil }))

	if err := c.Initialize(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	testutil.AssertEqual(t, "state", c.State(), StateError)
}

func TestTickFirstFrameIsBaseline(t *testing.T) {
	c, _, au, _ := newTestCoordinator()
	game := &recordingSystem{name: "game"}
	_ = c.RegisterSystem(SystemGame, game)
	c.SetState(StatePlaying)

	c.Tick(5 * time.Second)
	c.Tick(5*time.Second + 16*time.Millisecond)
	c.Tick(5*time.Second + 40*time.Millisecond)

	testutil.AssertEqual(t, "updates", len(game.updates), 3)
	testutil.AssertEqual(t, "first", game.updates[0], time.Duration(0))
	testutil.AssertEqual(t, "second", game.updates[1], 16*time.Millisecond)
	testutil.AssertEqual(t, "third", game.updates[2], 24*time.Millisecond)
	testutil.AssertEqual(t, "audio updates", au.updates, 3)

	st := c.Stats()
	testutil.AssertEqual(t, "game time", st.GameTime, 40*time.Millisecond)
	testutil.AssertEqual(t, "delta", st.DeltaTime, 24*time.Millisecond)
	testutil.AssertEqual(t, "ticks", st.Ticks, int64(3))
}

func TestTickClampsBackwardsClock(t *testing.T) {
	c, _, _, _ := newTestCoordinator()
	c.Tick(time.Second)
	c.Tick(500 * time.Millisecond)
	testutil.AssertEqual(t, "delta", c.Stats().DeltaTime, time.Duration(0))
	testutil.AssertEqual(t, "fps", c.Stats().FPS, 0.0)
}

func TestTickRoutesToStateOwner(t *testing.T) {
	c, _, _, _ := newTestCoordinator()
	menu := &recordingSystem{name: "menu"}
	game := &recordingSystem{name: "game"}
	_ = c.RegisterSystem(SystemMenu, menu)
	_ = c.RegisterSystem(SystemGame, game)

	c.SetState(StateMenu)
	c.Tick(0)
	c.SetState(StatePlaying)
	c.Tick(time.Millisecond)
	c.SetState(StateError)
	c.Tick(2 * time.Millisecond)

	testutil.AssertEqual(t, "menu updates", len(menu.updates), 1)
	testutil.AssertEqual(t, "game updates", len(game.updates), 1)
}

func TestSetStateOwnerOverride(t *testing.T) {
	c, _, _, _ := newTestCoordinator()
	alt := &recordingSystem{name: "alt"}
	_ = c.RegisterSystem("alt", alt)
	c.SetStateOwner(StatePlaying, "alt")
	c.SetState(StatePlaying)

	c.Tick(0)
	testutil.AssertEqual(t, "alt updates", len(alt.updates), 1)

	c.SetStateOwner(StatePlaying, "")
	name, sys := c.CurrentSystem()
	testutil.AssertEqual(t, "name", name, "")
	if sys != nil {
		t.Error("Expected no owner after clearing route")
	}
}

func TestUpdateErrorIsRecordedAndLoopContinues(t *testing.T) {
	c, _, _, _ := newTestCoordinator()
	game := &recordingSystem{name: "game", updateErr: errBoom}
	_ = c.RegisterSystem(SystemGame, game)
	c.SetState(StatePlaying)

	c.Tick(0)
	c.Tick(time.Millisecond)

	testutil.AssertEqual(t, "state", c.State(), StatePlaying)
	testutil.AssertEqual(t, "updates", len(game.updates), 2)
	recs := c.Context().Errors.Errors()
	testutil.AssertEqual(t, "errors", len(recs), 2)
	testutil.AssertEqual(t, "kind", recs[0].Type, telemetry.KindUpdate)
	testutil.AssertEqual(t, "system", recs[0].Context["system"], any(SystemGame))
}

func TestUpdatePanicIsRecovered(t *testing.T) {
	c, _, _, _ := newTestCoordinator()
	_ = c.RegisterSystem(SystemGame, &recordingSystem{name: "game", panicOn: "update"})
	c.SetState(StatePlaying)

	c.Tick(0)

	testutil.AssertEqual(t, "state", c.State(), StatePlaying)
	rec := c.Context().Errors.Errors()[0]
	testutil.AssertEqual(t, "kind", rec.Type, telemetry.KindUpdate)
	if !strings.Contains(rec.Message, "update exploded") {
		t.Errorf("Expected panic message, got %q", rec.Message)
	}
}

func TestUnrecoverableUpdateError(t *testing.T) {
	c, _, _, _ := newTestCoordinator()
	game := &recordingSystem{name: "game", updateErr: fmt.Errorf("invariant broken: %w", ErrUnrecoverable)}
	_ = c.RegisterSystem(SystemGame, game)
	c.SetState(StatePlaying)

	c.Tick(0)
	testutil.AssertEqual(t, "state", c.State(), StateError)
}

func TestSetStateNotifiesAllInOrder(t *testing.T) {
	var calls []string
	c, _, _, _ := newTestCoordinator()
	a := &recordingSystem{name: "a", calls: &calls}
	b := &recordingSystem{name: "b", calls: &calls}
	_ = c.RegisterSystem("a", a)
	_ = c.RegisterSystem("b", b)
	calls = nil

	c.SetState(StateMenu)

	testutil.AssertEqual(t, "calls", strings.Join(calls, ","), "a.state:menu,b.state:menu")
	testutil.AssertEqual(t, "a change", a.changes[0], stateChange{StateMenu, StateLoading})
	testutil.AssertEqual(t, "b change", b.changes[0], stateChange{StateMenu, StateLoading})
}

func TestSetStateFromHookIsQueued(t *testing.T) {
	var calls []string
	c, _, _, _ := newTestCoordinator()
	a := &recordingSystem{name: "a", calls: &calls}
	b := &recordingSystem{name: "b", calls: &calls}
	a.onChange = func(newState, _ State) {
		if newState == StateGameOver {
			c.SetState(StateMenu)
		}
	}
	_ = c.RegisterSystem("a", a)
	_ = c.RegisterSystem("b", b)
	calls = nil

	c.SetState(StateGameOver)

	testutil.AssertEqual(t, "order", strings.Join(calls, ","),
		"a.state:gameover,b.state:gameover,a.state:menu,b.state:menu")
	testutil.AssertEqual(t, "final", c.State(), StateMenu)
	testutil.AssertEqual(t, "b second change", b.changes[1], stateChange{StateMenu, StateGameOver})
}

func TestPauseResumeGuards(t *testing.T) {
	c, _, _, _ := newTestCoordinator()
	c.SetState(StateMenu)

	c.Pause()
	testutil.AssertEqual(t, "pause from menu", c.State(), StateMenu)
	c.Resume()
	testutil.AssertEqual(t, "resume from menu", c.State(), StateMenu)

	c.SetState(StatePlaying)
	c.Pause()
	testutil.AssertEqual(t, "paused", c.State(), StatePaused)
	c.Pause()
	testutil.AssertEqual(t, "still paused", c.State(), StatePaused)
	c.Resume()
	testutil.AssertEqual(t, "resumed", c.State(), StatePlaying)

	c.TogglePause()
	testutil.AssertEqual(t, "toggle to paused", c.State(), StatePaused)
	c.TogglePause()
	testutil.AssertEqual(t, "toggle to playing", c.State(), StatePlaying)

	c.SetState(StateGameOver)
	c.TogglePause()
	testutil.AssertEqual(t, "toggle in gameover", c.State(), StateGameOver)
}

func TestFocus(t *testing.T) {
	c, _, _, _ := newTestCoordinator()
	c.SetState(StatePlaying)
	c.Focus(false)
	testutil.AssertEqual(t, "blur", c.State(), StatePaused)
	c.Focus(true)
	testutil.AssertEqual(t, "focus", c.State(), StatePlaying)
}

func TestStartAndEndGame(t *testing.T) {
	c, _, au, sc := newTestCoordinator()
	c.SetState(StateMenu)

	c.StartGame()
	testutil.AssertEqual(t, "state", c.State(), StatePlaying)
	testutil.AssertEqual(t, "soundtrack", strings.Join(au.played, ","), "soundtrack")

	c.EndGame(120)
	testutil.AssertEqual(t, "state", c.State(), StateGameOver)
	testutil.AssertEqual(t, "stopped", strings.Join(au.stopped, ","), "soundtrack")
	testutil.AssertEqual(t, "played", strings.Join(au.played, ","), "soundtrack,game_over")
	testutil.AssertEqual(t, "saved", len(sc.saved), 1)
	testutil.AssertEqual(t, "score", sc.saved[0], 120)

	scores := c.HighScores()
	testutil.AssertEqual(t, "high scores", len(scores), 1)

	c.ReturnToMenu()
	testutil.AssertEqual(t, "menu", c.State(), StateMenu)
	c.ReturnToMenu()
	testutil.AssertEqual(t, "menu again", c.State(), StateMenu)
}

func TestEndGameToleratesStorageFailure(t *testing.T) {
	c, _, _, sc := newTestCoordinator()
	sc.saveErr = errBoom
	c.SetState(StatePlaying)

	c.EndGame(7)

	testutil.AssertEqual(t, "state", c.State(), StateGameOver)
	recs := c.Context().Errors.Errors()
	testutil.AssertEqual(t, "errors", len(recs), 1)
	testutil.AssertEqual(t, "kind", recs[0].Type, telemetry.KindScoreSave)
}

func TestHighScoresDegradesToEmpty(t *testing.T) {
	c, _, _, sc := newTestCoordinator()
	sc.loadErr = errBoom

	got := c.HighScores()
	if got == nil {
		t.Fatal("Expected empty non-nil list")
	}
	testutil.AssertEqual(t, "len", len(got), 0)
	testutil.AssertEqual(t, "kind", c.Context().Errors.Errors()[0].Type, telemetry.KindScoreLoad)
}

func TestPlaybackFailureIsNonFatal(t *testing.T) {
	c, _, au, _ := newTestCoordinator()
	au.playErr = errBoom

	c.StartGame()
	testutil.AssertEqual(t, "state", c.State(), StatePlaying)
	testutil.AssertEqual(t, "kind", c.Context().Errors.Errors()[0].Type, telemetry.KindAudio)
}

func TestNilCollaborators(t *testing.T) {
	c := New(nil, nil, nil, nil)
	if err := c.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	c.StartGame()
	c.EndGame(3)
	testutil.AssertEqual(t, "scores", len(c.HighScores()), 0)
	testutil.AssertEqual(t, "handle", c.PlaySound("click"), audio.Handle(0))
	c.Destroy()
}

func TestRegisterSystemReplaces(t *testing.T) {
	var calls []string
	c, _, _, _ := newTestCoordinator()
	first := &recordingSystem{name: "first", calls: &calls}
	second := &recordingSystem{name: "second", calls: &calls}

	if err := c.RegisterSystem(SystemGame, first); err != nil {
		t.Fatal(err)
	}
	if err := c.RegisterSystem(SystemGame, second); err != nil {
		t.Fatal(err)
	}

	testutil.AssertEqual(t, "calls", strings.Join(calls, ","), "first.init,first.destroy,second.init")
	sys, ok := c.System(SystemGame)
	testutil.AssertEqual(t, "found", ok, true)
	if sys != Subsystem(second) {
		t.Error("Expected replacement to be registered")
	}
	testutil.AssertEqual(t, "systems", strings.Join(c.Systems(), ","), SystemGame)
}

func TestRegisterSystemInitFailure(t *testing.T) {
	c, _, _, _ := newTestCoordinator()
	err := c.RegisterSystem("broken", &recordingSystem{name: "broken", initErr: errBoom})
	if !errors.Is(err, errBoom) {
		t.Fatalf("Expected boom, got %v", err)
	}
	if _, ok := c.System("broken"); ok {
		t.Error("Expected failed system not to be registered")
	}
	if err := c.RegisterSystem("nil", nil); err == nil {
		t.Error("Expected error for nil subsystem")
	}
}

func TestInputRouting(t *testing.T) {
	c, in, _, _ := newTestCoordinator()
	game := &recordingSystem{name: "game"}
	_ = c.RegisterSystem(SystemGame, game)
	c.SetState(StatePlaying)

	in.KeyDown(input.CodeArrowLeft)
	in.KeyUp(input.CodeArrowLeft)
	in.KeyDown(input.CodeKeyW)
	in.KeyDown(input.CodeKeyS)
	in.TouchStart(1, 80, 10)

	testutil.AssertEqual(t, "inputs", strings.Join(game.inputs, ","),
		"left:true,left:false,up:true,down:true,right:true")
}

func TestReleaseWaitsForLastBoundInput(t *testing.T) {
	c, in, _, _ := newTestCoordinator()
	game := &recordingSystem{name: "game"}
	_ = c.RegisterSystem(SystemGame, game)
	c.SetState(StatePlaying)

	in.KeyDown(input.CodeArrowLeft)
	in.KeyDown(input.CodeKeyA)
	in.KeyUp(input.CodeKeyA)
	testutil.AssertEqual(t, "held by arrow", strings.Join(game.inputs, ","), "left:true,left:true")

	in.KeyUp(input.CodeArrowLeft)
	testutil.AssertEqual(t, "released", strings.Join(game.inputs, ","), "left:true,left:true,left:false")
}

func TestPauseKeyTogglesDuringPlay(t *testing.T) {
	c, in, _, _ := newTestCoordinator()
	game := &recordingSystem{name: "game"}
	_ = c.RegisterSystem(SystemGame, game)
	c.SetState(StatePlaying)

	in.KeyDown(input.CodeSpace)
	testutil.AssertEqual(t, "paused", c.State(), StatePaused)
	in.KeyUp(input.CodeSpace)
	testutil.AssertEqual(t, "still paused", c.State(), StatePaused)
	in.KeyDown(input.CodeEscape)
	testutil.AssertEqual(t, "resumed", c.State(), StatePlaying)
	testutil.AssertEqual(t, "game saw no pause", len(game.inputs), 0)
}

func TestPauseKeyConfirmsOutsidePlay(t *testing.T) {
	c, in, _, _ := newTestCoordinator()
	menu := &recordingSystem{name: "menu"}
	_ = c.RegisterSystem(SystemMenu, menu)
	c.SetState(StateMenu)

	in.KeyDown(input.CodeSpace)
	testutil.AssertEqual(t, "inputs", strings.Join(menu.inputs, ","), "pause:true")
}

func TestHandleInputPanicIsRecorded(t *testing.T) {
	c, in, _, _ := newTestCoordinator()
	_ = c.RegisterSystem(SystemGame, &recordingSystem{name: "game", panicOn: "input"})
	c.SetState(StatePlaying)

	in.KeyDown(input.CodeArrowRight)
	testutil.AssertEqual(t, "kind", c.Context().Errors.Errors()[0].Type, telemetry.KindUpdate)
}

func TestDestroyOrderAndIdempotence(t *testing.T) {
	var calls []string
	in := &trackedInput{Dispatcher: input.NewDispatcher(), calls: &calls}
	au := &fakeAudio{calls: &calls}
	c := New(NewContext(nil, nil, nil, Platform{}), in, au, nil)
	_ = c.RegisterSystem("a", &recordingSystem{name: "a", calls: &calls})
	_ = c.RegisterSystem("b", &recordingSystem{name: "b", calls: &calls})
	calls = nil

	c.Destroy()
	c.Destroy()

	testutil.AssertEqual(t, "order", strings.Join(calls, ","), "a.destroy,b.destroy,input,audio")
	testutil.AssertEqual(t, "audio destroyed", au.destroyed, 1)
	testutil.AssertEqual(t, "destroyed", c.Destroyed(), true)

	c.Tick(time.Second)
	c.HandleInput(input.ActionLeft, true)
	c.SetState(StatePlaying)
	testutil.AssertEqual(t, "state unchanged", c.State(), StateLoading)
	testutil.AssertEqual(t, "ticks", c.Stats().Ticks, int64(0))
	if err := c.RegisterSystem("late", &recordingSystem{name: "late"}); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Expected ErrDestroyed, got %v", err)
	}
	if err := c.Initialize(context.Background()); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Expected ErrDestroyed, got %v", err)
	}
}

func TestDestroyReleasesPools(t *testing.T) {
	reg := pool.NewRegistry(4, 10)
	c, _, _, _ := newTestCoordinator(WithPools(reg))
	_, _ = reg.Food()
	_ = reg.Particle()

	c.Destroy()
	st := reg.Stats()
	testutil.AssertEqual(t, "food active", st.Food.Active, 0)
	testutil.AssertEqual(t, "particle active", st.Particle.Active, 0)
}

func TestMetricsWrittenEachTick(t *testing.T) {
	c, _, _, _ := newTestCoordinator()
	c.SetState(StatePlaying)
	c.Tick(0)
	c.Tick(20 * time.Millisecond)

	m := c.Context().Metrics
	testutil.AssertEqual(t, "state", m.Strings.Get(status.KeyState).Load(), "playing")
	testutil.AssertEqual(t, "owner", m.Strings.Get(status.KeyOwner).Load(), SystemGame)
	testutil.AssertEqual(t, "ticks", m.Ints.Get(status.KeyTicks).Load(), int64(2))
	testutil.AssertEqual(t, "fps", m.Floats.Get(status.KeyFPS).Load(), 50.0)
	testutil.AssertEqual(t, "delta", m.Floats.Get(status.KeyDeltaMS).Load(), 20.0)
}

func TestStatsPools(t *testing.T) {
	reg := pool.NewRegistry(3, 5)
	c, _, _, _ := newTestCoordinator(WithPools(reg))
	_, _ = reg.Food()

	st := c.Stats()
	testutil.AssertEqual(t, "food active", st.Pools.Food.Active, 1)
	testutil.AssertEqual(t, "particle free", st.Pools.Particle.Free, 3)
	testutil.AssertEqual(t, "state", st.State, "loading")
}
