package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lixenwraith/snake-arena/audio"
	"github.com/lixenwraith/snake-arena/input"
	"github.com/lixenwraith/snake-arena/score"
)

type fakeAudio struct {
	loadErr   error
	playErr   error
	loaded    bool
	played    []string
	stopped   []string
	updates   int
	destroyed int
	calls     *[]string
}

func (a *fakeAudio) LoadGameSounds(context.Context) error {
	a.loaded = a.loadErr == nil
	return a.loadErr
}

func (a *fakeAudio) Play(name string, _ audio.PlayOptions) (audio.Handle, error) {
	if a.playErr != nil {
		return 0, a.playErr
	}
	a.played = append(a.played, name)
	return audio.Handle(len(a.played)), nil
}

func (a *fakeAudio) Stop(name string, _ audio.Handle) { a.stopped = append(a.stopped, name) }
func (a *fakeAudio) Update() { a.updates++ }

func (a *fakeAudio) Destroy() {
	a.destroyed++
	if a.calls != nil {
		*a.calls = append(*a.calls, "audio")
	}
}

type fakeScores struct {
	saved   []int
	saveErr error
	loadErr error
}

func (s *fakeScores) SaveScore(_ context.Context, v int) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, v)
	return nil
}

func (s *fakeScores) HighScores(context.Context) ([]score.Entry, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	out := make([]score.Entry, len(s.saved))
	for i, v := range s.saved {
		out[i] = score.Entry{Score: v}
	}
	return out, nil
}

// trackedInput wraps a real dispatcher to observe teardown order
type trackedInput struct {
	*input.Dispatcher
	calls *[]string
}

func (t *trackedInput) Destroy() {
	*t.calls = append(*t.calls, "input")
	t.Dispatcher.Destroy()
}

type stateChange struct {
	newState, oldState State
}

type recordingSystem struct {
	name    string
	calls   *[]string
	initErr error

	updates   []time.Duration
	inputs    []string
	changes   []stateChange
	updateErr error
	panicOn   string

	onChange func(newState, oldState State)
}

func (s *recordingSystem) record(ev string) {
	if s.calls != nil {
		*s.calls = append(*s.calls, s.name+"."+ev)
	}
}

func (s *recordingSystem) Initialize() error {
	s.record("init")
	return s.initErr
}

func (s *recordingSystem) Update(dt time.Duration) error {
	if s.panicOn == "update" {
		panic("update exploded")
	}
	s.updates = append(s.updates, dt)
	return s.updateErr
}

func (s *recordingSystem) HandleInput(action input.Action, pressed bool) error {
	if s.panicOn == "input" {
		panic("input exploded")
	}
	s.inputs = append(s.inputs, fmt.Sprintf("%s:%t", action, pressed))
	return nil
}

func (s *recordingSystem) OnStateChange(newState, oldState State) {
	s.record("state:" + newState.String())
	s.changes = append(s.changes, stateChange{newState, oldState})
	if s.onChange != nil {
		s.onChange(newState, oldState)
	}
}

func (s *recordingSystem) Destroy() {
	s.record("destroy")
}

var errBoom = errors.New("boom")

func newTestCoordinator(opts ...Option) (*Coordinator, *input.Dispatcher, *fakeAudio, *fakeScores) {
	in := input.NewDispatcher(input.WithViewport(100, 100))
	au := &fakeAudio{}
	sc := &fakeScores{}
	c := New(NewContext(nil, nil, nil, Platform{}), in, au, sc, opts...)
	return c, in, au, sc
}
