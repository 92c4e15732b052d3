package engine

import (
	"time"

	"github.com/lixenwraith/snake-arena/input"
)

// Subsystem is a pluggable unit of behavior registered with the Coordinator
// Every hook is called unconditionally; embed BaseSubsystem for the ones not needed
type Subsystem interface {
	Initialize() error
	Update(dt time.Duration) error
	HandleInput(action input.Action, pressed bool) error
	OnStateChange(newState, oldState State)
	Destroy()
}

// BaseSubsystem implements every hook as a no-op
type BaseSubsystem struct{}

func (BaseSubsystem) Initialize() error { return nil }
func (BaseSubsystem) Update(time.Duration) error { return nil }
func (BaseSubsystem) HandleInput(input.Action, bool) error { return nil }
func (BaseSubsystem) OnStateChange(State, State) {}
func (BaseSubsystem) Destroy() {}
