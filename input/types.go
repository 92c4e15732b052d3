// Package input normalizes keyboard, mouse and touch events into named actions
package input

import (
	"time"

	"github.com/lixenwraith/snake-arena/vmath"
)

// Action is a logical, device-independent input name
type Action string

const (
	ActionLeft  Action = "left"
	ActionRight Action = "right"
	ActionUp    Action = "up"
	ActionDown  Action = "down"
	ActionPause Action = "pause"
)

// Code identifies a physical input
// Keys use KeyboardEvent.code naming, pointer regions use the Pointer* codes
type Code string

const (
	CodeArrowLeft  Code = "ArrowLeft"
	CodeArrowRight Code = "ArrowRight"
	CodeArrowUp    Code = "ArrowUp"
	CodeArrowDown  Code = "ArrowDown"
	CodeKeyA       Code = "KeyA"
	CodeKeyD       Code = "KeyD"
	CodeKeyS       Code = "KeyS"
	CodeKeyW       Code = "KeyW"
	CodeSpace      Code = "Space"
	CodeEscape     Code = "Escape"
	CodeEnter      Code = "Enter"

	// Screen halves, the two-lane pointer control scheme
	CodePointerLeft  Code = "PointerLeft"
	CodePointerRight Code = "PointerRight"
)

// IsRegion reports whether c is a pointer region rather than a key
func (c Code) IsRegion() bool {
	return c == CodePointerLeft || c == CodePointerRight
}

// Phase is the moment of an input event relative to an action
type Phase uint8

const (
	PhaseDown Phase = iota
	PhaseUp
	// PhaseTouch is synthesized for touch-derived directional actions
	PhaseTouch
)

func (p Phase) String() string {
	switch p {
	case PhaseDown:
		return "down"
	case PhaseUp:
		return "up"
	case PhaseTouch:
		return "touch"
	}
	return "unknown"
}

// Callback observes an action; returned errors and panics are isolated per observer
type Callback func(action Action, phase Phase) error

// Handle identifies one observer registration for Off
type Handle uint64

// MouseContact is the contact ID of the pressed mouse button
// Touch identifiers from the platform are non-negative
const MouseContact = -1

// Contact is an active pointer or touch
type Contact struct {
	ID    int
	Pos   vmath.Vec2
	Start time.Time

	// Region is the pointer region the contact went down in, empty without a viewport
	Region Code
}

// Reporter receives observer failures
type Reporter interface {
	LogError(kind string, err error, fields map[string]any)
}

// KindObserverFailure is the reporter kind for failing observers
const KindObserverFailure = "Input Callback Error"

// DefaultBindings returns the stock action bindings
func DefaultBindings() []Binding {
	return []Binding{
		{Action: ActionLeft, Codes: []Code{CodeArrowLeft, CodeKeyA, CodePointerLeft}},
		{Action: ActionRight, Codes: []Code{CodeArrowRight, CodeKeyD, CodePointerRight}},
		{Action: ActionUp, Codes: []Code{CodeArrowUp, CodeKeyW}},
		{Action: ActionDown, Codes: []Code{CodeArrowDown, CodeKeyS}},
		{Action: ActionPause, Codes: []Code{CodeSpace, CodeEscape}},
	}
}
