// Package script runs a game subsystem written in Lua
package script

import (
	"fmt"
	"os"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/lixenwraith/snake-arena/audio"
	"github.com/lixenwraith/snake-arena/engine"
	"github.com/lixenwraith/snake-arena/input"
)

// APIVersion is exposed to scripts as API_VERSION
const APIVersion = 1

// Host is the slice of the coordinator scripts may drive; *engine.Coordinator satisfies it
type Host interface {
	State() engine.State
	StartGame()
	EndGame(score int)
	Pause()
	Resume()
	ReturnToMenu()
	PlaySound(name string) audio.Handle
}

// Subsystem adapts one Lua VM to engine.Subsystem
// Hooks call the Lua globals initialize, update, handle_input, on_state_change and destroy when defined
// Single-goroutine access only, like every other subsystem
type Subsystem struct {
	name   string
	vm     *lua.LState
	host   Host
	log    *zap.Logger
	closed bool
}

var _ engine.Subsystem = (*Subsystem)(nil)

// Load reads and runs the script at path
func Load(path string, host Host, log *zap.Logger) (*Subsystem, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script %s: %w", path, err)
	}
	return New(path, string(src), host, log)
}

// New runs src in a fresh VM; name identifies the script in logs and errors
func New(name, src string, host Host, log *zap.Logger) (*Subsystem, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Subsystem{
		name: name,
		vm:   lua.NewState(),
		host: host,
		log:  log,
	}
	s.vm.SetGlobal("API_VERSION", lua.LNumber(APIVersion))
	s.vm.SetGlobal("log", s.vm.NewFunction(s.luaLog))
	s.vm.SetGlobal("game", s.gameTable())

	if err := s.vm.DoString(src); err != nil {
		s.vm.Close()
		return nil, fmt.Errorf("load script %s: %w", name, err)
	}
	log.Debug("loaded lua script", zap.String("script", name))
	return s, nil
}

func (s *Subsystem) Name() string { return s.name }

func (s *Subsystem) Initialize() error {
	return s.call("initialize")
}

// Update passes dt to the script in milliseconds
func (s *Subsystem) Update(dt time.Duration) error {
	return s.call("update", lua.LNumber(float64(dt)/float64(time.Millisecond)))
}

func (s *Subsystem) HandleInput(action input.Action, pressed bool) error {
	return s.call("handle_input", lua.LString(action), lua.LBool(pressed))
}

func (s *Subsystem) OnStateChange(newState, oldState engine.State) {
	if err := s.call("on_state_change", lua.LString(newState.String()), lua.LString(oldState.String())); err != nil {
		s.log.Warn("lua state hook failed", zap.String("script", s.name), zap.Error(err))
	}
}

// Destroy runs the script's destroy hook and closes the VM; later calls are no-ops
func (s *Subsystem) Destroy() {
	if s.closed {
		return
	}
	if err := s.call("destroy"); err != nil {
		s.log.Warn("lua destroy hook failed", zap.String("script", s.name), zap.Error(err))
	}
	s.closed = true
	s.vm.Close()
}

// call invokes a global function if the script defines one
func (s *Subsystem) call(fn string, args ...lua.LValue) error {
	if s.closed {
		return nil
	}
	f := s.vm.GetGlobal(fn)
	if f.Type() != lua.LTFunction {
		return nil
	}
	if err := s.vm.CallByParam(lua.P{Fn: f, NRet: 0, Protect: true}, args...); err != nil {
		return fmt.Errorf("lua %s in %s: %w", fn, s.name, err)
	}
	return nil
}

func (s *Subsystem) luaLog(L *lua.LState) int {
	s.log.Info(L.CheckString(1), zap.String("script", s.name))
	return 0
}

// gameTable exposes Host controls as the global table game
func (s *Subsystem) gameTable() *lua.LTable {
	t := s.vm.NewTable()
	s.vm.SetFuncs(t, map[string]lua.LGFunction{
		"state": func(L *lua.LState) int {
			if s.host == nil {
				L.Push(lua.LString(""))
				return 1
			}
			L.Push(lua.LString(s.host.State().String()))
			return 1
		},
		"start": s.hostCall(func(h Host, _ *lua.LState) { h.StartGame() }),
		"finish": s.hostCall(func(h Host, L *lua.LState) {
			h.EndGame(L.CheckInt(1))
		}),
		"pause":  s.hostCall(func(h Host, _ *lua.LState) { h.Pause() }),
		"resume": s.hostCall(func(h Host, _ *lua.LState) { h.Resume() }),
		"menu":   s.hostCall(func(h Host, _ *lua.LState) { h.ReturnToMenu() }),
		"play": func(L *lua.LState) int {
			name := L.CheckString(1)
			if s.host == nil {
				L.Push(lua.LNumber(0))
				return 1
			}
			L.Push(lua.LNumber(s.host.PlaySound(name)))
			return 1
		},
	})
	return t
}

func (s *Subsystem) hostCall(fn func(Host, *lua.LState)) lua.LGFunction {
	return func(L *lua.LState) int {
		if s.host != nil {
			fn(s.host, L)
		}
		return 0
	}
}
