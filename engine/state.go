package engine

// State is the game session state; exactly one is active at a time
type State int

const (
	StateLoading State = iota
	StateMenu
	StatePlaying
	StatePaused
	StateGameOver
	StateError
)

var stateNames = [...]string{
	StateLoading:  "loading",
	StateMenu:     "menu",
	StatePlaying:  "playing",
	StatePaused:   "paused",
	StateGameOver: "gameover",
	StateError:    "error",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Default subsystem names owning each state
const (
	SystemMenu     = "menu"
	SystemGame     = "game"
	SystemPause    = "pause"
	SystemGameOver = "gameover"
)

func defaultOwners() map[State]string {
	return map[State]string{
		StateMenu:     SystemMenu,
		StatePlaying:  SystemGame,
		StatePaused:   SystemPause,
		StateGameOver: SystemGameOver,
	}
}
