package systems

import (
	"slices"

	"github.com/lixenwraith/snake-arena/engine"
	"github.com/lixenwraith/snake-arena/input"
	"github.com/lixenwraith/snake-arena/score"
)

// Menu starts a game on an up or pause press and caches the high score table on entry
type Menu struct {
	engine.BaseSubsystem
	ctl    Controller
	scores []score.Entry
}

func NewMenu(ctl Controller) *Menu {
	return &Menu{ctl: ctl}
}

func (m *Menu) HandleInput(action input.Action, pressed bool) error {
	if !pressed {
		return nil
	}
	if action == input.ActionUp || action == input.ActionPause {
		m.ctl.PlaySound(soundClick)
		m.ctl.StartGame()
	}
	return nil
}

func (m *Menu) OnStateChange(newState, _ engine.State) {
	if newState == engine.StateMenu {
		m.scores = m.ctl.HighScores()
	}
}

// HighScores returns the table read on the last menu entry
func (m *Menu) HighScores() []score.Entry {
	return slices.Clone(m.scores)
}

// Pause resumes on an up press; the pause key itself is handled by the coordinator
type Pause struct {
	engine.BaseSubsystem
	ctl Controller
}

func NewPause(ctl Controller) *Pause {
	return &Pause{ctl: ctl}
}

func (p *Pause) HandleInput(action input.Action, pressed bool) error {
	if pressed && action == input.ActionUp {
		p.ctl.Resume()
	}
	return nil
}

// GameOver returns to the menu on any press
type GameOver struct {
	engine.BaseSubsystem
	ctl Controller
}

func NewGameOver(ctl Controller) *GameOver {
	return &GameOver{ctl: ctl}
}

func (g *GameOver) HandleInput(_ input.Action, pressed bool) error {
	if !pressed {
		return nil
	}
	g.ctl.PlaySound(soundClick)
	g.ctl.ReturnToMenu()
	return nil
}
