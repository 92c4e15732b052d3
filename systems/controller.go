// Package systems holds the native menu, gameplay, pause and game over subsystems
package systems

import (
	"github.com/lixenwraith/snake-arena/audio"
	"github.com/lixenwraith/snake-arena/engine"
	"github.com/lixenwraith/snake-arena/pool"
	"github.com/lixenwraith/snake-arena/score"
)

// Controller is the coordinator surface the subsystems drive; *engine.Coordinator satisfies it
type Controller interface {
	State() engine.State
	StartGame()
	EndGame(finalScore int)
	Resume()
	ReturnToMenu()
	PlaySound(name string) audio.Handle
	HighScores() []score.Entry
	Pools() *pool.Registry
}

// Sound cue names
const (
	soundEat   = "snake_eating"
	soundClick = "click"
)

var _ Controller = (*engine.Coordinator)(nil)
