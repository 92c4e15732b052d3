package systems

import (
	"fmt"

	"github.com/lixenwraith/snake-arena/engine"
)

// Set is the native subsystem lineup, kept by the host for rendering
type Set struct {
	Menu     *Menu
	Game     *Gameplay
	Pause    *Pause
	GameOver *GameOver
}

// Install registers the native subsystems under the default state owner names
func Install(c *engine.Coordinator, opts ...GameplayOption) (*Set, error) {
	set := &Set{
		Menu:     NewMenu(c),
		Game:     NewGameplay(c, c.Context(), opts...),
		Pause:    NewPause(c),
		GameOver: NewGameOver(c),
	}
	for _, r := range []struct {
		name string
		sys  engine.Subsystem
	}{
		{engine.SystemMenu, set.Menu},
		{engine.SystemGame, set.Game},
		{engine.SystemPause, set.Pause},
		{engine.SystemGameOver, set.GameOver},
	} {
		if err := c.RegisterSystem(r.name, r.sys); err != nil {
			return nil, fmt.Errorf("install %s: %w", r.name, err)
		}
	}
	return set, nil
}
