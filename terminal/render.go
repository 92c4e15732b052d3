package terminal

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/snake-arena/config"
	"github.com/lixenwraith/snake-arena/engine"
	"github.com/lixenwraith/snake-arena/pool"
	"github.com/lixenwraith/snake-arena/score"
	"github.com/lixenwraith/snake-arena/systems"
)

// Frame is everything the text view draws for one tick
type Frame struct {
	State      engine.State
	Hero       systems.Hero
	Foods      []pool.Food
	Particles  []pool.Particle
	Score      int
	HighScores []score.Entry
	FPS        float64
	Diag       Diagnostics
}

// Diagnostics is the runtime metrics line drawn on the bottom row
type Diagnostics struct {
	Food      int64
	Particles int64
	Voices    int64
	Muted     bool
	Errors    int64
}

func (d Diagnostics) String() string {
	voices := fmt.Sprintf("voices %d", d.Voices)
	if d.Muted {
		voices = "muted"
	}
	return fmt.Sprintf(" food %d  particles %d  %s  errors %d ", d.Food, d.Particles, voices, d.Errors)
}

var foodStyles = [...]tcell.Style{
	tcell.StyleDefault.Foreground(tcell.ColorGreen),
	tcell.StyleDefault.Foreground(tcell.ColorBlue),
	tcell.StyleDefault.Foreground(tcell.ColorYellow),
	tcell.StyleDefault.Foreground(tcell.ColorPurple),
}

var (
	heroStyle     = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	particleStyle = tcell.StyleDefault.Foreground(tcell.ColorGray)
	hudStyle      = tcell.StyleDefault.Reverse(true)
	titleStyle    = tcell.StyleDefault.Bold(true)
)

// Renderer draws frames as a minimal text view scaled from canvas units to cells
type Renderer struct {
	screen tcell.Screen
	canvas config.Canvas
}

func NewRenderer(screen tcell.Screen, canvas config.Canvas) *Renderer {
	return &Renderer{screen: screen, canvas: canvas}
}

func (r *Renderer) Draw(f Frame) {
	r.screen.Clear()
	cols, rows := r.screen.Size()
	if cols <= 0 || rows <= 0 {
		return
	}

	switch f.State {
	case engine.StateMenu:
		r.center(rows/2-3, "SNAKE ARENA", titleStyle)
		r.center(rows/2-1, "press up or space to start", tcell.StyleDefault)
		for i, e := range f.HighScores {
			r.center(rows/2+1+i, fmt.Sprintf("%2d. %6d  %s", i+1, e.Score, e.Date), tcell.StyleDefault)
		}

	case engine.StatePlaying, engine.StatePaused:
		for _, p := range f.Particles {
			r.plot(p.Pos.X, p.Pos.Y, '.', particleStyle)
		}
		for _, food := range f.Foods {
			r.plot(food.Pos.X, food.Pos.Y, '*', foodStyles[food.Kind%len(foodStyles)])
		}
		r.plot(f.Hero.Pos.X, f.Hero.Pos.Y, '@', heroStyle)
		if f.State == engine.StatePaused {
			r.center(rows/2, " PAUSED ", hudStyle)
		}

	case engine.StateGameOver:
		r.center(rows/2-1, "GAME OVER", titleStyle)
		r.center(rows/2+1, fmt.Sprintf("score %d", f.Score), tcell.StyleDefault)
		r.center(rows/2+3, "press any key", tcell.StyleDefault)

	case engine.StateError:
		r.center(rows/2, "the game hit an error, see the log", tcell.StyleDefault)

	default:
		r.center(rows/2, "loading", tcell.StyleDefault)
	}

	r.text(0, 0, fmt.Sprintf(" %-8s score %-6d %3.0f fps ", f.State, f.Score, f.FPS), hudStyle)
	if rows > 1 {
		r.text(0, rows-1, f.Diag.String(), particleStyle)
	}
	r.screen.Show()
}

// plot draws ch at canvas point (x, y); points off the canvas are skipped
func (r *Renderer) plot(x, y float64, ch rune, style tcell.Style) {
	if r.canvas.Width <= 0 || r.canvas.Height <= 0 {
		return
	}
	cols, rows := r.screen.Size()
	col := int(x * float64(cols) / float64(r.canvas.Width))
	row := int(y * float64(rows) / float64(r.canvas.Height))
	if col < 0 || col >= cols || row < 0 || row >= rows {
		return
	}
	r.screen.SetContent(col, row, ch, nil, style)
}

func (r *Renderer) center(row int, s string, style tcell.Style) {
	cols, _ := r.screen.Size()
	r.text(max((cols-len(s))/2, 0), row, s, style)
}

func (r *Renderer) text(col, row int, s string, style tcell.Style) {
	for i, ch := range []rune(s) {
		r.screen.SetContent(col+i, row, ch, nil, style)
	}
}
