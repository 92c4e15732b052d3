package terminal

import (
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/lixenwraith/snake-arena/config"
	"github.com/lixenwraith/snake-arena/input"
)

// Sink receives normalized input; *input.Dispatcher satisfies it
type Sink interface {
	KeyDown(code input.Code)
	KeyUp(code input.Code)
	PointerDown(x, y float64)
	PointerMove(x, y float64)
	PointerUp(x, y float64)
	SetViewport(w, h float64)
}

// Focuser receives window focus changes; *engine.Coordinator satisfies it
type Focuser interface {
	Focus(focused bool)
}

// Driver translates tcell events into input ingestion calls
// Terminals report no key release, so a held key is one whose press or auto-repeat
// arrived within the hold timeout; Expire emits the release once it lapses
// Not safe for concurrent use
type Driver struct {
	in    Sink
	focus Focuser
	log   *zap.Logger

	canvasW, canvasH float64
	cols, rows       int

	hold time.Duration
	held map[input.Code]time.Time

	buttons tcell.ButtonMask
}

func NewDriver(in Sink, focus Focuser, canvas config.Canvas, hold time.Duration, log *zap.Logger) *Driver {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Driver{
		in:      in,
		focus:   focus,
		log:     log,
		canvasW: float64(canvas.Width),
		canvasH: float64(canvas.Height),
		hold:    hold,
		held:    make(map[input.Code]time.Time),
	}
	in.SetViewport(d.canvasW, d.canvasH)
	return d
}

// Handle processes one event received at now; false means the user asked to quit
func (d *Driver) Handle(ev tcell.Event, now time.Time) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyCtrlC || ev.Key() == tcell.KeyCtrlQ {
			return false
		}
		if code, ok := keyCode(ev); ok {
			d.press(code, now)
		}

	case *tcell.EventMouse:
		d.mouse(ev)

	case *tcell.EventFocus:
		if !ev.Focused {
			d.ReleaseAll()
		}
		if d.focus != nil {
			d.focus.Focus(ev.Focused)
		}

	case *tcell.EventResize:
		d.cols, d.rows = ev.Size()
		d.in.SetViewport(d.canvasW, d.canvasH)
		d.log.Debug("terminal resized", zap.Int("cols", d.cols), zap.Int("rows", d.rows))
	}
	return true
}

// press emits KeyDown only on the first press; auto-repeats refresh the hold deadline
func (d *Driver) press(code input.Code, now time.Time) {
	_, held := d.held[code]
	d.held[code] = now
	if !held {
		d.in.KeyDown(code)
	}
}

// Expire releases keys whose last press is older than the hold timeout
func (d *Driver) Expire(now time.Time) {
	for code, last := range d.held {
		if now.Sub(last) >= d.hold {
			delete(d.held, code)
			d.in.KeyUp(code)
		}
	}
}

// ReleaseAll emits KeyUp for every held key
func (d *Driver) ReleaseAll() {
	for code := range d.held {
		delete(d.held, code)
		d.in.KeyUp(code)
	}
}

// Held reports whether code is considered pressed
func (d *Driver) Held(code input.Code) bool {
	_, ok := d.held[code]
	return ok
}

func (d *Driver) mouse(ev *tcell.EventMouse) {
	col, row := ev.Position()
	x, y := d.toCanvas(col, row)

	wasDown := d.buttons&tcell.Button1 != 0
	isDown := ev.Buttons()&tcell.Button1 != 0
	d.buttons = ev.Buttons()

	switch {
	case isDown && !wasDown:
		d.in.PointerDown(x, y)
	case !isDown && wasDown:
		d.in.PointerUp(x, y)
	default:
		d.in.PointerMove(x, y)
	}
}

// toCanvas maps a cell to the canvas point at its center
func (d *Driver) toCanvas(col, row int) (float64, float64) {
	if d.cols <= 0 || d.rows <= 0 {
		return 0, 0
	}
	x := (float64(col) + 0.5) * d.canvasW / float64(d.cols)
	y := (float64(row) + 0.5) * d.canvasH / float64(d.rows)
	return x, y
}

func keyCode(ev *tcell.EventKey) (input.Code, bool) {
	switch ev.Key() {
	case tcell.KeyLeft:
		return input.CodeArrowLeft, true
	case tcell.KeyRight:
		return input.CodeArrowRight, true
	case tcell.KeyUp:
		return input.CodeArrowUp, true
	case tcell.KeyDown:
		return input.CodeArrowDown, true
	case tcell.KeyEscape:
		return input.CodeEscape, true
	case tcell.KeyEnter:
		return input.CodeEnter, true
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'a', 'A':
			return input.CodeKeyA, true
		case 'd', 'D':
			return input.CodeKeyD, true
		case 's', 'S':
			return input.CodeKeyS, true
		case 'w', 'W':
			return input.CodeKeyW, true
		case ' ':
			return input.CodeSpace, true
		}
	}
	return "", false
}
