package input

import (
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/lixenwraith/snake-arena/vmath"
)

type observer struct {
	handle  Handle
	fn      Callback
	removed bool
}

// Dispatcher maps physical input events to actions and notifies observers
// Input state is updated before any observer runs
// Not safe for concurrent use; feed it from the game loop goroutine
type Dispatcher struct {
	bindings map[Action][]Code
	order    []Action

	// Observer slices are copy-on-write so in-flight deliveries keep a stable snapshot
	observers  map[Action][]*observer
	nextHandle Handle

	keys     map[Code]struct{}
	contacts map[int]*Contact
	pointer  vmath.Vec2

	width, height float64
	enabled       bool

	reporter Reporter
	log      *zap.Logger
	now      func() time.Time
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithReporter sets the sink for observer failures
func WithReporter(r Reporter) Option {
	return func(d *Dispatcher) { d.reporter = r }
}

func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// WithViewport sets the surface size used to split pointer input into regions
func WithViewport(w, h float64) Option {
	return func(d *Dispatcher) { d.width, d.height = w, h }
}

// WithClock overrides the contact start time source
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// WithoutDefaults starts with an empty binding table
func WithoutDefaults() Option {
	return func(d *Dispatcher) {
		d.bindings = make(map[Action][]Code)
		d.order = nil
	}
}

// NewDispatcher creates an enabled dispatcher with the default bindings
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		bindings:  make(map[Action][]Code),
		observers: make(map[Action][]*observer),
		keys:      make(map[Code]struct{}),
		contacts:  make(map[int]*Contact),
		enabled:   true,
		log:       zap.NewNop(),
		now:       time.Now,
	}

	for _, b := range DefaultBindings() {
		d.Bind(b.Action, b.Codes...)
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Bind replaces the binding set of action, last write wins
func (d *Dispatcher) Bind(action Action, codes ...Code) {
	if _, ok := d.bindings[action]; !ok {
		d.order = append(d.order, action)
	}
	d.bindings[action] = slices.Clone(codes)
	d.log.Debug("input bound", zap.String("action", string(action)), zap.Any("codes", codes))
}

// Bindings returns a copy of the binding table in bind order
func (d *Dispatcher) Bindings() []Binding {
	out := make([]Binding, 0, len(d.order))
	for _, a := range d.order {
		out = append(out, Binding{Action: a, Codes: slices.Clone(d.bindings[a])})
	}
	return out
}

// ActionsFor returns every action whose binding set contains code
func (d *Dispatcher) ActionsFor(code Code) []Action {
	var out []Action
	for _, a := range d.order {
		if slices.Contains(d.bindings[a], code) {
			out = append(out, a)
		}
	}
	return out
}

// IsBound reports whether code triggers any action
func (d *Dispatcher) IsBound(code Code) bool {
	for _, a := range d.order {
		if slices.Contains(d.bindings[a], code) {
			return true
		}
	}
	return false
}

// On registers an observer for action; delivery follows registration order
func (d *Dispatcher) On(action Action, fn Callback) Handle {
	d.nextHandle++
	h := d.nextHandle

	cur := d.observers[action]
	next := make([]*observer, len(cur), len(cur)+1)
	copy(next, cur)
	d.observers[action] = append(next, &observer{handle: h, fn: fn})

	return h
}

// Off removes the registration identified by h
// An observer removed during delivery is skipped for the rest of that delivery
func (d *Dispatcher) Off(action Action, h Handle) bool {
	cur := d.observers[action]
	for i, o := range cur {
		if o.handle != h {
			continue
		}
		o.removed = true
		next := make([]*observer, 0, len(cur)-1)
		next = append(next, cur[:i]...)
		next = append(next, cur[i+1:]...)
		if len(next) == 0 {
			delete(d.observers, action)
		} else {
			d.observers[action] = next
		}
		return true
	}
	return false
}

// ObserverCount returns the number of observers registered for action
func (d *Dispatcher) ObserverCount(action Action) int {
	return len(d.observers[action])
}

// SetViewport updates the surface size for region resolution
func (d *Dispatcher) SetViewport(w, h float64) {
	d.width, d.height = w, h
}

// Viewport returns the current surface size
func (d *Dispatcher) Viewport() (w, h float64) {
	return d.width, d.height
}

// === Ingestion ===

func (d *Dispatcher) KeyDown(code Code) {
	if !d.enabled {
		return
	}
	d.keys[code] = struct{}{}
	d.trigger(code, PhaseDown)
}

func (d *Dispatcher) KeyUp(code Code) {
	if !d.enabled {
		return
	}
	delete(d.keys, code)
	d.trigger(code, PhaseUp)
}

// PointerDown handles a mouse button press at (x, y)
func (d *Dispatcher) PointerDown(x, y float64) {
	if !d.enabled {
		return
	}
	pos := vmath.V2(x, y)
	d.pointer = pos
	code := d.regionFor(pos)
	d.contacts[MouseContact] = &Contact{ID: MouseContact, Pos: pos, Start: d.now(), Region: code}
	if code != "" {
		d.trigger(code, PhaseDown)
	}
}

// PointerMove records the pointer position, moving the mouse contact if pressed
func (d *Dispatcher) PointerMove(x, y float64) {
	if !d.enabled {
		return
	}
	d.pointer = vmath.V2(x, y)
	if c, ok := d.contacts[MouseContact]; ok {
		c.Pos = d.pointer
	}
}

// PointerUp handles a mouse button release at (x, y)
func (d *Dispatcher) PointerUp(x, y float64) {
	if !d.enabled {
		return
	}
	pos := vmath.V2(x, y)
	d.pointer = pos
	c, ok := d.contacts[MouseContact]
	if !ok {
		if code := d.regionFor(pos); code != "" {
			d.trigger(code, PhaseUp)
		}
		return
	}
	delete(d.contacts, MouseContact)
	c.Pos = pos
	d.release(c)
}

// TouchStart creates contact id and notifies its region with PhaseTouch
func (d *Dispatcher) TouchStart(id int, x, y float64) {
	if !d.enabled {
		return
	}
	pos := vmath.V2(x, y)
	code := d.regionFor(pos)
	d.contacts[id] = &Contact{ID: id, Pos: pos, Start: d.now(), Region: code}
	if code != "" {
		d.trigger(code, PhaseTouch)
	}
}

// TouchMove updates the position of contact id, unknown contacts are ignored
func (d *Dispatcher) TouchMove(id int, x, y float64) {
	if !d.enabled {
		return
	}
	if c, ok := d.contacts[id]; ok {
		c.Pos = vmath.V2(x, y)
	}
}

// TouchEnd removes contact id and releases its regions with PhaseUp
func (d *Dispatcher) TouchEnd(id int) {
	if !d.enabled {
		return
	}
	c, ok := d.contacts[id]
	if !ok {
		return
	}
	delete(d.contacts, id)
	d.release(c)
}

// release sends PhaseUp to the region c went down in, then to the region it ended in when that differs
func (d *Dispatcher) release(c *Contact) {
	if c.Region != "" {
		d.trigger(c.Region, PhaseUp)
	}
	if end := d.regionFor(c.Pos); end != "" && end != c.Region {
		d.trigger(end, PhaseUp)
	}
}

// === Polling ===

// IsPressed reports whether any bound input of action is held right now
func (d *Dispatcher) IsPressed(action Action) bool {
	if !d.enabled {
		return false
	}
	for _, code := range d.bindings[action] {
		if d.isActive(code) {
			return true
		}
	}
	return false
}

func (d *Dispatcher) isActive(code Code) bool {
	if _, ok := d.keys[code]; ok {
		return true
	}
	if !code.IsRegion() {
		return false
	}
	for _, c := range d.contacts {
		if d.regionFor(c.Pos) == code {
			return true
		}
	}
	return false
}

// IsHeld reports whether a physical key is held
func (d *Dispatcher) IsHeld(code Code) bool {
	_, ok := d.keys[code]
	return ok
}

// Contacts returns a copy of the active contacts
func (d *Dispatcher) Contacts() []Contact {
	out := make([]Contact, 0, len(d.contacts))
	for _, c := range d.contacts {
		out = append(out, *c)
	}
	slices.SortFunc(out, func(a, b Contact) int { return a.ID - b.ID })
	return out
}

// PointerPosition returns the last known pointer position
func (d *Dispatcher) PointerPosition() vmath.Vec2 {
	return d.pointer
}

// === Gating ===

func (d *Dispatcher) Enable() {
	d.enabled = true
}

// Disable gates ingestion and clears held keys and contacts so nothing sticks across suspend
func (d *Dispatcher) Disable() {
	d.enabled = false
	clear(d.keys)
	clear(d.contacts)
	d.pointer = vmath.Vec2{}
}

func (d *Dispatcher) Enabled() bool {
	return d.enabled
}

// Destroy disables input and drops all observers and bindings
func (d *Dispatcher) Destroy() {
	d.Disable()
	for _, obs := range d.observers {
		for _, o := range obs {
			o.removed = true
		}
	}
	clear(d.observers)
	clear(d.bindings)
	d.order = nil
}

// === Delivery ===

func (d *Dispatcher) regionFor(pos vmath.Vec2) Code {
	if d.width <= 0 {
		return ""
	}
	if pos.X < d.width*0.5 {
		return CodePointerLeft
	}
	return CodePointerRight
}

func (d *Dispatcher) trigger(code Code, phase Phase) {
	order := d.order
	for _, action := range order {
		if slices.Contains(d.bindings[action], code) {
			d.deliver(action, phase)
		}
	}
}

func (d *Dispatcher) deliver(action Action, phase Phase) {
	snapshot := d.observers[action]
	for _, o := range snapshot {
		if o.removed {
			continue
		}
		if err := invoke(o.fn, action, phase); err != nil {
			d.report(err, action, phase)
		}
	}
}

func invoke(fn Callback, action Action, phase Phase) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("observer panic: %v", r)
		}
	}()
	return fn(action, phase)
}

func (d *Dispatcher) report(err error, action Action, phase Phase) {
	fields := map[string]any{"action": string(action), "phase": phase.String()}
	if d.reporter != nil {
		d.reporter.LogError(KindObserverFailure, err, fields)
		return
	}
	d.log.Error("input observer failed", zap.Error(err), zap.Any("context", fields))
}
