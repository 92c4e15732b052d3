// Package pool recycles short-lived entity records so the frame hot path does not allocate
package pool

import "fmt"

// Stats is a diagnostic snapshot of a pool, never used for control flow
type Stats struct {
	Free   int `json:"pooled"`
	Active int `json:"active"`
	Total  int `json:"total"`
}

// Option configures a Pool
type Option func(*options)

type options struct {
	limit int
}

// WithLimit caps the number of simultaneously active records for TryAcquire
// Acquire ignores the cap and keeps growing
func WithLimit(n int) Option {
	return func(o *options) {
		o.limit = n
	}
}

// Pool is a fixed-growth free list of reusable records
// Not safe for concurrent use; the game loop is single-threaded
// Acquire/Release/ReleaseAll must not be called from the reset function
type Pool[T any] struct {
	factory func() *T
	reset   func(*T)

	free    []*T
	active  map[*T]struct{}
	created int
	limit   int

	resetting bool
}

// New creates a pool pre-populated with initialCapacity factory records, none active
func New[T any](factory func() *T, reset func(*T), initialCapacity int, opts ...Option) *Pool[T] {
	if factory == nil {
		panic("pool: nil factory")
	}
	if initialCapacity < 0 {
		initialCapacity = 0
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	p := &Pool[T]{
		factory: factory,
		reset:   reset,
		free:    make([]*T, 0, initialCapacity),
		active:  make(map[*T]struct{}, initialCapacity),
		limit:   o.limit,
	}

	for i := 0; i < initialCapacity; i++ {
		p.free = append(p.free, p.create())
	}

	return p
}

func (p *Pool[T]) create() *T {
	p.created++
	return p.factory()
}

func (p *Pool[T]) guard(op string) {
	if p.resetting {
		panic(fmt.Sprintf("pool: %s called from reset function", op))
	}
}

// Acquire returns a free record, synthesizing a new one when the free list is empty
// Never refuses; the record belongs to the caller until Release
func (p *Pool[T]) Acquire() *T {
	p.guard("Acquire")

	var rec *T
	if n := len(p.free); n > 0 {
		rec = p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
	} else {
		rec = p.create()
	}

	p.active[rec] = struct{}{}
	return rec
}

// TryAcquire is Acquire honoring the WithLimit cap on active records
func (p *Pool[T]) TryAcquire() (*T, bool) {
	if p.limit > 0 && len(p.active) >= p.limit {
		return nil, false
	}
	return p.Acquire(), true
}

// Release resets an active record and returns it to the free list
// Records that are not active (already released, or never acquired here) are ignored
func (p *Pool[T]) Release(rec *T) {
	p.guard("Release")

	if rec == nil {
		return
	}
	if _, ok := p.active[rec]; !ok {
		return
	}

	delete(p.active, rec)
	p.recycle(rec)
}

// ReleaseAll releases every active record, used on scene teardown
func (p *Pool[T]) ReleaseAll() {
	p.guard("ReleaseAll")

	for rec := range p.active {
		delete(p.active, rec)
		p.recycle(rec)
	}
}

// recycle resets rec and frees it; a panicking reset leaves rec active
func (p *Pool[T]) recycle(rec *T) {
	if p.reset != nil {
		p.resetting = true
		done := false
		defer func() {
			p.resetting = false
			if !done {
				p.active[rec] = struct{}{}
			}
		}()
		p.reset(rec)
		done = true
	}
	p.free = append(p.free, rec)
}

// IsActive reports whether rec is currently checked out of this pool
func (p *Pool[T]) IsActive(rec *T) bool {
	_, ok := p.active[rec]
	return ok
}

// Active returns the number of checked-out records
func (p *Pool[T]) Active() int {
	return len(p.active)
}

// Created returns how many records the factory has produced over the pool lifetime
func (p *Pool[T]) Created() int {
	return p.created
}

// Limit returns the TryAcquire cap, 0 when unbounded
func (p *Pool[T]) Limit() int {
	return p.limit
}

// Stats returns free/active/total counts
func (p *Pool[T]) Stats() Stats {
	return Stats{
		Free:   len(p.free),
		Active: len(p.active),
		Total:  len(p.free) + len(p.active),
	}
}
