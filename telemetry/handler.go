// Package telemetry records runtime failures and forwards them to optional reporters
package telemetry

import (
	"errors"
	"fmt"
	"maps"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxErrors bounds the in-memory error history
const DefaultMaxErrors = 100

// Error kinds used across the runtime
const (
	KindInitialization = "Initialization Error"
	KindUpdate         = "Update Error"
	KindScoreSave      = "Score Save Error"
	KindScoreLoad      = "Score Load Error"
	KindAudio          = "Audio Error"
	KindPanic          = "Unhandled Panic"
)

// Record is one logged failure
type Record struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Stack     string         `json:"stack,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Context   map[string]any `json:"context,omitempty"`
}

// Reporter forwards records to an external service
type Reporter interface {
	Report(Record) error
}

// PanicError carries a recovered panic value and the stack at recovery
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Handler keeps the most recent failures and logs each one
// Safe for concurrent use; audio loading reports from worker goroutines
type Handler struct {
	mu        sync.Mutex
	records   []Record
	maxErrors int

	log       *zap.Logger
	reporters []Reporter
	now       func() time.Time
}

// Option configures a Handler
type Option func(*Handler)

func WithMaxErrors(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxErrors = n
		}
	}
}

func WithReporter(r Reporter) Option {
	return func(h *Handler) {
		if r != nil {
			h.reporters = append(h.reporters, r)
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// NewHandler creates a handler logging through log, nil means no-op logging
func NewHandler(log *zap.Logger, opts ...Option) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{
		maxErrors: DefaultMaxErrors,
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// LogError records err under kind with optional context fields
// A nil err is recorded with an empty message so callers never lose the event
func (h *Handler) LogError(kind string, err error, fields map[string]any) {
	rec := Record{
		ID:        uuid.NewString(),
		Type:      kind,
		Timestamp: h.now().UTC(),
		Context:   maps.Clone(fields),
	}
	if err != nil {
		rec.Message = err.Error()
		var pe *PanicError
		if errors.As(err, &pe) {
			rec.Stack = string(pe.Stack)
		}
	}

	h.mu.Lock()
	h.records = append(h.records, rec)
	if over := len(h.records) - h.maxErrors; over > 0 {
		h.records = append(h.records[:0:0], h.records[over:]...)
	}
	reporters := h.reporters
	h.mu.Unlock()

	h.log.Error(kind,
		zap.String("id", rec.ID),
		zap.String("message", rec.Message),
		zap.Any("context", rec.Context),
	)

	for _, r := range reporters {
		if rerr := r.Report(rec); rerr != nil {
			h.log.Warn("error report failed", zap.String("id", rec.ID), zap.Error(rerr))
		}
	}
}

// Errors returns a copy of the recorded failures, oldest first
func (h *Handler) Errors() []Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Record, len(h.records))
	copy(out, h.records)
	return out
}

// Count returns the number of recorded failures
func (h *Handler) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

func (h *Handler) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = nil
}

// Recovered converts a recover() value into a *PanicError, nil stays nil
func Recovered(r any) error {
	if r == nil {
		return nil
	}
	return &PanicError{Value: r, Stack: debug.Stack()}
}

// Guard runs fn, converting a panic into a returned *PanicError
// Returned errors and panics are both recorded under kind
func (h *Handler) Guard(kind string, fields map[string]any, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = Recovered(r)
			h.LogError(kind, err, fields)
		}
	}()
	if err = fn(); err != nil {
		h.LogError(kind, err, fields)
	}
	return err
}
