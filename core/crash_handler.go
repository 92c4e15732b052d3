// Package core holds process-wide plumbing: logger construction and crash recovery
package core

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"
)

// Finalizer restores the host terminal; tcell.Screen satisfies it
type Finalizer interface {
	Fini()
}

var (
	crashMu       sync.Mutex
	crashTerminal Finalizer
	crashLogger   *zap.Logger
	crashReport   func(r any, stack []byte)
	crashOut      io.Writer = os.Stderr
	crashExit               = os.Exit
)

// RegisterCrashTerminal sets the screen restored before the crash report is printed
func RegisterCrashTerminal(f Finalizer) {
	crashMu.Lock()
	defer crashMu.Unlock()
	crashTerminal = f
}

// RegisterCrashLogger sets the logger that receives crash reports and is synced before exit
func RegisterCrashLogger(l *zap.Logger) {
	crashMu.Lock()
	defer crashMu.Unlock()
	crashLogger = l
}

// RegisterCrashReporter sets a hook that records the panic before the process exits
func RegisterCrashReporter(fn func(r any, stack []byte)) {
	crashMu.Lock()
	defer crashMu.Unlock()
	crashReport = fn
}

// HandleCrash is the unified panic handler that resets the terminal and prints the stack trace
func HandleCrash(r any) {
	if r == nil {
		return
	}

	crashMu.Lock()
	term, log, report, out, exit := crashTerminal, crashLogger, crashReport, crashOut, crashExit
	crashMu.Unlock()

	stack := debug.Stack()

	if report != nil {
		report(r, stack)
	}

	// Restore terminal to sane state before printing
	if term != nil {
		term.Fini()
	}

	if log != nil {
		log.Error("crash detected", zap.Any("panic", r), zap.ByteString("stack", stack))
		_ = log.Sync()
	}

	fmt.Fprintf(out, "\n\x1b[31mCRASH DETECTED: %v\x1b[0m\n", r)
	fmt.Fprintf(out, "Stack Trace:\n%s\n", stack)

	exit(1)
}

// Go runs a function in a new goroutine with panic recovery.
// Use this instead of the 'go' keyword to ensure terminal cleanup on crash.
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				HandleCrash(r)
			}
		}()
		fn()
	}()
}
