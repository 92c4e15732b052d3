// Package terminal hosts the game in a tcell terminal: event polling, input translation and a text view
package terminal

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/snake-arena/core"
)

// Service owns the tcell screen lifecycle and the event polling goroutine
type Service struct {
	screen  tcell.Screen
	eventCh chan tcell.Event
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
	stopped bool
}

// NewService wraps screen; nil opens the real terminal
func NewService(screen tcell.Screen) (*Service, error) {
	if screen == nil {
		s, err := tcell.NewScreen()
		if err != nil {
			return nil, fmt.Errorf("open screen: %w", err)
		}
		screen = s
	}
	return &Service{
		screen:  screen,
		eventCh: make(chan tcell.Event, 256),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

// Init puts the terminal in raw mode with mouse and focus reporting
// The screen is registered for restoration by the crash handler
func (s *Service) Init() error {
	if err := s.screen.Init(); err != nil {
		return fmt.Errorf("terminal init: %w", err)
	}
	s.screen.EnableMouse()
	s.screen.EnableFocus()
	s.screen.HideCursor()
	core.RegisterCrashTerminal(s.screen)
	return nil
}

// Start launches the polling goroutine
func (s *Service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running || s.stopped {
		return
	}
	s.running = true
	core.Go(s.pollLoop)
}

func (s *Service) pollLoop() {
	defer close(s.doneCh)
	for {
		ev := s.screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case s.eventCh <- ev:
		case <-s.stopCh:
			return
		}
	}
}

// Events delivers polled events to the frame loop
func (s *Service) Events() <-chan tcell.Event {
	return s.eventCh
}

func (s *Service) Screen() tcell.Screen {
	return s.screen
}

// Stop restores the terminal and waits for the poller; later calls are no-ops
func (s *Service) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	running := s.running
	close(s.stopCh)
	s.mu.Unlock()

	s.screen.Fini()
	core.RegisterCrashTerminal(nil)
	if running {
		<-s.doneCh
	}
}
