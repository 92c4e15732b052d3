package audio

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// Sink is the output device the master mix is played on
// Lock/Unlock guard streamer mutation against the device goroutine
type Sink interface {
	Init(sr beep.SampleRate) error
	Play(s beep.Streamer)
	Lock()
	Unlock()
	Close()
}

// speakerSink plays through the system audio device
type speakerSink struct {
	bufferDur time.Duration
}

// NewSpeakerSink returns the default device sink
func NewSpeakerSink(bufferDur time.Duration) Sink {
	if bufferDur <= 0 {
		bufferDur = 100 * time.Millisecond
	}
	return &speakerSink{bufferDur: bufferDur}
}

func (s *speakerSink) Init(sr beep.SampleRate) error {
	return speaker.Init(sr, sr.N(s.bufferDur))
}

func (s *speakerSink) Play(st beep.Streamer) { speaker.Play(st) }
func (s *speakerSink) Lock() { speaker.Lock() }
func (s *speakerSink) Unlock() { speaker.Unlock() }

func (s *speakerSink) Close() {
	speaker.Clear()
	speaker.Close()
}

// ManualSink is a device-less sink; Pull advances playback by hand
type ManualSink struct {
	mu       sync.Mutex
	streamer beep.Streamer
	InitErr  error
	closed   bool
}

func (s *ManualSink) Init(beep.SampleRate) error { return s.InitErr }

func (s *ManualSink) Play(st beep.Streamer) {
	s.mu.Lock()
	s.streamer = st
	s.mu.Unlock()
}

func (s *ManualSink) Lock() { s.mu.Lock() }
func (s *ManualSink) Unlock() { s.mu.Unlock() }

func (s *ManualSink) Close() {
	s.mu.Lock()
	s.closed = true
	s.streamer = nil
	s.mu.Unlock()
}

// Pull streams n frames from the master mix and returns them
func (s *ManualSink) Pull(n int) [][2]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([][2]float64, n)
	if s.streamer == nil {
		return buf
	}
	s.streamer.Stream(buf)
	return buf
}

func (s *ManualSink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
