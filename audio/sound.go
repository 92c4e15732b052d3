package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/wav"
)

// resampleQuality trades CPU for fidelity when a file's rate differs from the output rate
const resampleQuality = 4

// LoadOptions are per-sound defaults applied at play time
type LoadOptions struct {
	Volume float64 // 0 means full volume
	Loop   bool
}

// PlayOptions override sound defaults for one playback
type PlayOptions struct {
	Volume *float64
}

// Sound is a decoded clip held in memory; a mock sound has no samples and never plays
type Sound struct {
	name   string
	buffer *beep.Buffer
	opts   LoadOptions
}

func (s *Sound) Name() string { return s.name }

func (s *Sound) IsMock() bool { return s.buffer == nil }

// Frames returns the clip length in output frames
func (s *Sound) Frames() int {
	if s.buffer == nil {
		return 0
	}
	return s.buffer.Len()
}

// GameSound names a clip loaded at startup
type GameSound struct {
	Name string
	File string
	Loop bool
}

// GameSounds is the startup set loaded by LoadGameSounds
var GameSounds = []GameSound{
	{Name: "snake_eating", File: "snake_eating.mp3"},
	{Name: "click", File: "click.mp3"},
	{Name: "game_over", File: "game_over.mp3"},
	{Name: "snake_follow", File: "snake_follow.mp3"},
	{Name: "scream", File: "scream.mp3"},
	{Name: "soundtrack", File: "soundtrack.mp3", Loop: true},
}

// decodeFile decodes path by extension and buffers it at rate
func decodeFile(path string, rate beep.SampleRate) (*beep.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		stream, format, err = mp3.Decode(f)
	case ".wav":
		stream, format, err = wav.Decode(f)
	default:
		f.Close()
		return nil, fmt.Errorf("unsupported audio format %q", filepath.Ext(path))
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	defer stream.Close()

	var src beep.Streamer = stream
	if format.SampleRate != rate {
		src = beep.Resample(resampleQuality, format.SampleRate, rate, stream)
	}

	buf := beep.NewBuffer(beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2})
	buf.Append(src)
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return buf, nil
}
