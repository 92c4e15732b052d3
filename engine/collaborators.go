package engine

import (
	"context"

	"github.com/lixenwraith/snake-arena/audio"
	"github.com/lixenwraith/snake-arena/input"
	"github.com/lixenwraith/snake-arena/score"
)

// Audio is the sound collaborator; *audio.Manager satisfies it
type Audio interface {
	LoadGameSounds(ctx context.Context) error
	Play(name string, opts audio.PlayOptions) (audio.Handle, error)
	Stop(name string, h audio.Handle)
	Update()
	Destroy()
}

// ScoreStore persists finished game scores; *score.Board satisfies it
type ScoreStore interface {
	SaveScore(ctx context.Context, score int) error
	HighScores(ctx context.Context) ([]score.Entry, error)
}

// InputSource delivers action notifications; *input.Dispatcher satisfies it
type InputSource interface {
	On(action input.Action, cb input.Callback) input.Handle
	Off(action input.Action, h input.Handle) bool
	IsPressed(action input.Action) bool
	Destroy()
}
