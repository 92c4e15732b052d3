// Package score keeps the bounded high score table on a key/value blob backend
package score

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"
)

const (
	// DefaultKey is the blob key the score table is stored under
	DefaultKey = "snakeScores"
	// DefaultLimit is the number of entries kept after each save
	DefaultLimit = 10

	// dateLayout matches ISO-8601 with millisecond precision in UTC
	dateLayout = "2006-01-02T15:04:05.000Z"
)

// Entry is one recorded score
type Entry struct {
	Score     int    `json:"score"`
	Date      string `json:"date"`
	Timestamp int64  `json:"timestamp"`
}

// Board reads and writes the score table through a Blob
type Board struct {
	mu    sync.Mutex
	blob  Blob
	key   string
	limit int
	now   func() time.Time
}

type BoardOption func(*Board)

func WithKey(key string) BoardOption {
	return func(b *Board) { b.key = key }
}

func WithLimit(n int) BoardOption {
	return func(b *Board) {
		if n > 0 {
			b.limit = n
		}
	}
}

func WithClock(now func() time.Time) BoardOption {
	return func(b *Board) { b.now = now }
}

func NewBoard(blob Blob, opts ...BoardOption) *Board {
	b := &Board{
		blob:  blob,
		key:   DefaultKey,
		limit: DefaultLimit,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SaveScore appends score, keeps the top entries in descending order and writes the table back
// A table that cannot be read or decoded is left untouched
func (b *Board) SaveScore(ctx context.Context, score int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries, err := b.read(ctx)
	if err != nil {
		return err
	}

	now := b.now().UTC()
	entries = append(entries, Entry{
		Score:     score,
		Date:      now.Format(dateLayout),
		Timestamp: now.UnixMilli(),
	})

	// Stable so equal scores keep insertion order
	slices.SortStableFunc(entries, func(a, b Entry) int { return b.Score - a.Score })
	if len(entries) > b.limit {
		entries = entries[:b.limit]
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode scores: %w", err)
	}
	if err := b.blob.Set(ctx, b.key, data); err != nil {
		return fmt.Errorf("write scores: %w", err)
	}
	return nil
}

// HighScores returns the stored table; on failure it returns an empty list and the error
func (b *Board) HighScores(ctx context.Context) ([]Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries, err := b.read(ctx)
	if err != nil {
		return []Entry{}, err
	}
	return entries, nil
}

func (b *Board) Close() error {
	return b.blob.Close()
}

func (b *Board) read(ctx context.Context) ([]Entry, error) {
	data, err := b.blob.Get(ctx, b.key)
	if err != nil {
		return nil, fmt.Errorf("read scores: %w", err)
	}
	if len(data) == 0 {
		return []Entry{}, nil
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode scores: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}
