// Package streaming replays a completed response incrementally.
//
// This is pure post-hoc chunking of an already-fully-received response:
// it does not reduce end-to-end latency, only perceived latency. The
// presenter emits progressively longer prefixes of the text, cut at word
// boundaries, so the final chunk is byte-identical to the input.

package streaming

import (
	"context"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultDelay is the inter-chunk delay for fresh responses.
	DefaultDelay = 50 * time.Millisecond
	// DefaultCacheHitDelay is the faster inter-chunk delay used when the
	// response came from cache.
	DefaultCacheHitDelay = 30 * time.Millisecond
	// DefaultChunkWords is how many words each chunk advances by.
	DefaultChunkWords = 1
)

// Presenter re-delivers a final text to a consumer callback in
// word-sized increments at a fixed delay.
type Presenter struct {
	Delay         time.Duration
	CacheHitDelay time.Duration
	ChunkWords    int
}

// NewPresenter creates a presenter with the default pacing.
func NewPresenter() *Presenter {
	return &Presenter{
		Delay:         DefaultDelay,
		CacheHitDelay: DefaultCacheHitDelay,
		ChunkWords:    DefaultChunkWords,
	}
}

// Present emits cumulative prefixes of text to onChunk, then calls
// onComplete(text) exactly once after the last chunk. Cached responses
// replay at the faster cache-hit delay. Cancelling ctx stops emission
// immediately and suppresses onComplete.
func (p *Presenter) Present(ctx context.Context, text string, cached bool, onChunk func(string), onComplete func(string)) error {
	delay := p.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}
	if cached {
		delay = p.CacheHitDelay
		if delay <= 0 {
			delay = DefaultCacheHitDelay
		}
	}
	step := p.ChunkWords
	if step <= 0 {
		step = DefaultChunkWords
	}

	cuts := wordCuts(text)
	for i := step - 1; i < len(cuts); i += step {
		if err := sleepCtx(ctx, delay); err != nil {
			return err
		}
		if onChunk != nil {
			onChunk(text[:cuts[i]])
		}
	}

	// Emit any trailing partial chunk so the last prefix is the whole text.
	if n := len(cuts); n > 0 && n%step != 0 {
		if err := sleepCtx(ctx, delay); err != nil {
			return err
		}
		if onChunk != nil {
			onChunk(text)
		}
	}

	if onComplete != nil {
		onComplete(text)
	}
	return nil
}

// wordCuts returns cumulative byte offsets, one per word. Each offset
// covers everything through that word plus any whitespace that follows
// it (and any leading whitespace before the first word), so the last
// offset always equals len(text) when text contains a word.
func wordCuts(text string) []int {
	var cuts []int
	inWord := false
	for i, r := range text {
		space := unicode.IsSpace(r)
		if !space && !inWord {
			cuts = append(cuts, 0)
			inWord = true
		}
		if space {
			inWord = false
		}
		if len(cuts) > 0 {
			cuts[len(cuts)-1] = i + utf8.RuneLen(r)
		}
	}
	if len(cuts) == 0 && text != "" {
		// Whitespace-only input still replays as a single chunk.
		cuts = append(cuts, len(text))
	}
	return cuts
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
