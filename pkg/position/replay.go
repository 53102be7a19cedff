package position

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/m-mizutani/museumguide/pkg/model"
	"github.com/m-mizutani/museumguide/pkg/utils/logging"
)

// Target receives replayed events. *tracker.Tracker satisfies it.
type Target interface {
	Update(fix model.Fix)
	ForceExit()
	SimulateEntry(id string) bool
	AddArtwork(a *model.Artwork) bool
}

// Stats counts what a replay did.
type Stats struct {
	Fixes    int
	Commands int
	Skipped  int
}

// ReplayOption customizes Replay.
type ReplayOption func(*replayConfig)

type replayConfig struct {
	interval time.Duration
	onEvent  func(ev *Event)
}

// WithInterval sleeps between fixes to mimic a live position source.
func WithInterval(d time.Duration) ReplayOption {
	return func(c *replayConfig) {
		c.interval = d
	}
}

// WithEventHook is called for every decoded event before it is applied.
func WithEventHook(fn func(ev *Event)) ReplayOption {
	return func(c *replayConfig) {
		c.onEvent = fn
	}
}

// Replay reads r to the end and applies every event to target. Malformed lines
// are logged and skipped. Only read errors and ctx cancellation are returned.
func Replay(ctx context.Context, r io.Reader, target Target, opts ...ReplayOption) (*Stats, error) {
	var cfg replayConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	logger := logging.From(ctx)
	reader := NewReader(r)
	stats := &Stats{}

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		ev, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if errors.Is(err, ErrMalformedLine) {
			logger.Warn("skip malformed position line", "error", err)
			stats.Skipped++
			continue
		}
		if err != nil {
			return stats, err
		}

		if cfg.onEvent != nil {
			cfg.onEvent(ev)
		}

		switch ev.Kind {
		case KindFix:
			target.Update(ev.Fix)
			stats.Fixes++
			if cfg.interval > 0 {
				select {
				case <-ctx.Done():
					return stats, ctx.Err()
				case <-time.After(cfg.interval):
				}
			}
		case KindEnter:
			if !target.SimulateEntry(ev.MuseumID) {
				logger.Warn("unknown museum in !enter", "id", ev.MuseumID, "line", ev.Line)
			}
			stats.Commands++
		case KindExit:
			target.ForceExit()
			stats.Commands++
		case KindArtwork:
			if !target.AddArtwork(ev.Artwork) {
				logger.Debug("artwork scanned outside of a visit", "title", ev.Artwork.Title, "line", ev.Line)
			}
			stats.Commands++
		}
	}
}

// Decode sends every fix of r to out until the input ends or ctx is done.
// Control events go to onCommand when it is non-nil. Malformed lines are
// logged and skipped. out is not closed.
func Decode(ctx context.Context, r io.Reader, out chan<- model.Fix, onCommand func(ev *Event)) error {
	logger := logging.From(ctx)
	reader := NewReader(r)

	for {
		ev, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, ErrMalformedLine) {
			logger.Warn("skip malformed position line", "error", err)
			continue
		}
		if err != nil {
			return err
		}

		if ev.Kind != KindFix {
			if onCommand != nil {
				onCommand(ev)
			}
			continue
		}

		select {
		case out <- ev.Fix:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
