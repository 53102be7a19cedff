package visit

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/museumguide/pkg/model"
	"github.com/m-mizutani/museumguide/pkg/position"
	"github.com/m-mizutani/museumguide/pkg/tracker"
	"github.com/m-mizutani/museumguide/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// TrackOptions controls a Track run
type TrackOptions struct {
	Interests model.Interests

	// Interval delays each fix to mimic a live feed
	Interval time.Duration

	// KeepOpen leaves the last visit running at end of input instead of
	// closing it
	KeepOpen bool
}

// TrackResult is what a Track run produced
type TrackResult struct {
	Stats  *position.Stats
	Visits []*model.Visit
}

// Track replays position records from r through a visit tracker. Every visit
// that ends with scanned artworks is processed by a worker pool.
func (u *UseCase) Track(ctx context.Context, r io.Reader, opts TrackOptions) (*TrackResult, error) {
	logger := logging.From(ctx)
	interests := opts.Interests.Tags()

	var (
		outMu  sync.Mutex
		result = &TrackResult{}
	)
	printf := func(format string, args ...any) {
		outMu.Lock()
		defer outMu.Unlock()
		fmt.Fprintf(u.output, format, args...)
	}

	eg, ctx := errgroup.WithContext(ctx)
	queue := make(chan *tracker.VisitEnded, u.workers*4)

	var tr *tracker.Tracker
	printer := tracker.Funcs{
		OnStarted: func(museum *model.Museum) {
			printf("🏛️  Entered %s (%s)\n", museum.Name, museum.ID)
			for _, ex := range tr.CurrentRecommendations() {
				printf("   • %s @ %s\n", ex.Name, ex.Location)
			}
		},
		OnEnded: func(ev *tracker.VisitEnded) {
			printf("👋 Left %s with %d artwork(s)\n", ev.Museum.Name, len(ev.Artworks))
		},
	}
	enqueue := tracker.Funcs{
		OnEnded: func(ev *tracker.VisitEnded) {
			select {
			case queue <- ev:
			case <-ctx.Done():
				logger.Warn("drop ended visit", "museum", ev.Museum.ID)
			}
		},
	}

	tr = tracker.New(u.dir,
		tracker.WithRadius(u.radius),
		tracker.WithListener(tracker.Multi{printer, enqueue}),
		tracker.WithLogger(logger),
	)
	tr.Recompute(opts.Interests)

	var resultMu sync.Mutex
	for i := 0; i < u.workers; i++ {
		eg.Go(func() error {
			for ev := range queue {
				visit, err := u.Process(ctx, ev, interests)
				if err != nil {
					return err
				}

				resultMu.Lock()
				result.Visits = append(result.Visits, visit)
				resultMu.Unlock()

				if visit.Summary != "" {
					printf("\n🎙️  %s\n%s\n\n", visit.MuseumName, visit.Summary)
				}
			}
			return nil
		})
	}

	eg.Go(func() error {
		defer close(queue)

		replayOpts := []position.ReplayOption{}
		if opts.Interval > 0 {
			replayOpts = append(replayOpts, position.WithInterval(opts.Interval))
		}

		stats, err := position.Replay(ctx, r, tr, replayOpts...)
		result.Stats = stats
		if err != nil {
			return goerr.Wrap(err, "failed to replay positions")
		}

		if !opts.KeepOpen {
			tr.ForceExit()
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		return result, err
	}

	return result, nil
}
