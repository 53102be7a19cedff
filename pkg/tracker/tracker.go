// Package tracker turns a stream of position fixes into museum visits.
package tracker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/m-mizutani/museumguide/pkg/directory"
	"github.com/m-mizutani/museumguide/pkg/model"
	"github.com/m-mizutani/museumguide/pkg/recommend"
	"github.com/m-mizutani/museumguide/pkg/utils/logging"
)

// DefaultRadius is the geofence radius around each museum in meters.
const DefaultRadius = 500.0

// Tracker holds the current visit session. It is safe for concurrent use;
// transitions are applied one at a time in call order.
type Tracker struct {
	dir      *directory.Directory
	radius   float64
	listener Listener
	logger   *slog.Logger
	now      func() time.Time

	// emitMu is taken before mu by every transition and held until its
	// notifications are delivered.
	emitMu sync.Mutex

	mu              sync.RWMutex
	current         *session
	interests       model.Interests
	recommendations []*model.Exhibit
}

// session is non-nil exactly while visiting, so museum and visiting flag
// cannot drift apart.
type session struct {
	museum    *model.Museum
	startedAt time.Time
	artworks  []*model.Artwork
}

// Snapshot is a consistent copy of the tracker state.
type Snapshot struct {
	Museum          *model.Museum
	Visiting        bool
	StartedAt       time.Time
	Artworks        []*model.Artwork
	Recommendations []*model.Exhibit
}

type Option func(*Tracker)

func WithRadius(meters float64) Option {
	return func(t *Tracker) {
		t.radius = meters
	}
}

func WithListener(l Listener) Option {
	return func(t *Tracker) {
		t.listener = l
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// New creates an idle tracker over the given museum directory.
func New(dir *directory.Directory, opts ...Option) *Tracker {
	t := &Tracker{
		dir:             dir,
		radius:          DefaultRadius,
		listener:        Funcs{},
		logger:          logging.Default(),
		now:             time.Now,
		interests:       model.NewInterests(),
		recommendations: []*model.Exhibit{},
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

type notification struct {
	started *model.Museum
	ended   *VisitEnded
}

func (t *Tracker) deliver(notes []notification) {
	for _, n := range notes {
		if n.ended != nil {
			t.listener.VisitEnded(n.ended)
		}
		if n.started != nil {
			t.listener.VisitStarted(n.started)
		}
	}
}

// OnPositionUpdate applies a raw position fix.
func (t *Tracker) OnPositionUpdate(latitude, longitude float64) {
	t.Update(model.Fix{Latitude: latitude, Longitude: longitude})
}

// Update applies a position fix. Invalid fixes are ignored.
func (t *Tracker) Update(fix model.Fix) {
	if !fix.Valid() {
		t.logger.Debug("ignore invalid fix", "latitude", fix.Latitude, "longitude", fix.Longitude)
		return
	}

	t.emitMu.Lock()
	defer t.emitMu.Unlock()

	museum, distance, found := t.dir.Nearest(fix.Latitude, fix.Longitude, t.radius)

	t.mu.Lock()
	var notes []notification
	switch {
	case found && t.current != nil && t.current.museum.ID == museum.ID:
		// still inside the same museum

	case found:
		if t.current != nil {
			notes = append(notes, t.exitLocked())
		}
		notes = append(notes, t.enterLocked(museum))
		t.logger.Info("entered museum", "museum", museum.Name, "distance", distance)

	case t.current != nil:
		notes = append(notes, t.exitLocked())
	}
	t.mu.Unlock()

	t.deliver(notes)
}

// AddArtwork appends a recognition result to the current visit. It has no
// effect while not visiting.
func (t *Tracker) AddArtwork(a *model.Artwork) bool {
	if a == nil {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		t.logger.Debug("ignore artwork outside of visit", "title", a.Title)
		return false
	}

	t.current.artworks = append(t.current.artworks, a)
	return true
}

// ForceExit ends the current visit as if a fix outside every museum arrived.
func (t *Tracker) ForceExit() {
	t.emitMu.Lock()
	defer t.emitMu.Unlock()

	t.mu.Lock()
	if t.current == nil {
		t.mu.Unlock()
		t.logger.Debug("ignore forced exit while idle")
		return
	}
	note := t.exitLocked()
	t.mu.Unlock()

	t.deliver([]notification{note})
}

// SimulateEntry enters the museum with the given ID without a position fix.
// It returns false for an unknown ID. Re-entering the current museum is a no-op.
func (t *Tracker) SimulateEntry(id string) bool {
	museum, err := t.dir.Get(id)
	if err != nil {
		t.logger.Warn("cannot simulate entry", "id", id)
		return false
	}

	t.emitMu.Lock()
	defer t.emitMu.Unlock()

	t.mu.Lock()
	var notes []notification
	if t.current == nil || t.current.museum.ID != museum.ID {
		if t.current != nil {
			notes = append(notes, t.exitLocked())
		}
		notes = append(notes, t.enterLocked(museum))
		t.logger.Info("entered museum (simulated)", "museum", museum.Name)
	}
	t.mu.Unlock()

	t.deliver(notes)
	return true
}

func (t *Tracker) enterLocked(museum *model.Museum) notification {
	t.current = &session{
		museum:    museum,
		startedAt: t.now(),
		artworks:  []*model.Artwork{},
	}
	t.recommendations = recommend.Recommend(museum, t.interests)
	return notification{started: museum}
}

// exitLocked clears the session and returns the notification to deliver; the
// ended event is set only when artworks were collected.
func (t *Tracker) exitLocked() notification {
	s := t.current
	t.logger.Info("exited museum", "museum", s.museum.Name, "artworks", len(s.artworks))

	var note notification
	if len(s.artworks) > 0 {
		artworks := make([]*model.Artwork, len(s.artworks))
		copy(artworks, s.artworks)
		note.ended = &VisitEnded{
			Museum:    s.museum,
			Artworks:  artworks,
			StartedAt: s.startedAt,
			EndedAt:   t.now(),
		}
	}

	t.current = nil
	t.recommendations = []*model.Exhibit{}
	return note
}

// Recompute refreshes recommendations for the current museum and remembers
// interests for later entries.
func (t *Tracker) Recompute(interests model.Interests) []*model.Exhibit {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.interests = interests.Clone()
	if t.current == nil {
		t.recommendations = []*model.Exhibit{}
	} else {
		t.recommendations = recommend.Recommend(t.current.museum, t.interests)
	}

	return cloneExhibits(t.recommendations)
}

// CurrentRecommendations returns the last computed recommendations.
func (t *Tracker) CurrentRecommendations() []*model.Exhibit {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return cloneExhibits(t.recommendations)
}

// CurrentMuseum returns the museum being visited, or nil.
func (t *Tracker) CurrentMuseum() *model.Museum {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.current == nil {
		return nil
	}
	return t.current.museum
}

func (t *Tracker) IsVisiting() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current != nil
}

// SessionArtworks returns a copy of the artworks collected in this visit.
func (t *Tracker) SessionArtworks() []*model.Artwork {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.current == nil {
		return []*model.Artwork{}
	}
	out := make([]*model.Artwork, len(t.current.artworks))
	copy(out, t.current.artworks)
	return out
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap := Snapshot{
		Artworks:        []*model.Artwork{},
		Recommendations: cloneExhibits(t.recommendations),
	}
	if t.current != nil {
		snap.Museum = t.current.museum
		snap.Visiting = true
		snap.StartedAt = t.current.startedAt
		snap.Artworks = make([]*model.Artwork, len(t.current.artworks))
		copy(snap.Artworks, t.current.artworks)
	}
	return snap
}

// Run applies fixes from the channel until it is closed or ctx is done.
func (t *Tracker) Run(ctx context.Context, fixes <-chan model.Fix) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fix, ok := <-fixes:
			if !ok {
				return nil
			}
			t.Update(fix)
		}
	}
}

func cloneExhibits(src []*model.Exhibit) []*model.Exhibit {
	out := make([]*model.Exhibit, len(src))
	copy(out, src)
	return out
}
