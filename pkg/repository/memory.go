package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/museumguide/pkg/model"
)

// Memory is an in-process Repository. It is used when no Firestore project
// is configured and in tests.
type Memory struct {
	mu       sync.RWMutex
	visits   map[model.VisitID]*model.Visit
	artworks []*model.Artwork
	prefs    *model.Preferences
}

var _ Repository = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		visits: make(map[model.VisitID]*model.Visit),
	}
}

func (m *Memory) PutVisit(ctx context.Context, visit *model.Visit) error {
	if visit.ID == "" {
		return goerr.New("visit ID is empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	v := *visit
	m.visits[visit.ID] = &v
	return nil
}

func (m *Memory) GetVisit(ctx context.Context, id model.VisitID) (*model.Visit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.visits[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "visit not found", goerr.V("id", id))
	}
	out := *v
	return &out, nil
}

func (m *Memory) ListVisits(ctx context.Context, offset, limit int) ([]*model.Visit, error) {
	m.mu.RLock()
	all := make([]*model.Visit, 0, len(m.visits))
	for _, v := range m.visits {
		out := *v
		all = append(all, &out)
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].EndedAt.After(all[j].EndedAt)
	})

	offset = clampOffset(offset)
	if offset >= len(all) {
		return []*model.Visit{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (m *Memory) PutArtwork(ctx context.Context, artwork *model.Artwork) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.artworks {
		if a.SameWork(artwork) {
			return false, nil
		}
	}

	a := *artwork
	if a.ID == "" {
		a.ID = model.NewArtworkID()
	}
	m.artworks = append(m.artworks, &a)
	return true, nil
}

func (m *Memory) ListArtworks(ctx context.Context, offset, limit int) ([]*model.Artwork, error) {
	m.mu.RLock()
	out := make([]*model.Artwork, 0, len(m.artworks))
	for _, a := range m.artworks {
		c := *a
		out = append(out, &c)
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScannedAt.After(out[j].ScannedAt)
	})
	offset = clampOffset(offset)
	if offset >= len(out) {
		return []*model.Artwork{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) ClearArtworks(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.artworks = nil
	return nil
}

func (m *Memory) GetPreferences(ctx context.Context) (*model.Preferences, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.prefs == nil {
		return &model.Preferences{}, nil
	}
	p := *m.prefs
	p.Interests = append([]string(nil), m.prefs.Interests...)
	return &p, nil
}

func (m *Memory) PutPreferences(ctx context.Context, prefs *model.Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := *prefs
	p.Interests = append([]string(nil), prefs.Interests...)
	m.prefs = &p
	return nil
}
