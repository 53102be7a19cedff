package repository

import (
	"context"

	"github.com/m-mizutani/museumguide/pkg/model"
)

// Repository defines the interface for visit and artwork persistence
type Repository interface {
	// PutVisit saves a finished visit
	PutVisit(ctx context.Context, visit *model.Visit) error

	// GetVisit retrieves a visit by ID. Returns model.ErrNotFound if missing.
	GetVisit(ctx context.Context, id model.VisitID) (*model.Visit, error)

	// ListVisits retrieves visits ordered by EndedAt descending
	ListVisits(ctx context.Context, offset, limit int) ([]*model.Visit, error)

	// PutArtwork appends an artwork to the scan history. It returns false
	// without writing when the same work is already recorded.
	PutArtwork(ctx context.Context, artwork *model.Artwork) (bool, error)

	// ListArtworks retrieves the scan history ordered by ScannedAt descending
	ListArtworks(ctx context.Context, offset, limit int) ([]*model.Artwork, error)

	// ClearArtworks removes the whole scan history
	ClearArtworks(ctx context.Context) error

	// GetPreferences returns stored preferences, or empty ones if never saved
	GetPreferences(ctx context.Context) (*model.Preferences, error)

	// PutPreferences overwrites stored preferences
	PutPreferences(ctx context.Context, prefs *model.Preferences) error
}

// clampOffset treats a negative offset as the first page
func clampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
