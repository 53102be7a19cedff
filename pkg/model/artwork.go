package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type ArtworkID string

// NewArtworkID generates a new unique ArtworkID
func NewArtworkID() ArtworkID {
	return ArtworkID(uuid.New().String())
}

// Artwork is a recognition result for a photographed piece.
type Artwork struct {
	ID          ArtworkID `json:"id"`
	Title       string    `json:"title"`
	Artist      string    `json:"artist"`
	Year        string    `json:"year,omitempty"`
	Description string    `json:"description"`
	Context     string    `json:"context,omitempty"`
	ScannedAt   time.Time `json:"scanned_at"`
}

// SameWork reports whether both artworks refer to the same piece. Only the
// persisted history uses it; session accumulation keeps duplicates.
func (a *Artwork) SameWork(other *Artwork) bool {
	if a == nil || other == nil {
		return false
	}
	return strings.EqualFold(a.Title, other.Title) && strings.EqualFold(a.Artist, other.Artist)
}

// Label returns "Title by Artist".
func (a *Artwork) Label() string {
	if a.Artist == "" {
		return a.Title
	}
	return a.Title + " by " + a.Artist
}
