package model

import (
	"time"

	"github.com/google/uuid"
)

type VisitID string

// NewVisitID generates a new unique VisitID
func NewVisitID() VisitID {
	return VisitID(uuid.New().String())
}

// Visit is the persisted record of a finished museum visit.
type Visit struct {
	ID         VisitID
	MuseumID   string
	MuseumName string
	Artworks   []*Artwork
	Interests  []string
	StartedAt  time.Time
	EndedAt    time.Time

	// Summary is the narration script. The full text is archived in Cloud
	// Storage under SummaryKey as well.
	Summary    string
	SummaryKey string
}

// Duration returns how long the visit lasted.
func (v *Visit) Duration() time.Duration {
	if v.EndedAt.Before(v.StartedAt) {
		return 0
	}
	return v.EndedAt.Sub(v.StartedAt)
}

// Preferences holds user settings that survive across visits.
type Preferences struct {
	Interests []string
	Language  string
	UpdatedAt time.Time
}

// InterestSet converts stored interests into a set.
func (p *Preferences) InterestSet() Interests {
	if p == nil {
		return NewInterests()
	}
	return NewInterests(p.Interests...)
}
