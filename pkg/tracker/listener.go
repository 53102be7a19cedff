package tracker

import (
	"time"

	"github.com/m-mizutani/museumguide/pkg/model"
)

// VisitEnded is delivered when a visit with at least one scanned artwork ends.
type VisitEnded struct {
	Museum    *model.Museum
	Artworks  []*model.Artwork
	StartedAt time.Time
	EndedAt   time.Time
}

// Listener receives visit transitions in the order they happen. Calls are made
// without the tracker's state lock held, but a listener must not feed fixes
// back into the same tracker synchronously.
type Listener interface {
	VisitStarted(museum *model.Museum)
	VisitEnded(ev *VisitEnded)
}

// Funcs adapts plain functions to Listener. Nil fields are skipped.
type Funcs struct {
	OnStarted func(museum *model.Museum)
	OnEnded   func(ev *VisitEnded)
}

func (f Funcs) VisitStarted(museum *model.Museum) {
	if f.OnStarted != nil {
		f.OnStarted(museum)
	}
}

func (f Funcs) VisitEnded(ev *VisitEnded) {
	if f.OnEnded != nil {
		f.OnEnded(ev)
	}
}

// Multi fans a transition out to every listener in order.
type Multi []Listener

func (m Multi) VisitStarted(museum *model.Museum) {
	for _, l := range m {
		l.VisitStarted(museum)
	}
}

func (m Multi) VisitEnded(ev *VisitEnded) {
	for _, l := range m {
		l.VisitEnded(ev)
	}
}
