package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/m-mizutani/museumguide/pkg/model"
)

func printVisit(w io.Writer, v *model.Visit) {
	fmt.Fprintf(w, "ID:        %s\n", v.ID)
	fmt.Fprintf(w, "Museum:    %s (%s)\n", v.MuseumName, v.MuseumID)
	fmt.Fprintf(w, "Started:   %s\n", v.StartedAt.Format(time.DateTime))
	fmt.Fprintf(w, "Ended:     %s\n", v.EndedAt.Format(time.DateTime))
	fmt.Fprintf(w, "Duration:  %s\n", v.Duration().Round(time.Second))
	if len(v.Interests) > 0 {
		fmt.Fprintf(w, "Interests: %s\n", strings.Join(v.Interests, ", "))
	}

	fmt.Fprintf(w, "Artworks:\n")
	for _, a := range v.Artworks {
		fmt.Fprintf(w, "  - %s\n", a.Label())
	}

	if v.Summary != "" {
		fmt.Fprintf(w, "\n🎙️  %s\n", v.Summary)
	}
}

func printArtwork(w io.Writer, a *model.Artwork) {
	fmt.Fprintf(w, "🎨 %s\n", a.Title)
	fmt.Fprintf(w, "   Artist: %s\n", a.Artist)
	if a.Year != "" {
		fmt.Fprintf(w, "   Year:   %s\n", a.Year)
	}
	if a.Description != "" {
		fmt.Fprintf(w, "\n%s\n", a.Description)
	}
	if a.Context != "" {
		fmt.Fprintf(w, "\n%s\n", a.Context)
	}
}
