package model_test

import (
	"math"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/museumguide/pkg/model"
)

func TestFixValid(t *testing.T) {
	testCases := []struct {
		name  string
		fix   model.Fix
		valid bool
	}{
		{"normal", model.Fix{Latitude: 40.7794, Longitude: -73.9632}, true},
		{"origin", model.Fix{}, true},
		{"poles", model.Fix{Latitude: 90, Longitude: 180}, true},
		{"lat out of range", model.Fix{Latitude: 91, Longitude: 0}, false},
		{"lon out of range", model.Fix{Latitude: 0, Longitude: -181}, false},
		{"NaN", model.Fix{Latitude: math.NaN(), Longitude: 0}, false},
		{"Inf", model.Fix{Latitude: 0, Longitude: math.Inf(1)}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gt.Equal(t, tc.fix.Valid(), tc.valid)
		})
	}
}

func TestInterests(t *testing.T) {
	s := model.NewInterests("Sculpture", "Classical", "", "Sculpture")
	gt.Equal(t, len(s), 2)
	gt.True(t, s.Contains("Classical"))
	gt.False(t, s.Contains("Modern Art"))
	gt.Equal(t, s.Tags(), []string{"Classical", "Sculpture"})

	c := s.Clone()
	delete(c, "Classical")
	gt.True(t, s.Contains("Classical"))
	gt.True(t, model.NewInterests().IsEmpty())
}

func TestExhibitHasAnyTag(t *testing.T) {
	e := &model.Exhibit{Name: "Venus de Milo", Tags: []string{"Classical", "Sculpture"}}
	gt.True(t, e.HasAnyTag(model.NewInterests("Sculpture", "Technology")))
	gt.False(t, e.HasAnyTag(model.NewInterests("Technology")))
	gt.False(t, e.HasAnyTag(model.NewInterests()))
}

func TestArtworkSameWork(t *testing.T) {
	a := &model.Artwork{Title: "Mona Lisa", Artist: "Leonardo da Vinci"}
	b := &model.Artwork{Title: "mona lisa", Artist: "Leonardo Da Vinci", Year: "1503"}
	c := &model.Artwork{Title: "Mona Lisa", Artist: "Unknown"}

	gt.True(t, a.SameWork(b))
	gt.False(t, a.SameWork(c))
	gt.False(t, a.SameWork(nil))
	gt.Equal(t, a.Label(), "Mona Lisa by Leonardo da Vinci")
}
