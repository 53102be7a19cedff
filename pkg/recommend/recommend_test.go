package recommend_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/museumguide/pkg/directory"
	"github.com/m-mizutani/museumguide/pkg/model"
	"github.com/m-mizutani/museumguide/pkg/recommend"
)

func names(exhibits []*model.Exhibit) []string {
	out := make([]string, 0, len(exhibits))
	for _, e := range exhibits {
		out = append(out, e.Name)
	}
	return out
}

func TestRecommend(t *testing.T) {
	met, err := directory.Default().Get("The Met")
	gt.NoError(t, err)

	testCases := []struct {
		name      string
		interests model.Interests
		expected  []string
	}{
		{
			name:      "no interests returns all in order",
			interests: model.NewInterests(),
			expected:  []string{"Temple of Dendur", "The Starry Night (Loan)", "Greek and Roman Art"},
		},
		{
			name:      "nil interests returns all",
			interests: nil,
			expected:  []string{"Temple of Dendur", "The Starry Night (Loan)", "Greek and Roman Art"},
		},
		{
			name:      "matching subset keeps order",
			interests: model.NewInterests("Sculpture"),
			expected:  []string{"Temple of Dendur", "Greek and Roman Art"},
		},
		{
			name:      "any tag intersects",
			interests: model.NewInterests("Impressionism", "Technology"),
			expected:  []string{"The Starry Night (Loan)"},
		},
		{
			name:      "no match falls back to all",
			interests: model.NewInterests("Technology", "Surrealism"),
			expected:  []string{"Temple of Dendur", "The Starry Night (Loan)", "Greek and Roman Art"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gt.Equal(t, names(recommend.Recommend(met, tc.interests)), tc.expected)
		})
	}
}

func TestRecommendNilMuseum(t *testing.T) {
	gt.A(t, recommend.Recommend(nil, model.NewInterests("History"))).Length(0)
}

func TestRecommendDoesNotAliasMuseum(t *testing.T) {
	louvre, err := directory.Default().Get("Louvre")
	gt.NoError(t, err)

	got := recommend.Recommend(louvre, nil)
	got[0] = nil
	gt.NotNil(t, louvre.Exhibits[0])
}
