// Package recommend selects exhibits of a museum that match user interests.
package recommend

import "github.com/m-mizutani/museumguide/pkg/model"

// Recommend returns the exhibits of museum whose tags intersect interests, in
// stored order. With no interests, or when nothing matches, every exhibit is
// returned so an active museum never yields an empty panel.
func Recommend(museum *model.Museum, interests model.Interests) []*model.Exhibit {
	if museum == nil {
		return []*model.Exhibit{}
	}

	all := make([]*model.Exhibit, len(museum.Exhibits))
	copy(all, museum.Exhibits)

	if interests.IsEmpty() {
		return all
	}

	matched := make([]*model.Exhibit, 0, len(all))
	for _, e := range all {
		if e.HasAnyTag(interests) {
			matched = append(matched, e)
		}
	}

	if len(matched) == 0 {
		return all
	}
	return matched
}
