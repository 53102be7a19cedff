package visit

import (
	"context"

	"github.com/m-mizutani/museumguide/pkg/adapter"
	"github.com/m-mizutani/museumguide/pkg/model"
	"github.com/m-mizutani/museumguide/pkg/utils/logging"
)

// List retrieves finished visits, newest first
func (u *UseCase) List(ctx context.Context, offset, limit int) ([]*model.Visit, error) {
	return u.repo.ListVisits(ctx, offset, limit)
}

// Show retrieves a visit. When the summary is only archived, it is loaded
// back from storage.
func (u *UseCase) Show(ctx context.Context, id model.VisitID) (*model.Visit, error) {
	visit, err := u.repo.GetVisit(ctx, id)
	if err != nil {
		return nil, err
	}

	if visit.Summary == "" && visit.SummaryKey != "" && u.storage != nil {
		data, err := adapter.ReadObject(ctx, u.storage, visit.SummaryKey)
		if err != nil {
			logging.From(ctx).Warn("failed to load archived summary", "error", err, "key", visit.SummaryKey)
		} else {
			visit.Summary = string(data)
		}
	}

	return visit, nil
}
