package artwork

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/museumguide/pkg/model"
)

// Record saves the artwork into the scan history. It returns false when the
// same work was already recorded.
func (u *UseCase) Record(ctx context.Context, artwork *model.Artwork) (bool, error) {
	if artwork == nil {
		return false, goerr.New("artwork is nil")
	}
	if artwork.ScannedAt.IsZero() {
		artwork.ScannedAt = u.now()
	}

	recorded, err := u.repo.PutArtwork(ctx, artwork)
	if err != nil {
		return false, goerr.Wrap(err, "failed to record artwork", goerr.V("title", artwork.Title))
	}
	return recorded, nil
}

// History lists scanned artworks, newest first
func (u *UseCase) History(ctx context.Context, offset, limit int) ([]*model.Artwork, error) {
	return u.repo.ListArtworks(ctx, offset, limit)
}

func (u *UseCase) ClearHistory(ctx context.Context) error {
	return u.repo.ClearArtworks(ctx)
}
