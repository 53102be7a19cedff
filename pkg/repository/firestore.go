package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/museumguide/pkg/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	collectionVisits      = "visits"
	collectionArtworks    = "artworks"
	collectionPreferences = "preferences"
	preferencesDocID      = "default"
)

// Firestore implements Repository backed by a Firestore database
type Firestore struct {
	client *firestore.Client
}

var _ Repository = (*Firestore)(nil)

// New creates a Firestore repository for the given project and database
func New(projectID, databaseID string) (*Firestore, error) {
	if projectID == "" {
		return nil, goerr.New("firestore project ID is required")
	}
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(context.Background(), projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project", projectID),
			goerr.V("database", databaseID))
	}

	return &Firestore{client: client}, nil
}

// Close releases the underlying client
func (r *Firestore) Close() error {
	return r.client.Close()
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func (r *Firestore) PutVisit(ctx context.Context, visit *model.Visit) error {
	if visit.ID == "" {
		return goerr.New("visit ID is empty")
	}
	if _, err := r.client.Collection(collectionVisits).Doc(string(visit.ID)).Set(ctx, visit); err != nil {
		return goerr.Wrap(err, "failed to put visit", goerr.V("id", visit.ID))
	}
	return nil
}

func (r *Firestore) GetVisit(ctx context.Context, id model.VisitID) (*model.Visit, error) {
	doc, err := r.client.Collection(collectionVisits).Doc(string(id)).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(model.ErrNotFound, "visit not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get visit", goerr.V("id", id))
	}

	var visit model.Visit
	if err := doc.DataTo(&visit); err != nil {
		return nil, goerr.Wrap(err, "failed to decode visit", goerr.V("id", id))
	}
	return &visit, nil
}

func (r *Firestore) ListVisits(ctx context.Context, offset, limit int) ([]*model.Visit, error) {
	q := r.client.Collection(collectionVisits).OrderBy("EndedAt", firestore.Desc).Offset(clampOffset(offset))
	if limit > 0 {
		q = q.Limit(limit)
	}
	iter := q.Documents(ctx)
	defer iter.Stop()

	var visits []*model.Visit
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate visits")
		}

		var visit model.Visit
		if err := doc.DataTo(&visit); err != nil {
			return nil, goerr.Wrap(err, "failed to decode visit", goerr.V("doc", doc.Ref.ID))
		}
		visits = append(visits, &visit)
	}

	return visits, nil
}

func (r *Firestore) PutArtwork(ctx context.Context, artwork *model.Artwork) (bool, error) {
	a := *artwork
	if a.ID == "" {
		a.ID = model.NewArtworkID()
	}

	recorded := false
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		recorded = false
		iter := tx.Documents(r.client.Collection(collectionArtworks))
		defer iter.Stop()

		for {
			doc, err := iter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				return goerr.Wrap(err, "failed to iterate artworks")
			}

			var existing model.Artwork
			if err := doc.DataTo(&existing); err != nil {
				return goerr.Wrap(err, "failed to decode artwork", goerr.V("doc", doc.Ref.ID))
			}
			if existing.SameWork(&a) {
				return nil
			}
		}

		recorded = true
		return tx.Set(r.client.Collection(collectionArtworks).Doc(string(a.ID)), &a)
	})
	if err != nil {
		return false, goerr.Wrap(err, "failed to put artwork", goerr.V("title", artwork.Title))
	}

	return recorded, nil
}

func (r *Firestore) ListArtworks(ctx context.Context, offset, limit int) ([]*model.Artwork, error) {
	q := r.client.Collection(collectionArtworks).OrderBy("ScannedAt", firestore.Desc).Offset(clampOffset(offset))
	if limit > 0 {
		q = q.Limit(limit)
	}
	iter := q.Documents(ctx)
	defer iter.Stop()

	var artworks []*model.Artwork
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate artworks")
		}

		var a model.Artwork
		if err := doc.DataTo(&a); err != nil {
			return nil, goerr.Wrap(err, "failed to decode artwork", goerr.V("doc", doc.Ref.ID))
		}
		artworks = append(artworks, &a)
	}

	return artworks, nil
}

func (r *Firestore) ClearArtworks(ctx context.Context) error {
	bw := r.client.BulkWriter(ctx)
	iter := r.client.Collection(collectionArtworks).Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return goerr.Wrap(err, "failed to iterate artworks")
		}
		if _, err := bw.Delete(doc.Ref); err != nil {
			return goerr.Wrap(err, "failed to enqueue artwork delete", goerr.V("doc", doc.Ref.ID))
		}
	}

	bw.End()
	return nil
}

func (r *Firestore) GetPreferences(ctx context.Context) (*model.Preferences, error) {
	doc, err := r.client.Collection(collectionPreferences).Doc(preferencesDocID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return &model.Preferences{}, nil
		}
		return nil, goerr.Wrap(err, "failed to get preferences")
	}

	var prefs model.Preferences
	if err := doc.DataTo(&prefs); err != nil {
		return nil, goerr.Wrap(err, "failed to decode preferences")
	}
	return &prefs, nil
}

func (r *Firestore) PutPreferences(ctx context.Context, prefs *model.Preferences) error {
	if _, err := r.client.Collection(collectionPreferences).Doc(preferencesDocID).Set(ctx, prefs); err != nil {
		return goerr.Wrap(err, "failed to put preferences")
	}
	return nil
}
