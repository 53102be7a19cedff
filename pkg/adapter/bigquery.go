package adapter

import (
	"context"
	"errors"
	"net/http"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/museumguide/pkg/model"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

// Exporter writes finished visits into an analytics table.
type Exporter interface {
	// EnsureTable creates the visits table if it does not exist
	EnsureTable(ctx context.Context) error

	// ExportVisit appends one row for the visit
	ExportVisit(ctx context.Context, visit *model.Visit) error

	// MuseumStats aggregates exported visits per museum
	MuseumStats(ctx context.Context) ([]*MuseumStat, error)
}

// MuseumStat is one row of the per-museum aggregate.
type MuseumStat struct {
	MuseumID    string  `bigquery:"museum_id"`
	MuseumName  string  `bigquery:"museum_name"`
	Visits      int64   `bigquery:"visits"`
	Artworks    int64   `bigquery:"artworks"`
	AvgDuration float64 `bigquery:"avg_duration_sec"`
}

type visitRow struct {
	VisitID      string    `bigquery:"visit_id"`
	MuseumID     string    `bigquery:"museum_id"`
	MuseumName   string    `bigquery:"museum_name"`
	StartedAt    time.Time `bigquery:"started_at"`
	EndedAt      time.Time `bigquery:"ended_at"`
	DurationSec  int64     `bigquery:"duration_sec"`
	ArtworkCount int64     `bigquery:"artwork_count"`
	Artworks     []string  `bigquery:"artworks"`
	Interests    []string  `bigquery:"interests"`
	HasSummary   bool      `bigquery:"has_summary"`
}

func newVisitRow(v *model.Visit) *visitRow {
	row := &visitRow{
		VisitID:      string(v.ID),
		MuseumID:     v.MuseumID,
		MuseumName:   v.MuseumName,
		StartedAt:    v.StartedAt,
		EndedAt:      v.EndedAt,
		DurationSec:  int64(v.Duration().Seconds()),
		ArtworkCount: int64(len(v.Artworks)),
		Artworks:     make([]string, 0, len(v.Artworks)),
		Interests:    v.Interests,
		HasSummary:   v.Summary != "",
	}
	for _, a := range v.Artworks {
		row.Artworks = append(row.Artworks, a.Label())
	}
	return row
}

type bigqueryClient struct {
	client  *bigquery.Client
	dataset string
	table   string
}

// NewBigQuery creates an exporter writing to project.dataset.table.
func NewBigQuery(ctx context.Context, projectID, datasetID, tableID string) (Exporter, error) {
	if datasetID == "" || tableID == "" {
		return nil, goerr.New("dataset and table are required",
			goerr.V("dataset", datasetID),
			goerr.V("table", tableID))
	}

	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create BigQuery client")
	}

	return &bigqueryClient{
		client:  client,
		dataset: datasetID,
		table:   tableID,
	}, nil
}

func (bq *bigqueryClient) tableRef() *bigquery.Table {
	return bq.client.Dataset(bq.dataset).Table(bq.table)
}

func (bq *bigqueryClient) EnsureTable(ctx context.Context) error {
	tbl := bq.tableRef()

	if _, err := tbl.Metadata(ctx); err == nil {
		return nil
	} else if !isNotFound(err) {
		return goerr.Wrap(err, "failed to get table metadata", goerr.V("table", bq.table))
	}

	schema, err := bigquery.InferSchema(visitRow{})
	if err != nil {
		return goerr.Wrap(err, "failed to infer visit schema")
	}

	meta := &bigquery.TableMetadata{
		Schema: schema,
		TimePartitioning: &bigquery.TimePartitioning{
			Type:  bigquery.DayPartitioningType,
			Field: "ended_at",
		},
	}
	if err := tbl.Create(ctx, meta); err != nil {
		return goerr.Wrap(err, "failed to create visits table", goerr.V("table", bq.table))
	}
	return nil
}

func (bq *bigqueryClient) ExportVisit(ctx context.Context, visit *model.Visit) error {
	schema, err := bigquery.InferSchema(visitRow{})
	if err != nil {
		return goerr.Wrap(err, "failed to infer visit schema")
	}

	saver := &bigquery.StructSaver{
		Schema:   schema,
		InsertID: string(visit.ID),
		Struct:   newVisitRow(visit),
	}

	if err := bq.tableRef().Inserter().Put(ctx, saver); err != nil {
		return goerr.Wrap(err, "failed to insert visit row", goerr.V("visit_id", visit.ID))
	}
	return nil
}

func (bq *bigqueryClient) MuseumStats(ctx context.Context) ([]*MuseumStat, error) {
	q := bq.client.Query(
		"SELECT museum_id, ANY_VALUE(museum_name) AS museum_name, COUNT(*) AS visits, " +
			"SUM(artwork_count) AS artworks, AVG(duration_sec) AS avg_duration_sec " +
			"FROM `" + bq.client.Project() + "." + bq.dataset + "." + bq.table + "` " +
			"GROUP BY museum_id ORDER BY visits DESC")

	job, err := q.Run(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to run stats query")
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to wait for stats query")
	}
	if status.Err() != nil {
		return nil, goerr.Wrap(status.Err(), "stats query failed")
	}

	it, err := job.Read(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read stats result")
	}

	var stats []*MuseumStat
	for {
		var row MuseumStat
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate stats result")
		}
		stats = append(stats, &row)
	}

	return stats, nil
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
