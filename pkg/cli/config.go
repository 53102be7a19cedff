package cli

import (
	"context"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/museumguide/pkg/adapter"
	"github.com/m-mizutani/museumguide/pkg/directory"
	"github.com/m-mizutani/museumguide/pkg/model"
	"github.com/m-mizutani/museumguide/pkg/policy"
	"github.com/m-mizutani/museumguide/pkg/repository"
	"github.com/m-mizutani/museumguide/pkg/tracker"
	"github.com/m-mizutani/museumguide/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// config holds configuration values
type config struct {
	// Repository
	project  string
	database string

	// Gemini
	geminiProject  string
	geminiLocation string
	geminiAPIKey   string
	geminiModel    string

	// Archive
	bucket string
	prefix string

	// Export
	bqProject string
	bqDataset string
	bqTable   string

	// Logging
	logLevel  string
	logFormat string

	// Guide
	directoryFile string
	radius        float64
	language      string
}

// globalFlags returns flags every command shares
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID for Firestore. In-memory storage is used when empty",
			Sources:     cli.EnvVars("MUSEUMGUIDE_PROJECT", "GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("MUSEUMGUIDE_FIRESTORE_DATABASE"),
			Destination: &cfg.database,
		},
		&cli.StringFlag{
			Name:        "directory",
			Usage:       "Museum directory YAML file. The built-in directory is used when empty",
			Sources:     cli.EnvVars("MUSEUMGUIDE_DIRECTORY"),
			Destination: &cfg.directoryFile,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("MUSEUMGUIDE_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (console, json)",
			Value:       string(logging.FormatConsole),
			Sources:     cli.EnvVars("MUSEUMGUIDE_LOG_FORMAT"),
			Destination: &cfg.logFormat,
		},
	}
}

// llmFlags returns flags for Gemini
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini on Vertex AI",
			Sources:     cli.EnvVars("MUSEUMGUIDE_GEMINI_PROJECT"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("MUSEUMGUIDE_GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "gemini-api-key",
			Usage:       "Gemini Developer API key, used instead of Vertex AI when set",
			Sources:     cli.EnvVars("MUSEUMGUIDE_GEMINI_API_KEY", "GEMINI_API_KEY"),
			Destination: &cfg.geminiAPIKey,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini model name",
			Value:       "gemini-2.5-flash",
			Sources:     cli.EnvVars("MUSEUMGUIDE_GEMINI_MODEL"),
			Destination: &cfg.geminiModel,
		},
		&cli.StringFlag{
			Name:        "language",
			Aliases:     []string{"l"},
			Usage:       "Language of narration and answers",
			Value:       "English",
			Sources:     cli.EnvVars("MUSEUMGUIDE_LANGUAGE"),
			Destination: &cfg.language,
		},
	}
}

// storageFlags returns flags for the Cloud Storage archive
func storageFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "bucket",
			Usage:       "Cloud Storage bucket for narration scripts and chat transcripts",
			Sources:     cli.EnvVars("MUSEUMGUIDE_BUCKET"),
			Destination: &cfg.bucket,
		},
		&cli.StringFlag{
			Name:        "bucket-prefix",
			Usage:       "Object name prefix in the bucket",
			Sources:     cli.EnvVars("MUSEUMGUIDE_BUCKET_PREFIX"),
			Destination: &cfg.prefix,
		},
	}
}

// exportFlags returns flags for the BigQuery visit export
func exportFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "bigquery-project",
			Usage:       "Google Cloud project ID for BigQuery. Falls back to --project",
			Sources:     cli.EnvVars("MUSEUMGUIDE_BIGQUERY_PROJECT"),
			Destination: &cfg.bqProject,
		},
		&cli.StringFlag{
			Name:        "bigquery-dataset",
			Usage:       "BigQuery dataset for visit export. Export is disabled when empty",
			Sources:     cli.EnvVars("MUSEUMGUIDE_BIGQUERY_DATASET"),
			Destination: &cfg.bqDataset,
		},
		&cli.StringFlag{
			Name:        "bigquery-table",
			Usage:       "BigQuery table for visit export",
			Value:       "visits",
			Sources:     cli.EnvVars("MUSEUMGUIDE_BIGQUERY_TABLE"),
			Destination: &cfg.bqTable,
		},
	}
}

// trackerFlags returns flags for geofencing
func trackerFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.FloatFlag{
			Name:        "radius",
			Usage:       "Geofence radius around each museum in meters",
			Value:       tracker.DefaultRadius,
			Sources:     cli.EnvVars("MUSEUMGUIDE_RADIUS"),
			Destination: &cfg.radius,
		},
	}
}

// setupLogger installs the configured logger as default and into ctx
func (cfg *config) setupLogger(ctx context.Context) context.Context {
	logger := logging.NewWithFormat(cfg.logLevel, logging.Format(cfg.logFormat), os.Stderr)
	logging.SetDefault(logger)
	return logging.With(ctx, logger)
}

// newRepository returns Firestore when a project is configured, otherwise an
// in-memory repository that lives only for this process.
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, error) {
	if cfg.project == "" {
		logging.From(ctx).Debug("no project configured, using in-memory repository")
		return memoryRepo(), nil
	}

	repo, err := repository.New(cfg.project, cfg.database)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create repository")
	}
	return repo, nil
}

func (cfg *config) hasGemini() bool {
	return cfg.geminiAPIKey != "" || cfg.geminiProject != ""
}

// newGemini creates the Gemini adapter. Either an API key or a project is
// required.
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	if !cfg.hasGemini() {
		return nil, goerr.New("gemini-project or gemini-api-key is required")
	}
	if cfg.geminiAPIKey == "" && cfg.geminiLocation == "" {
		return nil, goerr.New("gemini-location is required")
	}

	var opts []adapter.GeminiOption
	if cfg.geminiModel != "" {
		opts = append(opts, adapter.WithGenerativeModel(cfg.geminiModel))
	}

	gemini, err := adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation, cfg.geminiAPIKey, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gemini client")
	}
	return gemini, nil
}

// newOptionalGemini returns nil when Gemini is not configured
func (cfg *config) newOptionalGemini(ctx context.Context) (adapter.Gemini, error) {
	if !cfg.hasGemini() {
		logging.From(ctx).Info("gemini is not configured, narration is disabled")
		return nil, nil
	}
	return cfg.newGemini(ctx)
}

// newStorage returns nil when no bucket is configured
func (cfg *config) newStorage(ctx context.Context) (adapter.Storage, error) {
	if cfg.bucket == "" {
		return nil, nil
	}

	storage, err := adapter.NewStorage(ctx, cfg.bucket, cfg.prefix)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage")
	}
	return storage, nil
}

// newExporter returns nil when no dataset is configured. The table is
// created on first use.
func (cfg *config) newExporter(ctx context.Context) (adapter.Exporter, error) {
	if cfg.bqDataset == "" {
		return nil, nil
	}

	project := cfg.bqProject
	if project == "" {
		project = cfg.project
	}
	if project == "" {
		return nil, goerr.New("bigquery-project or project is required for export")
	}

	exporter, err := adapter.NewBigQuery(ctx, project, cfg.bqDataset, cfg.bqTable)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create bigquery exporter")
	}
	if err := exporter.EnsureTable(ctx); err != nil {
		return nil, goerr.Wrap(err, "failed to prepare export table")
	}
	return exporter, nil
}

func (cfg *config) newDirectory() (*directory.Directory, error) {
	if cfg.directoryFile == "" {
		return directory.Default(), nil
	}

	dir, err := directory.LoadFile(cfg.directoryFile)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load museum directory", goerr.V("path", cfg.directoryFile))
	}
	return dir, nil
}

// newPolicy returns nil when no policy directory is given
func newPolicy(ctx context.Context, dir string) (*policy.Engine, error) {
	if dir == "" {
		return nil, nil
	}

	engine, err := policy.New(ctx, dir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load summary policy", goerr.V("dir", dir))
	}
	return engine, nil
}

// resolveInterests prefers explicit tags and falls back to saved preferences
func resolveInterests(ctx context.Context, repo repository.Repository, tags []string) (model.Interests, error) {
	if explicit := splitTags(tags); len(explicit) > 0 {
		return model.NewInterests(explicit...), nil
	}

	prefs, err := repo.GetPreferences(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load preferences")
	}
	return prefs.InterestSet(), nil
}

// now is replaced in tests
var now = time.Now
