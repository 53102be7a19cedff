package visit

import (
	"io"
	"os"

	"github.com/m-mizutani/museumguide/pkg/adapter"
	"github.com/m-mizutani/museumguide/pkg/directory"
	"github.com/m-mizutani/museumguide/pkg/policy"
	"github.com/m-mizutani/museumguide/pkg/repository"
	"github.com/m-mizutani/museumguide/pkg/tracker"
)

// UseCase turns finished visits into narrated, persisted records
type UseCase struct {
	repo     repository.Repository
	gemini   adapter.Gemini
	storage  adapter.Storage
	exporter adapter.Exporter
	policy   *policy.Engine

	dir      *directory.Directory
	radius   float64
	workers  int
	language string
	output   io.Writer
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithGemini enables summary generation
func WithGemini(gemini adapter.Gemini) Option {
	return func(uc *UseCase) {
		uc.gemini = gemini
	}
}

// WithStorage enables archiving summary scripts
func WithStorage(storage adapter.Storage) Option {
	return func(uc *UseCase) {
		uc.storage = storage
	}
}

// WithExporter enables analytics export
func WithExporter(exporter adapter.Exporter) Option {
	return func(uc *UseCase) {
		uc.exporter = exporter
	}
}

// WithPolicy sets the summary policy engine
func WithPolicy(engine *policy.Engine) Option {
	return func(uc *UseCase) {
		uc.policy = engine
	}
}

// WithDirectory replaces the built-in museum directory
func WithDirectory(dir *directory.Directory) Option {
	return func(uc *UseCase) {
		uc.dir = dir
	}
}

// WithRadius sets the geofence radius in meters
func WithRadius(meters float64) Option {
	return func(uc *UseCase) {
		uc.radius = meters
	}
}

// WithWorkers sets how many visits are processed in parallel
func WithWorkers(n int) Option {
	return func(uc *UseCase) {
		if n > 0 {
			uc.workers = n
		}
	}
}

// WithLanguage sets the narration language
func WithLanguage(lang string) Option {
	return func(uc *UseCase) {
		uc.language = lang
	}
}

// WithOutput sets the output writer
func WithOutput(w io.Writer) Option {
	return func(uc *UseCase) {
		uc.output = w
	}
}

// New creates a new visit UseCase instance
func New(repo repository.Repository, opts ...Option) *UseCase {
	uc := &UseCase{
		repo:     repo,
		dir:      directory.Default(),
		radius:   tracker.DefaultRadius,
		workers:  2,
		language: "English",
		output:   os.Stdout,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}
