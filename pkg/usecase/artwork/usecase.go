package artwork

import (
	"io"
	"os"
	"time"

	"github.com/m-mizutani/museumguide/pkg/adapter"
	"github.com/m-mizutani/museumguide/pkg/repository"
	"github.com/m-mizutani/museumguide/pkg/tool"
)

// UseCase provides artwork recognition, scan history and Q&A
type UseCase struct {
	repo     repository.Repository
	gemini   adapter.Gemini
	storage  adapter.Storage
	registry *tool.Registry
	language string
	output   io.Writer
	now      func() time.Time
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithStorage enables archiving chat transcripts
func WithStorage(storage adapter.Storage) Option {
	return func(uc *UseCase) {
		uc.storage = storage
	}
}

// WithRegistry sets tools available in chat sessions
func WithRegistry(registry *tool.Registry) Option {
	return func(uc *UseCase) {
		uc.registry = registry
	}
}

// WithLanguage sets the language of descriptions and answers
func WithLanguage(lang string) Option {
	return func(uc *UseCase) {
		if lang != "" {
			uc.language = lang
		}
	}
}

// WithOutput sets the output writer
func WithOutput(w io.Writer) Option {
	return func(uc *UseCase) {
		uc.output = w
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) {
		uc.now = now
	}
}

// New creates a new artwork UseCase instance
func New(repo repository.Repository, gemini adapter.Gemini, opts ...Option) *UseCase {
	uc := &UseCase{
		repo:     repo,
		gemini:   gemini,
		language: "English",
		output:   os.Stdout,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}
