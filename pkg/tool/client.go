package tool

import (
	"github.com/m-mizutani/museumguide/pkg/adapter"
	"github.com/m-mizutani/museumguide/pkg/directory"
	"github.com/m-mizutani/museumguide/pkg/repository"
)

// Client contains shared resources that tools can use
type Client struct {
	Directory *directory.Directory
	Repo      repository.Repository
	Storage   adapter.Storage
	Exporter  adapter.Exporter
}
