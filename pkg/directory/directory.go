// Package directory holds the static table of known museums.
package directory

import (
	"bytes"
	_ "embed"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/museumguide/pkg/geo"
	"github.com/m-mizutani/museumguide/pkg/model"
	"gopkg.in/yaml.v3"
)

//go:embed museums.yaml
var defaultDirectoryRaw []byte

var (
	defaultDirectory     *Directory
	defaultDirectoryOnce sync.Once
)

// Directory is an immutable lookup of museums keyed by ID.
type Directory struct {
	museums []*model.Museum
	byID    map[string]*model.Museum
}

type file struct {
	Museums []*model.Museum `yaml:"museums"`
}

// Default returns the directory compiled into the binary.
func Default() *Directory {
	defaultDirectoryOnce.Do(func() {
		d, err := Load(bytes.NewReader(defaultDirectoryRaw))
		if err != nil {
			panic("embedded museum directory is broken: " + err.Error())
		}
		defaultDirectory = d
	})
	return defaultDirectory
}

// LoadFile reads a YAML directory from path.
func LoadFile(path string) (*Directory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open directory file", goerr.V("path", path))
	}
	defer f.Close()

	d, err := Load(f)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load directory file", goerr.V("path", path))
	}
	return d, nil
}

// Load parses a YAML directory.
func Load(r io.Reader) (*Directory, error) {
	var f file
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, goerr.Wrap(err, "failed to decode directory")
	}
	return New(f.Museums...)
}

// New builds a directory from museums. Museums are validated and sorted by ID.
func New(museums ...*model.Museum) (*Directory, error) {
	d := &Directory{
		museums: make([]*model.Museum, 0, len(museums)),
		byID:    make(map[string]*model.Museum, len(museums)),
	}

	for _, m := range museums {
		if err := validate(m); err != nil {
			return nil, err
		}
		if _, exists := d.byID[m.ID]; exists {
			return nil, goerr.New("duplicated museum id", goerr.V("id", m.ID))
		}
		d.byID[m.ID] = m
		d.museums = append(d.museums, m)
	}

	sort.Slice(d.museums, func(i, j int) bool {
		return d.museums[i].ID < d.museums[j].ID
	})

	return d, nil
}

func validate(m *model.Museum) error {
	if m == nil {
		return goerr.New("museum is nil")
	}
	if m.ID == "" {
		return goerr.New("museum id is empty", goerr.V("name", m.Name))
	}
	if m.Name == "" {
		return goerr.New("museum name is empty", goerr.V("id", m.ID))
	}
	fix := model.Fix{Latitude: m.Latitude, Longitude: m.Longitude}
	if !fix.Valid() {
		return goerr.New("invalid museum coordinates",
			goerr.V("id", m.ID),
			goerr.V("latitude", m.Latitude),
			goerr.V("longitude", m.Longitude))
	}
	for _, e := range m.Exhibits {
		if e == nil || e.Name == "" {
			return goerr.New("exhibit name is empty", goerr.V("id", m.ID))
		}
	}
	return nil
}

// Museums returns all museums sorted by ID.
func (d *Directory) Museums() []*model.Museum {
	out := make([]*model.Museum, len(d.museums))
	copy(out, d.museums)
	return out
}

// Get returns the museum with the given ID.
func (d *Directory) Get(id string) (*model.Museum, error) {
	m, ok := d.byID[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrMuseumNotFound, "unknown museum", goerr.V("id", id))
	}
	return m, nil
}

// Nearest returns the closest museum strictly within radius meters of the
// point. Equal distances are resolved by the smaller ID.
func (d *Directory) Nearest(lat, lon, radius float64) (*model.Museum, float64, bool) {
	var (
		found    *model.Museum
		foundDst float64
	)

	// museums are sorted by ID, so strict comparison keeps the smaller ID on ties
	for _, m := range d.museums {
		dst := geo.Distance(lat, lon, m.Latitude, m.Longitude)
		if dst >= radius {
			continue
		}
		if found == nil || dst < foundDst {
			found = m
			foundDst = dst
		}
	}

	if found == nil {
		return nil, 0, false
	}
	return found, foundDst, true
}

// AvailableInterests returns every exhibit tag in the directory, sorted.
func (d *Directory) AvailableInterests() []string {
	seen := make(map[string]struct{})
	for _, m := range d.museums {
		for _, e := range m.Exhibits {
			for _, tag := range e.Tags {
				seen[tag] = struct{}{}
			}
		}
	}

	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
