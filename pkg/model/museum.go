package model

import (
	"sort"
)

// Museum is immutable reference data loaded from the museum directory.
type Museum struct {
	ID        string     `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	Latitude  float64    `json:"latitude" yaml:"latitude"`
	Longitude float64    `json:"longitude" yaml:"longitude"`
	Exhibits  []*Exhibit `json:"exhibits" yaml:"exhibits"`
}

// Exhibit is a named item of interest within a museum.
type Exhibit struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Location    string   `json:"location" yaml:"location"`
	Tags        []string `json:"tags" yaml:"tags"`
}

// HasAnyTag reports whether at least one of the exhibit's tags is in interests.
func (e *Exhibit) HasAnyTag(interests Interests) bool {
	for _, tag := range e.Tags {
		if interests.Contains(tag) {
			return true
		}
	}
	return false
}

// Interests is a set of interest tags supplied by the user.
type Interests map[string]struct{}

func NewInterests(tags ...string) Interests {
	s := make(Interests, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		s[t] = struct{}{}
	}
	return s
}

func (s Interests) Contains(tag string) bool {
	_, ok := s[tag]
	return ok
}

func (s Interests) IsEmpty() bool {
	return len(s) == 0
}

// Tags returns the interest tags in sorted order.
func (s Interests) Tags() []string {
	tags := make([]string, 0, len(s))
	for t := range s {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// Clone returns an independent copy of the set.
func (s Interests) Clone() Interests {
	c := make(Interests, len(s))
	for t := range s {
		c[t] = struct{}{}
	}
	return c
}
