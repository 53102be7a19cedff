// Package policy decides whether and how a finished visit gets a narrated
// summary. Rules are written in Rego under the "summary" package.
package policy

import (
	"context"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/museumguide/pkg/model"
	"github.com/m-mizutani/museumguide/pkg/utils/logging"
	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/open-policy-agent/opa/v1/topdown/print"
)

const summaryQuery = "data.summary"

// Input is the document exposed to policies as `input`.
type Input struct {
	Museum      InputMuseum    `json:"museum"`
	Artworks    []InputArtwork `json:"artworks"`
	Interests   []string       `json:"interests"`
	DurationSec int64          `json:"duration_sec"`
}

type InputMuseum struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type InputArtwork struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Year   string `json:"year,omitempty"`
}

// NewInput builds a policy input from a visit.
func NewInput(visit *model.Visit) *Input {
	in := &Input{
		Museum:      InputMuseum{ID: visit.MuseumID, Name: visit.MuseumName},
		Artworks:    make([]InputArtwork, 0, len(visit.Artworks)),
		Interests:   visit.Interests,
		DurationSec: int64(visit.Duration().Seconds()),
	}
	if in.Interests == nil {
		in.Interests = []string{}
	}
	for _, a := range visit.Artworks {
		in.Artworks = append(in.Artworks, InputArtwork{Title: a.Title, Artist: a.Artist, Year: a.Year})
	}
	return in
}

// Decision is the evaluated result of the summary policy.
type Decision struct {
	Generate bool   `json:"generate"`
	Style    string `json:"style"`
	Note     string `json:"note"`
}

// DefaultDecision is used when no policy is loaded or the policy leaves
// fields undefined.
func DefaultDecision() *Decision {
	return &Decision{Generate: true}
}

type printHook struct {
	ctx context.Context
}

func (h *printHook) Print(_ print.Context, message string) error {
	logging.From(h.ctx).Debug("rego print", "message", message)
	return nil
}

// Engine evaluates summary policies.
type Engine struct {
	query *rego.PreparedEvalQuery
}

// New loads policies from policyDir. A missing directory argument or a
// directory without .rego files produces an engine returning the default
// decision.
func New(ctx context.Context, policyDir string) (*Engine, error) {
	modules, err := loadModules(policyDir)
	if err != nil {
		return nil, err
	}
	if len(modules) == 0 {
		return &Engine{}, nil
	}

	query, err := prepareQuery(ctx, modules, summaryQuery)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to prepare summary policy", goerr.V("dir", policyDir))
	}

	return &Engine{query: query}, nil
}

// Enabled reports whether any policy is loaded.
func (e *Engine) Enabled() bool {
	return e != nil && e.query != nil
}

// Evaluate runs the summary policy against input.
func (e *Engine) Evaluate(ctx context.Context, input *Input) (*Decision, error) {
	if !e.Enabled() {
		return DefaultDecision(), nil
	}

	rs, err := e.query.Eval(ctx, rego.EvalInput(input), rego.EvalPrintHook(&printHook{ctx: ctx}))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to evaluate summary policy")
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return DefaultDecision(), nil
	}

	raw, err := json.Marshal(rs[0].Expressions[0].Value)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal policy result")
	}

	var result struct {
		Generate *bool  `json:"generate"`
		Style    string `json:"style"`
		Note     string `json:"note"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, goerr.Wrap(err, "failed to decode policy result", goerr.V("raw", string(raw)))
	}

	decision := DefaultDecision()
	if result.Generate != nil {
		decision.Generate = *result.Generate
	}
	decision.Style = result.Style
	decision.Note = result.Note

	return decision, nil
}
