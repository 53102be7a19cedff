package visit

import (
	"bytes"
	"context"
	_ "embed"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/museumguide/pkg/adapter"
	"github.com/m-mizutani/museumguide/pkg/model"
	"github.com/m-mizutani/museumguide/pkg/policy"
	"github.com/m-mizutani/museumguide/pkg/tracker"
	"github.com/m-mizutani/museumguide/pkg/utils/logging"
	"google.golang.org/genai"
)

//go:embed prompt/summary.md
var summaryPromptRaw string

var summaryPromptTmpl = template.Must(template.New("summary").Parse(summaryPromptRaw))

// SummaryKey is the storage key of a visit's narration script.
func SummaryKey(id model.VisitID) string {
	return "visits/" + string(id) + "/summary.txt"
}

// NewVisit converts a tracker event into a visit record.
func NewVisit(ev *tracker.VisitEnded, interests []string) *model.Visit {
	visit := &model.Visit{
		ID:        model.NewVisitID(),
		Artworks:  ev.Artworks,
		Interests: interests,
		StartedAt: ev.StartedAt,
		EndedAt:   ev.EndedAt,
	}
	if ev.Museum != nil {
		visit.MuseumID = ev.Museum.ID
		visit.MuseumName = ev.Museum.Name
	}
	if visit.Interests == nil {
		visit.Interests = []string{}
	}
	return visit
}

// Process handles one finished visit: policy check, narration, archive,
// persistence and analytics export. Narration, archive and export failures
// are logged and do not fail the visit.
func (u *UseCase) Process(ctx context.Context, ev *tracker.VisitEnded, interests []string) (*model.Visit, error) {
	logger := logging.From(ctx)
	visit := NewVisit(ev, interests)

	decision, err := u.policy.Evaluate(ctx, policy.NewInput(visit))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to evaluate summary policy", goerr.V("visit_id", visit.ID))
	}

	if decision.Generate && u.gemini != nil {
		summary, err := u.summarize(ctx, visit, decision)
		if err != nil {
			logger.Warn("failed to generate visit summary", "error", err, "visit_id", visit.ID)
		} else {
			visit.Summary = summary
		}
	} else if !decision.Generate {
		logger.Info("summary skipped by policy", "visit_id", visit.ID, "museum", visit.MuseumID)
	}

	if visit.Summary != "" && u.storage != nil {
		key := SummaryKey(visit.ID)
		if err := adapter.WriteObject(ctx, u.storage, key, []byte(visit.Summary)); err != nil {
			logger.Warn("failed to archive visit summary", "error", err, "key", key)
		} else {
			visit.SummaryKey = key
		}
	}

	if err := u.repo.PutVisit(ctx, visit); err != nil {
		return nil, goerr.Wrap(err, "failed to save visit", goerr.V("visit_id", visit.ID))
	}

	for _, a := range visit.Artworks {
		if _, err := u.repo.PutArtwork(ctx, a); err != nil {
			return nil, goerr.Wrap(err, "failed to save artwork history", goerr.V("title", a.Title))
		}
	}

	if u.exporter != nil {
		if err := u.exporter.ExportVisit(ctx, visit); err != nil {
			logger.Warn("failed to export visit", "error", err, "visit_id", visit.ID)
		}
	}

	return visit, nil
}

func (u *UseCase) summarize(ctx context.Context, visit *model.Visit, decision *policy.Decision) (string, error) {
	labels := make([]string, 0, len(visit.Artworks))
	for _, a := range visit.Artworks {
		labels = append(labels, a.Label())
	}

	museum := visit.MuseumName
	if museum == "" {
		museum = "the museum"
	}

	var buf bytes.Buffer
	if err := summaryPromptTmpl.Execute(&buf, map[string]any{
		"Museum":    museum,
		"Artworks":  strings.Join(labels, ", "),
		"Interests": strings.Join(visit.Interests, ", "),
		"Language":  u.language,
		"Style":     decision.Style,
		"Note":      decision.Note,
	}); err != nil {
		return "", goerr.Wrap(err, "failed to render summary prompt")
	}

	contents := []*genai.Content{
		genai.NewContentFromText(buf.String(), genai.RoleUser),
	}

	resp, err := u.gemini.GenerateContent(ctx, contents, &genai.GenerateContentConfig{})
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate summary")
	}

	text, err := adapter.ResponseText(resp)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(text), nil
}
