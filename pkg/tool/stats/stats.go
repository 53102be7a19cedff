// Package stats answers questions about past visits from the BigQuery export.
package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/museumguide/pkg/adapter"
	"github.com/m-mizutani/museumguide/pkg/tool"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
)

type visitStatsInput struct {
	MuseumID string `json:"museum_id"`
}

type statsTool struct {
	exporter adapter.Exporter
}

func New() tool.Tool {
	return &statsTool{}
}

func (x *statsTool) Flags() []cli.Flag { return nil }

// Init enables the tool only when visits are exported.
func (x *statsTool) Init(ctx context.Context, client *tool.Client) (bool, error) {
	if client == nil || client.Exporter == nil {
		return false, nil
	}
	x.exporter = client.Exporter
	return true, nil
}

func (x *statsTool) Prompt(ctx context.Context) string {
	return "Aggregated statistics of the visitor's past museum visits (count, artworks seen, average duration) are available through museum_visit_stats."
}

func (x *statsTool) Spec() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "museum_visit_stats",
				Description: "Per-museum statistics of the visitor's finished visits",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"museum_id": {
							Type:        genai.TypeString,
							Description: "Only return this museum. All museums when omitted",
						},
					},
				},
			},
		},
	}
}

func (x *statsTool) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	paramsJSON, err := json.Marshal(fc.Args)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal function arguments")
	}

	var input visitStatsInput
	if err := json.Unmarshal(paramsJSON, &input); err != nil {
		return nil, goerr.Wrap(err, "failed to parse input parameters")
	}

	stats, err := x.exporter.MuseumStats(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to aggregate visits")
	}

	var (
		b     strings.Builder
		count int
	)
	for _, s := range stats {
		if input.MuseumID != "" && s.MuseumID != input.MuseumID {
			continue
		}
		count++
		avg := time.Duration(s.AvgDuration * float64(time.Second)).Round(time.Minute)
		fmt.Fprintf(&b, "- %s (%s): %d visit(s), %d artwork(s) seen, average stay %s\n",
			s.MuseumName, s.MuseumID, s.Visits, s.Artworks, avg)
	}

	result := "No visits recorded yet."
	if count > 0 {
		result = b.String()
	}

	return &genai.FunctionResponse{
		Name:     fc.Name,
		Response: map[string]any{"result": result},
	}, nil
}
