// Package history lets the LLM look at artworks the visitor already scanned.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/museumguide/pkg/model"
	"github.com/m-mizutani/museumguide/pkg/repository"
	"github.com/m-mizutani/museumguide/pkg/tool"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

type listArtworksInput struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type historyTool struct {
	repo repository.Repository
}

// New creates the artwork history tool. It is enabled only when a repository
// is available.
func New() tool.Tool {
	return &historyTool{}
}

func (x *historyTool) Flags() []cli.Flag { return nil }

func (x *historyTool) Init(ctx context.Context, client *tool.Client) (bool, error) {
	if client == nil || client.Repo == nil {
		return false, nil
	}
	x.repo = client.Repo
	return true, nil
}

func (x *historyTool) Prompt(ctx context.Context) string {
	return "The visitor's previously scanned artworks are available through list_artwork_history. Use it to connect the current piece with what they have already seen."
}

func (x *historyTool) Spec() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "list_artwork_history",
				Description: "List artworks the visitor scanned before, newest first",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"limit": {
							Type:        genai.TypeInteger,
							Description: "Max results (default: 20, max: 100)",
						},
						"offset": {
							Type:        genai.TypeInteger,
							Description: "Skip count for pagination (default: 0)",
						},
					},
				},
			},
		},
	}
}

func (x *historyTool) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	paramsJSON, err := json.Marshal(fc.Args)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal function arguments")
	}

	var input listArtworksInput
	if err := json.Unmarshal(paramsJSON, &input); err != nil {
		return nil, goerr.Wrap(err, "failed to parse input parameters")
	}
	if input.Limit <= 0 {
		input.Limit = defaultLimit
	}
	if input.Limit > maxLimit {
		input.Limit = maxLimit
	}
	if input.Offset < 0 {
		input.Offset = 0
	}

	artworks, err := x.repo.ListArtworks(ctx, input.Offset, input.Limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list artwork history")
	}

	return &genai.FunctionResponse{
		Name:     fc.Name,
		Response: map[string]any{"result": formatResult(artworks)},
	}, nil
}

func formatResult(artworks []*model.Artwork) string {
	if len(artworks) == 0 {
		return "No artworks scanned yet."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d artwork(s):\n\n", len(artworks))
	for i, a := range artworks {
		fmt.Fprintf(&b, "%d. %s", i+1, a.Label())
		if a.Year != "" {
			fmt.Fprintf(&b, " (%s)", a.Year)
		}
		b.WriteString("\n")
		if !a.ScannedAt.IsZero() {
			fmt.Fprintf(&b, "   Scanned: %s\n", a.ScannedAt.Format("2006-01-02 15:04"))
		}
	}
	return b.String()
}
