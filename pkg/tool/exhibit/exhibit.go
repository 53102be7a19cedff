// Package exhibit exposes the museum directory to the LLM.
package exhibit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/museumguide/pkg/directory"
	"github.com/m-mizutani/museumguide/pkg/model"
	"github.com/m-mizutani/museumguide/pkg/recommend"
	"github.com/m-mizutani/museumguide/pkg/tool"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
)

const (
	funcListMuseums    = "list_museums"
	funcSearchExhibits = "search_exhibits"
)

type searchExhibitsInput struct {
	MuseumID string   `json:"museum_id"`
	Tags     []string `json:"tags"`
}

type exhibitTool struct {
	dir *directory.Directory
}

// New creates the exhibit tool
func New() tool.Tool {
	return &exhibitTool{}
}

func (x *exhibitTool) Flags() []cli.Flag {
	return nil
}

func (x *exhibitTool) Init(ctx context.Context, client *tool.Client) (bool, error) {
	if client != nil && client.Directory != nil {
		x.dir = client.Directory
	} else {
		x.dir = directory.Default()
	}
	return true, nil
}

func (x *exhibitTool) Prompt(ctx context.Context) string {
	return "To answer where something is on display, use list_museums to find museum IDs and search_exhibits to look up exhibits and their locations."
}

func (x *exhibitTool) Spec() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        funcListMuseums,
				Description: "List museums known to the guide with their IDs and coordinates",
				Parameters: &genai.Schema{
					Type:       genai.TypeObject,
					Properties: map[string]*genai.Schema{},
				},
			},
			{
				Name:        funcSearchExhibits,
				Description: "List exhibits of a museum. When tags are given, exhibits matching any tag are returned; if none match, every exhibit is returned.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"museum_id": {
							Type:        genai.TypeString,
							Description: "Museum ID from list_museums",
						},
						"tags": {
							Type:        genai.TypeArray,
							Description: "Interest tags such as Impressionism or Sculpture",
							Items:       &genai.Schema{Type: genai.TypeString},
						},
					},
					Required: []string{"museum_id"},
				},
			},
		},
	}
}

func (x *exhibitTool) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	if x.dir == nil {
		x.dir = directory.Default()
	}

	var result string
	switch fc.Name {
	case funcListMuseums:
		result = formatMuseums(x.dir.Museums())

	case funcSearchExhibits:
		paramsJSON, err := json.Marshal(fc.Args)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to marshal function arguments")
		}

		var input searchExhibitsInput
		if err := json.Unmarshal(paramsJSON, &input); err != nil {
			return nil, goerr.Wrap(err, "failed to parse input parameters")
		}

		museum, err := x.dir.Get(input.MuseumID)
		if err != nil {
			return nil, err
		}

		interests := model.NewInterests(input.Tags...)
		result = formatExhibits(museum, interests, recommend.Recommend(museum, interests))

	default:
		return nil, goerr.New("unknown function", goerr.V("name", fc.Name))
	}

	return &genai.FunctionResponse{
		Name:     fc.Name,
		Response: map[string]any{"result": result},
	}, nil
}

func formatMuseums(museums []*model.Museum) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d museum(s):\n", len(museums))
	for _, m := range museums {
		fmt.Fprintf(&b, "- %s: %s (%.4f, %.4f), %d exhibit(s)\n", m.ID, m.Name, m.Latitude, m.Longitude, len(m.Exhibits))
	}
	return b.String()
}

func formatExhibits(museum *model.Museum, interests model.Interests, exhibits []*model.Exhibit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Exhibits at %s", museum.Name)
	if !interests.IsEmpty() {
		fmt.Fprintf(&b, " for %s", strings.Join(interests.Tags(), ", "))
	}
	b.WriteString(":\n")

	for _, ex := range exhibits {
		fmt.Fprintf(&b, "- %s @ %s [%s]\n  %s\n", ex.Name, ex.Location, strings.Join(ex.Tags, ", "), ex.Description)
	}
	return b.String()
}
