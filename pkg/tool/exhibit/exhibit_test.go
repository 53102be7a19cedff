package exhibit_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/museumguide/pkg/tool"
	"github.com/m-mizutani/museumguide/pkg/tool/exhibit"
	"google.golang.org/genai"
)

func newRegistry(t *testing.T) *tool.Registry {
	t.Helper()
	reg := tool.New(exhibit.New())
	gt.NoError(t, reg.Init(context.Background(), &tool.Client{}))
	return reg
}

func TestListMuseums(t *testing.T) {
	reg := newRegistry(t)

	resp, err := reg.Execute(context.Background(), genai.FunctionCall{Name: "list_museums"})
	gt.NoError(t, err)

	result := resp.Response["result"].(string)
	gt.S(t, result).Contains("3 museum(s)")
	gt.S(t, result).Contains("MoMA: Museum of Modern Art")
}

func TestSearchExhibits(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()

	t.Run("matching tag", func(t *testing.T) {
		resp, err := reg.Execute(ctx, genai.FunctionCall{
			Name: "search_exhibits",
			Args: map[string]any{"museum_id": "MoMA", "tags": []any{"Surrealism"}},
		})
		gt.NoError(t, err)
		result := resp.Response["result"].(string)
		gt.S(t, result).Contains("Persistence of Memory")
		gt.S(t, result).NotContains("The Starry Night")
	})

	t.Run("no tags lists every exhibit", func(t *testing.T) {
		resp, err := reg.Execute(ctx, genai.FunctionCall{
			Name: "search_exhibits",
			Args: map[string]any{"museum_id": "Louvre"},
		})
		gt.NoError(t, err)
		result := resp.Response["result"].(string)
		gt.S(t, result).Contains("Mona Lisa")
		gt.S(t, result).Contains("Venus de Milo")
	})

	t.Run("unknown museum", func(t *testing.T) {
		_, err := reg.Execute(ctx, genai.FunctionCall{
			Name: "search_exhibits",
			Args: map[string]any{"museum_id": "Prado"},
		})
		gt.Error(t, err)
	})
}

func TestRegistryUnknownFunction(t *testing.T) {
	reg := newRegistry(t)
	_, err := reg.Execute(context.Background(), genai.FunctionCall{Name: "no_such_tool"})
	gt.Error(t, err)
	gt.A(t, reg.EnabledTools()).Length(2)
	gt.A(t, reg.Specs()).Length(1)
	gt.S(t, reg.Prompts(context.Background())).Contains("search_exhibits")
}
