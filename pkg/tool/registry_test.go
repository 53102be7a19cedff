package tool_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/museumguide/pkg/tool"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
)

type fakeTool struct {
	name    string
	enabled bool
	initErr error
	prompt  string
}

func (f *fakeTool) Spec() *genai.Tool {
	return &genai.Tool{FunctionDeclarations: []*genai.FunctionDeclaration{{Name: f.name}}}
}

func (f *fakeTool) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	return &genai.FunctionResponse{Name: fc.Name, Response: map[string]any{"result": f.name}}, nil
}

func (f *fakeTool) Prompt(ctx context.Context) string { return f.prompt }

func (f *fakeTool) Flags() []cli.Flag {
	return []cli.Flag{&cli.StringFlag{Name: f.name + "-key"}}
}

func (f *fakeTool) Init(ctx context.Context, client *tool.Client) (bool, error) {
	return f.enabled, f.initErr
}

func TestRegistryInitFiltersDisabled(t *testing.T) {
	ctx := context.Background()
	reg := tool.New(
		&fakeTool{name: "b_tool", enabled: true, prompt: "use b"},
		&fakeTool{name: "a_tool", enabled: false, prompt: "use a"},
		&fakeTool{name: "c_tool", enabled: true},
	)

	// flags are collected from every tool, enabled or not
	gt.A(t, reg.Flags()).Length(3)

	gt.NoError(t, reg.Init(ctx, &tool.Client{}))
	gt.Equal(t, reg.EnabledTools(), []string{"b_tool", "c_tool"})
	gt.A(t, reg.Specs()).Length(2)
	gt.Equal(t, reg.Prompts(ctx), "use b")

	resp, err := reg.Execute(ctx, genai.FunctionCall{Name: "c_tool"})
	gt.NoError(t, err)
	gt.Equal(t, resp.Response["result"], any("c_tool"))

	_, err = reg.Execute(ctx, genai.FunctionCall{Name: "a_tool"})
	gt.Error(t, err)
}

func TestRegistryInitError(t *testing.T) {
	reg := tool.New(&fakeTool{name: "broken", initErr: errors.New("boom")})
	gt.Error(t, reg.Init(context.Background(), &tool.Client{}))
}

func TestNilRegistryExecute(t *testing.T) {
	var reg *tool.Registry
	_, err := reg.Execute(context.Background(), genai.FunctionCall{Name: "anything"})
	gt.Error(t, err)
}
