package tool

import (
	"context"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
)

var errToolNotFound = goerr.New("tool not found")

// Registry manages available tools for the LLM
type Registry struct {
	allTools []Tool
	enabled  []Tool
	tools    map[string]Tool
}

// New creates a new tool registry with the given tools. Every tool is
// enabled until Init decides otherwise.
func New(tools ...Tool) *Registry {
	r := &Registry{
		allTools: tools,
	}
	r.register(tools)
	return r
}

func (r *Registry) register(tools []Tool) {
	r.enabled = tools
	r.tools = make(map[string]Tool)
	for _, t := range tools {
		spec := t.Spec()
		if spec == nil {
			continue
		}
		for _, fd := range spec.FunctionDeclarations {
			r.tools[fd.Name] = t
		}
	}
}

// Init initializes every tool and keeps only the enabled ones
func (r *Registry) Init(ctx context.Context, client *Client) error {
	enabled := make([]Tool, 0, len(r.allTools))
	for _, t := range r.allTools {
		ok, err := t.Init(ctx, client)
		if err != nil {
			return goerr.Wrap(err, "failed to initialize tool")
		}
		if ok {
			enabled = append(enabled, t)
		}
	}

	r.register(enabled)
	return nil
}

// Specs returns all tool specifications for Gemini function calling
func (r *Registry) Specs() []*genai.Tool {
	specs := make([]*genai.Tool, 0, len(r.enabled))
	for _, t := range r.enabled {
		if spec := t.Spec(); spec != nil && len(spec.FunctionDeclarations) > 0 {
			specs = append(specs, spec)
		}
	}
	return specs
}

// EnabledTools returns function names of enabled tools, sorted
func (r *Registry) EnabledTools() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Prompts returns all tool prompts concatenated
func (r *Registry) Prompts(ctx context.Context) string {
	var prompts []string
	for _, t := range r.enabled {
		if prompt := t.Prompt(ctx); prompt != "" {
			prompts = append(prompts, prompt)
		}
	}
	return strings.Join(prompts, "\n\n")
}

// Flags returns all tool flags combined
func (r *Registry) Flags() []cli.Flag {
	var flags []cli.Flag
	for _, t := range r.allTools {
		if toolFlags := t.Flags(); toolFlags != nil {
			flags = append(flags, toolFlags...)
		}
	}
	return flags
}

// Execute runs the tool with the given function call
func (r *Registry) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	if r == nil {
		return nil, goerr.Wrap(errToolNotFound, "no tools registered", goerr.V("name", fc.Name))
	}
	tool, ok := r.tools[fc.Name]
	if !ok {
		return nil, goerr.Wrap(errToolNotFound, "tool not found", goerr.V("name", fc.Name))
	}

	return tool.Execute(ctx, fc)
}
