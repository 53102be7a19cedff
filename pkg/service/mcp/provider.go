package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/museumguide/pkg/tool"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
)

// Provider exposes tools of connected MCP servers as one tool.Tool
type Provider struct {
	client *Client
	tools  map[string]*mcpTool
	order  []string
}

type mcpTool struct {
	serverName string
	name       string
	funcDecl   *genai.FunctionDeclaration
}

var _ tool.Tool = (*Provider)(nil)

func NewProvider(client *Client) *Provider {
	return &Provider{
		client: client,
		tools:  make(map[string]*mcpTool),
	}
}

// Flags returns nil; MCP servers come from the --mcp-config file
func (p *Provider) Flags() []cli.Flag {
	return nil
}

// Init converts every advertised MCP tool into a function declaration. A
// tool name already taken by an earlier server is skipped.
func (p *Provider) Init(ctx context.Context, client *tool.Client) (bool, error) {
	if p.client == nil {
		return false, nil
	}

	for _, serverName := range p.client.Servers() {
		tools, err := p.client.Tools(serverName)
		if err != nil {
			return false, goerr.Wrap(err, "failed to get tools from server", goerr.V("server", serverName))
		}

		for _, t := range tools {
			if _, dup := p.tools[t.Name]; dup {
				continue
			}

			funcDecl, err := toFunctionDeclaration(t)
			if err != nil {
				return false, goerr.Wrap(err, "failed to convert tool",
					goerr.V("server", serverName),
					goerr.V("tool", t.Name))
			}

			p.tools[t.Name] = &mcpTool{
				serverName: serverName,
				name:       t.Name,
				funcDecl:   funcDecl,
			}
			p.order = append(p.order, t.Name)
		}
	}

	return len(p.tools) > 0, nil
}

func toFunctionDeclaration(t *mcp.Tool) (*genai.FunctionDeclaration, error) {
	funcDecl := &genai.FunctionDeclaration{
		Name:        t.Name,
		Description: t.Description,
	}
	if t.InputSchema == nil {
		return funcDecl, nil
	}

	// InputSchema is untyped on the client side
	raw, err := json.Marshal(t.InputSchema)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal input schema")
	}

	var schema jsonschema.Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal input schema")
	}

	params, err := convertJSONSchemaToGenai(&schema)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to convert input schema")
	}
	funcDecl.Parameters = params

	return funcDecl, nil
}

func (p *Provider) Spec() *genai.Tool {
	if len(p.order) == 0 {
		return nil
	}

	funcDecls := make([]*genai.FunctionDeclaration, 0, len(p.order))
	for _, name := range p.order {
		funcDecls = append(funcDecls, p.tools[name].funcDecl)
	}

	return &genai.Tool{FunctionDeclarations: funcDecls}
}

func (p *Provider) Prompt(ctx context.Context) string {
	if len(p.order) == 0 {
		return ""
	}
	return "External MCP tools are also available (" + strings.Join(p.order, ", ") + "). Use them when they can answer the visitor better than your own knowledge."
}

// Execute calls the MCP tool and flattens its text content.
func (p *Provider) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	target, ok := p.tools[fc.Name]
	if !ok {
		return nil, goerr.New("tool not found", goerr.V("name", fc.Name))
	}

	result, err := p.client.CallTool(ctx, target.serverName, target.name, fc.Args)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to call MCP tool")
	}

	text, err := resultText(result)
	if err != nil {
		return nil, err
	}

	key := "result"
	if result.IsError {
		key = "error"
	}

	return &genai.FunctionResponse{
		Name:     fc.Name,
		Response: map[string]any{key: text},
	}, nil
}

// resultText joins text contents. Non-text contents are passed as JSON.
func resultText(result *mcp.CallToolResult) (string, error) {
	var parts []string
	for _, c := range result.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
			continue
		}
		raw, err := json.Marshal(c)
		if err != nil {
			return "", goerr.Wrap(err, "failed to marshal MCP content")
		}
		parts = append(parts, string(raw))
	}
	return strings.Join(parts, "\n"), nil
}

// Close closes the underlying MCP sessions.
func (p *Provider) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}
