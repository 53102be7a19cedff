package mcp_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/museumguide/pkg/service/mcp"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

type ticketParams struct {
	MuseumID string `json:"museum_id" jsonschema:"ID of the museum"`
	Adults   int    `json:"adults" jsonschema:"Number of adult tickets"`
}

func newTicketServer(t *testing.T) *httptest.Server {
	t.Helper()

	server := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "tickets",
		Version: "1.0.0",
	}, nil)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "ticket_price",
		Description: "Total admission price",
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest, params *ticketParams) (*mcpsdk.CallToolResult, any, error) {
		if params.Adults <= 0 {
			return &mcpsdk.CallToolResult{
				IsError: true,
				Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: "adults must be positive"}},
			}, nil, nil
		}
		return &mcpsdk.CallToolResult{
			Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: params.MuseumID + ": 30 USD"}},
		}, nil, nil
	})

	handler := mcpsdk.NewStreamableHTTPHandler(func(r *http.Request) *mcpsdk.Server {
		return server
	}, nil)

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts
}

func TestStdioTransport(t *testing.T) {
	ctx := context.Background()
	client := mcp.NewClient()

	gt.NoError(t, client.Connect(ctx, mcp.ServerConfig{
		Name:      "hours",
		Transport: mcp.TransportStdio,
		Command:   []string{"go", "run", "./testdata/stdio/main.go"},
	}))
	defer client.Close()

	gt.Equal(t, client.Servers(), []string{"hours"})

	tools, err := client.Tools("hours")
	gt.NoError(t, err)
	gt.A(t, tools).Length(1)
	gt.Equal(t, tools[0].Name, "opening_hours")

	result, err := client.CallTool(ctx, "hours", "opening_hours", map[string]any{
		"museum_id": "MoMA",
	})
	gt.NoError(t, err)
	gt.A(t, result.Content).Length(1)

	text, ok := result.Content[0].(*mcpsdk.TextContent)
	gt.True(t, ok)
	gt.Equal(t, text.Text, "MoMA is open 10:30-17:30")
}

func TestHTTPStreamableTransport(t *testing.T) {
	ctx := context.Background()
	ts := newTicketServer(t)

	client := mcp.NewClient()
	gt.NoError(t, client.Connect(ctx, mcp.ServerConfig{
		Name:      "tickets",
		Transport: mcp.TransportHTTP,
		URL:       ts.URL,
	}))
	defer client.Close()

	tools, err := client.Tools("tickets")
	gt.NoError(t, err)
	gt.A(t, tools).Length(1)
	gt.Equal(t, tools[0].Name, "ticket_price")

	result, err := client.CallTool(ctx, "tickets", "ticket_price", map[string]any{
		"museum_id": "Louvre",
		"adults":    2,
	})
	gt.NoError(t, err)
	text, ok := result.Content[0].(*mcpsdk.TextContent)
	gt.True(t, ok)
	gt.Equal(t, text.Text, "Louvre: 30 USD")
}

func TestConnectErrors(t *testing.T) {
	ctx := context.Background()
	client := mcp.NewClient()

	gt.Error(t, client.Connect(ctx, mcp.ServerConfig{Name: "x", Transport: "grpc"}))
	gt.Error(t, client.Connect(ctx, mcp.ServerConfig{Name: "x", Transport: mcp.TransportStdio}))
	gt.Error(t, client.Connect(ctx, mcp.ServerConfig{Name: "x", Transport: mcp.TransportHTTP}))
	gt.A(t, client.Servers()).Length(0)

	_, err := client.Tools("x")
	gt.Error(t, err)
	_, err = client.CallTool(ctx, "x", "anything", nil)
	gt.Error(t, err)
}

func TestDuplicateServer(t *testing.T) {
	ctx := context.Background()
	ts := newTicketServer(t)

	client := mcp.NewClient()
	cfg := mcp.ServerConfig{Name: "tickets", Transport: mcp.TransportHTTP, URL: ts.URL}
	gt.NoError(t, client.Connect(ctx, cfg))
	defer client.Close()

	gt.Error(t, client.Connect(ctx, cfg))
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mcp.yaml")
	gt.NoError(t, os.WriteFile(path, []byte(`servers:
  - name: hours
    transport: stdio
    command: ["go", "run", "./hours"]
    env:
      TZ: UTC
  - name: tickets
    transport: http
    url: http://localhost:8080/mcp
`), 0o600))

	cfg, err := mcp.LoadConfig(path)
	gt.NoError(t, err)
	gt.A(t, cfg.Servers).Length(2)
	gt.Equal(t, cfg.Servers[0].Command, []string{"go", "run", "./hours"})
	gt.Equal(t, cfg.Servers[0].Env["TZ"], "UTC")
	gt.Equal(t, cfg.Servers[1].URL, "http://localhost:8080/mcp")

	_, err = mcp.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	gt.Error(t, err)
}

func TestLoadAndConnect(t *testing.T) {
	ctx := context.Background()
	ts := newTicketServer(t)

	provider, err := mcp.LoadAndConnect(ctx, "")
	gt.NoError(t, err)
	gt.True(t, provider == nil)

	path := filepath.Join(t.TempDir(), "mcp.yaml")
	gt.NoError(t, os.WriteFile(path, []byte(`servers:
  - name: broken
    transport: http
  - name: tickets
    transport: http
    url: `+ts.URL+`
`), 0o600))

	provider, err = mcp.LoadAndConnect(ctx, path)
	gt.NoError(t, err)
	gt.V(t, provider).NotNil()
	defer provider.Close()
}
