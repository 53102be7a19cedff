package main

import (
	"context"
	"log"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type hoursParams struct {
	MuseumID string `json:"museum_id" jsonschema:"ID of the museum"`
}

var hours = map[string]string{
	"The Met": "10:00-17:00",
	"MoMA":    "10:30-17:30",
	"Louvre":  "09:00-18:00",
}

func openingHours(ctx context.Context, req *mcp.CallToolRequest, params *hoursParams) (*mcp.CallToolResult, any, error) {
	h, ok := hours[params.MuseumID]
	if !ok {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: "unknown museum: " + params.MuseumID}},
		}, nil, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: params.MuseumID + " is open " + h}},
	}, nil, nil
}

func main() {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "museum-hours",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "opening_hours",
		Description: "Opening hours of a museum",
	}, openingHours)

	if err := server.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
