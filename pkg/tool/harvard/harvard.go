// Package harvard looks up artwork records in the Harvard Art Museums API.
package harvard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/museumguide/pkg/tool"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const defaultBaseURL = "https://api.harvardartmuseums.org"

// ArtObject is the subset of an object record the guide uses.
type ArtObject struct {
	ID              int    `json:"id"`
	Title           string `json:"title"`
	Dated           string `json:"dated"`
	Medium          string `json:"medium"`
	Culture         string `json:"culture"`
	Provenance      string `json:"provenance"`
	Commentary      string `json:"commentary"`
	Description     string `json:"description"`
	PrimaryImageURL string `json:"primaryimageurl"`
	People          []struct {
		Name string `json:"name"`
		Role string `json:"role"`
	} `json:"people"`
}

type objectResponse struct {
	Info struct {
		TotalRecords int `json:"totalrecords"`
	} `json:"info"`
	Records []*ArtObject `json:"records"`
}

// VoiceReadyDescription joins description, commentary and provenance as
// plain text suitable for narration.
func (o *ArtObject) VoiceReadyDescription() string {
	var parts []string
	if o.Description != "" {
		parts = append(parts, o.Description)
	}
	if o.Commentary != "" {
		parts = append(parts, o.Commentary)
	}
	if o.Provenance != "" {
		parts = append(parts, "Provenance: "+o.Provenance)
	}

	text := CleanHTML(strings.Join(parts, " "))
	if text == "" {
		return "No additional details available."
	}
	return text
}

type lookupArtworkInput struct {
	Title string `json:"title"`
}

// Lookup is the lookup_artwork tool
type Lookup struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

type Option func(*Lookup)

// WithAPIKey sets the API key without going through CLI flags
func WithAPIKey(key string) Option {
	return func(x *Lookup) {
		x.apiKey = key
	}
}

// WithBaseURL points the tool at another API endpoint
func WithBaseURL(u string) Option {
	return func(x *Lookup) {
		x.baseURL = strings.TrimRight(u, "/")
	}
}

// New creates the Harvard Art Museums lookup tool
func New(opts ...Option) *Lookup {
	x := &Lookup{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		// the public API allows 2500 requests a day; keep bursts small
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 2),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

var _ tool.Tool = (*Lookup)(nil)

func (x *Lookup) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "harvard-api-key",
			Sources:     cli.EnvVars("MUSEUMGUIDE_HARVARD_API_KEY"),
			Usage:       "Harvard Art Museums API key",
			Destination: &x.apiKey,
		},
	}
}

func (x *Lookup) Init(ctx context.Context, client *tool.Client) (bool, error) {
	return x.apiKey != "", nil
}

func (x *Lookup) Prompt(ctx context.Context) string {
	return `When the visitor wants provenance, medium or curatorial commentary for a piece, use the lookup_artwork tool to query the Harvard Art Museums collection by title.`
}

func (x *Lookup) Spec() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "lookup_artwork",
				Description: "Look up the best matching artwork record in the Harvard Art Museums collection by title",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"title": {
							Type:        genai.TypeString,
							Description: "Artwork title to search for",
						},
					},
					Required: []string{"title"},
				},
			},
		},
	}
}

func (x *Lookup) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	paramsJSON, err := json.Marshal(fc.Args)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal function arguments")
	}

	var input lookupArtworkInput
	if err := json.Unmarshal(paramsJSON, &input); err != nil {
		return nil, goerr.Wrap(err, "failed to parse input parameters")
	}
	if input.Title == "" {
		return nil, goerr.New("title is required")
	}

	obj, err := x.FetchArtDetails(ctx, input.Title)
	if err != nil {
		return nil, err
	}

	return &genai.FunctionResponse{
		Name:     fc.Name,
		Response: map[string]any{"result": formatObject(input.Title, obj)},
	}, nil
}

// FetchArtDetails returns the best match for title, or nil when the
// collection has no match.
func (x *Lookup) FetchArtDetails(ctx context.Context, title string) (*ArtObject, error) {
	if err := x.limiter.Wait(ctx); err != nil {
		return nil, goerr.Wrap(err, "rate limiter wait canceled")
	}

	q := url.Values{}
	q.Set("apikey", x.apiKey)
	q.Set("title", title)
	q.Set("size", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, x.baseURL+"/object?"+q.Encode(), nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create request")
	}

	resp, err := x.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, goerr.New("Harvard Art Museums API returned error",
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(body)))
	}

	var result objectResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, goerr.Wrap(err, "failed to decode response")
	}

	if len(result.Records) == 0 {
		return nil, nil
	}
	return result.Records[0], nil
}

func formatObject(query string, obj *ArtObject) string {
	if obj == nil {
		return fmt.Sprintf("No record found for %q.", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", obj.Title)
	for _, p := range obj.People {
		fmt.Fprintf(&b, "%s: %s\n", p.Role, p.Name)
	}
	if obj.Dated != "" {
		fmt.Fprintf(&b, "Dated: %s\n", obj.Dated)
	}
	if obj.Medium != "" {
		fmt.Fprintf(&b, "Medium: %s\n", obj.Medium)
	}
	if obj.Culture != "" {
		fmt.Fprintf(&b, "Culture: %s\n", obj.Culture)
	}
	fmt.Fprintf(&b, "Details: %s\n", obj.VoiceReadyDescription())
	if obj.PrimaryImageURL != "" {
		fmt.Fprintf(&b, "Image: %s\n", obj.PrimaryImageURL)
	}
	return b.String()
}
