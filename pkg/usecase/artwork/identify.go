package artwork

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"strings"
	"text/template"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/museumguide/pkg/adapter"
	"github.com/m-mizutani/museumguide/pkg/model"
	"google.golang.org/genai"
)

//go:embed prompt/identify.md
var identifyPromptRaw string

var identifyPromptTmpl = template.Must(template.New("identify").Parse(identifyPromptRaw))

var errNoGemini = goerr.New("gemini is not configured")

type identifyResult struct {
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Year        string `json:"year"`
	Description string `json:"description"`
	Context     string `json:"context"`
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// Identify asks Gemini to recognize the artwork in image.
func (u *UseCase) Identify(ctx context.Context, image []byte, mimeType string) (*model.Artwork, error) {
	if u.gemini == nil {
		return nil, errNoGemini
	}
	if len(image) == 0 {
		return nil, goerr.New("image is empty")
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	var buf bytes.Buffer
	if err := identifyPromptTmpl.Execute(&buf, map[string]any{
		"Language": u.language,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to render identify prompt")
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(buf.String()),
			genai.NewPartFromBytes(image, mimeType),
		}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	resp, err := u.gemini.GenerateContent(ctx, contents, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to identify artwork")
	}

	text, err := adapter.ResponseText(resp)
	if err != nil {
		return nil, err
	}

	return parseIdentifyResult(text, u.now())
}

func parseIdentifyResult(text string, now time.Time) (*model.Artwork, error) {
	raw := cleanJSONResponse(text)

	var result identifyResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, goerr.Wrap(err, "failed to parse artwork JSON", goerr.V("response", text))
	}

	return &model.Artwork{
		ID:          model.NewArtworkID(),
		Title:       orDefault(result.Title, "Unknown"),
		Artist:      orDefault(result.Artist, "Unknown"),
		Year:        orDefault(result.Year, "Unknown"),
		Description: orDefault(result.Description, "No description available."),
		Context:     orDefault(result.Context, "No context available."),
		ScannedAt:   now,
	}, nil
}

// cleanJSONResponse strips markdown fences and anything around the outermost
// JSON object.
func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")

	if start := strings.Index(s, "{"); start >= 0 {
		if end := strings.LastIndex(s, "}"); end > start {
			return s[start : end+1]
		}
	}
	return strings.TrimSpace(s)
}
