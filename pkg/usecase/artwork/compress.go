package artwork

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/museumguide/pkg/adapter"
	"google.golang.org/genai"
)

// leading share of the transcript, by bytes, folded into a summary
const compressionRatio = 0.7

//go:embed prompt/summarize.md
var summarizePromptRaw string

var errNothingToCompress = goerr.New("insufficient content to compress")

// isTokenLimitError matches Gemini's "input token count exceeds" rejection.
func isTokenLimitError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	return apiErr.Code == 400 &&
		apiErr.Status == "INVALID_ARGUMENT" &&
		strings.HasPrefix(apiErr.Message, "The input token count (") &&
		strings.Contains(apiErr.Message, ") exceeds the maximum number of tokens allowed (")
}

func contentSize(content *genai.Content) int {
	data, err := json.Marshal(content)
	if err != nil {
		return 0
	}
	return len(data)
}

// compressHistory replaces the oldest part of contents with a summary.
func compressHistory(ctx context.Context, gemini adapter.Gemini, contents []*genai.Content) ([]*genai.Content, error) {
	if len(contents) == 0 {
		return nil, goerr.New("history is empty")
	}

	total := 0
	sizes := make([]int, len(contents))
	for i, c := range contents {
		sizes[i] = contentSize(c)
		total += sizes[i]
	}

	threshold := int(float64(total) * compressionRatio)
	cut := 0
	acc := 0
	for i, size := range sizes {
		acc += size
		if acc >= threshold {
			cut = i + 1
			break
		}
	}

	if cut == 0 || cut >= len(contents) {
		return nil, errNothingToCompress
	}

	summary, err := summarizeContents(ctx, gemini, contents[:cut])
	if err != nil {
		return nil, goerr.Wrap(err, "failed to summarize contents")
	}

	compressed := []*genai.Content{
		genai.NewContentFromText("=== Previous Conversation Summary ===\n\n"+summary, genai.RoleUser),
	}
	return append(compressed, contents[cut:]...), nil
}

func summarizeContents(ctx context.Context, gemini adapter.Gemini, contents []*genai.Content) (string, error) {
	req := make([]*genai.Content, 0, len(contents)+1)
	req = append(req, contents...)
	req = append(req, genai.NewContentFromText(summarizePromptRaw, genai.RoleUser))

	thinkingBudget := int32(0)
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText("You are an assistant summarizing a museum guide conversation.", ""),
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  &thinkingBudget,
		},
	}

	resp, err := gemini.GenerateContent(ctx, req, config)
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate summary")
	}

	return adapter.ResponseText(resp)
}
