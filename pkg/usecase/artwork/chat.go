package artwork

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/museumguide/pkg/adapter"
	"github.com/m-mizutani/museumguide/pkg/model"
	"github.com/m-mizutani/museumguide/pkg/utils/logging"
	"google.golang.org/genai"
)

//go:embed prompt/chat.md
var chatPromptRaw string

var chatPromptTmpl = template.Must(template.New("chat").Parse(chatPromptRaw))

const maxToolIterations = 16

// Session is a Q&A conversation about one artwork
type Session struct {
	uc        *UseCase
	id        string
	artwork   *model.Artwork
	system    string
	contents  []*genai.Content
	startedAt time.Time
}

// Transcript is what gets archived when a session closes
type Transcript struct {
	ID        string           `json:"id"`
	Artwork   *model.Artwork   `json:"artwork"`
	Contents  []*genai.Content `json:"contents"`
	StartedAt time.Time        `json:"started_at"`
	ClosedAt  time.Time        `json:"closed_at"`
}

// TranscriptKey is the storage key of a chat transcript.
func TranscriptKey(id string) string {
	return "chats/" + id + ".json"
}

// NewSession starts a conversation about artwork
func (u *UseCase) NewSession(ctx context.Context, artwork *model.Artwork) (*Session, error) {
	if u.gemini == nil {
		return nil, errNoGemini
	}
	if artwork == nil {
		return nil, goerr.New("artwork is nil")
	}

	toolPrompts := ""
	if u.registry != nil {
		toolPrompts = u.registry.Prompts(ctx)
	}

	var buf bytes.Buffer
	if err := chatPromptTmpl.Execute(&buf, map[string]any{
		"Artwork":     artwork,
		"Language":    u.language,
		"ToolPrompts": toolPrompts,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to render chat prompt")
	}

	return &Session{
		uc:        u,
		id:        uuid.New().String(),
		artwork:   artwork,
		system:    buf.String(),
		startedAt: u.now(),
	}, nil
}

// ID returns the session ID used for the archived transcript
func (s *Session) ID() string { return s.id }

// Ask sends a question and runs tool calls until the model answers in text.
func (s *Session) Ask(ctx context.Context, question string) (_ string, err error) {
	logger := logging.From(ctx)

	// a failed turn leaves the history as it was before the question
	prev := s.contents
	defer func() {
		if err != nil {
			s.contents = prev
		}
	}()
	s.contents = append(s.contents, genai.NewContentFromText(question, genai.RoleUser))

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(s.system, ""),
	}
	if s.uc.registry != nil {
		config.Tools = s.uc.registry.Specs()
	}

	compressed := false
	for i := 0; i < maxToolIterations; i++ {
		resp, genErr := s.uc.gemini.GenerateContent(ctx, s.contents, config)
		if genErr != nil {
			if isTokenLimitError(genErr) && !compressed {
				logger.Info("conversation too long, compressing history", "session", s.id)
				newContents, cerr := compressHistory(ctx, s.uc.gemini, s.contents)
				if cerr != nil {
					return "", goerr.Wrap(cerr, "failed to compress history")
				}
				s.contents = newContents
				compressed = true
				i--
				continue
			}
			return "", goerr.Wrap(genErr, "failed to generate answer")
		}

		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return "", goerr.New("empty response from gemini")
		}

		content := resp.Candidates[0].Content
		s.contents = append(s.contents, content)

		var (
			answer    strings.Builder
			responses []*genai.Part
		)
		for _, part := range content.Parts {
			if part.Thought {
				continue
			}
			if part.Text != "" {
				answer.WriteString(part.Text)
			}
			if part.FunctionCall != nil {
				responses = append(responses, &genai.Part{FunctionResponse: s.callTool(ctx, part.FunctionCall)})
			}
		}

		if len(responses) == 0 {
			return strings.TrimSpace(answer.String()), nil
		}

		s.contents = append(s.contents, &genai.Content{
			Role:  genai.RoleUser,
			Parts: responses,
		})
	}

	return "", goerr.New("tool call limit exceeded", goerr.V("limit", maxToolIterations))
}

func (s *Session) callTool(ctx context.Context, fc *genai.FunctionCall) *genai.FunctionResponse {
	fmt.Fprintf(s.uc.output, "🔧 %s\n", fc.Name)

	resp, err := s.uc.registry.Execute(ctx, *fc)
	if err != nil {
		logging.From(ctx).Warn("tool execution failed", "tool", fc.Name, "error", err)
		return &genai.FunctionResponse{
			ID:       fc.ID,
			Name:     fc.Name,
			Response: map[string]any{"error": err.Error()},
		}
	}
	resp.ID = fc.ID
	return resp
}

// Close archives the transcript when storage is configured. Empty sessions
// are not archived.
func (s *Session) Close(ctx context.Context) error {
	if s.uc.storage == nil || len(s.contents) == 0 {
		return nil
	}

	data, err := json.Marshal(&Transcript{
		ID:        s.id,
		Artwork:   s.artwork,
		Contents:  s.contents,
		StartedAt: s.startedAt,
		ClosedAt:  s.uc.now(),
	})
	if err != nil {
		return goerr.Wrap(err, "failed to marshal transcript")
	}

	key := TranscriptKey(s.id)
	if err := adapter.WriteObject(ctx, s.uc.storage, key, data); err != nil {
		return goerr.Wrap(err, "failed to archive transcript", goerr.V("session", s.id))
	}

	return nil
}
