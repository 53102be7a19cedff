package artwork_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/museumguide/pkg/model"
	"github.com/m-mizutani/museumguide/pkg/repository"
	"github.com/m-mizutani/museumguide/pkg/tool"
	"github.com/m-mizutani/museumguide/pkg/tool/exhibit"
	"github.com/m-mizutani/museumguide/pkg/usecase/artwork"
	"github.com/m-mizutani/museumguide/pkg/utils/logging"
	"google.golang.org/genai"
)

type mockGemini struct {
	calls        int
	generateFunc func(call int, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

func (m *mockGemini) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.calls++
	if m.generateFunc != nil {
		return m.generateFunc(m.calls, contents, config)
	}
	return nil, errors.New("not implemented")
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: genai.NewContentFromText(text, genai.RoleModel)},
		},
	}
}

type mockStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

type objectWriter struct {
	bytes.Buffer
	key string
	st  *mockStorage
}

func (w *objectWriter) Close() error {
	w.st.mu.Lock()
	defer w.st.mu.Unlock()
	w.st.objects[w.key] = w.Bytes()
	return nil
}

func (s *mockStorage) Put(ctx context.Context, key string) (io.WriteCloser, error) {
	return &objectWriter{key: key, st: s}, nil
}

func (s *mockStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

var fixedNow = time.Date(2025, 7, 14, 15, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func testContext() context.Context {
	return logging.With(context.Background(), logging.Discard())
}

func TestIdentify(t *testing.T) {
	ctx := testContext()

	t.Run("parses fenced JSON", func(t *testing.T) {
		var gotConfig *genai.GenerateContentConfig
		var gotParts []*genai.Part
		gemini := &mockGemini{generateFunc: func(_ int, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			gotConfig = config
			gotParts = contents[0].Parts
			return textResponse("```json\n{\"title\":\"Water Lilies\",\"artist\":\"Claude Monet\",\"year\":\"1906\",\"description\":\"Pond.\",\"context\":\"Giverny.\"}\n```"), nil
		}}

		uc := artwork.New(repository.NewMemory(), gemini, artwork.WithClock(clock), artwork.WithLanguage("Japanese"))
		a, err := uc.Identify(ctx, []byte{0xff, 0xd8, 0xff}, "image/jpeg")
		gt.NoError(t, err)
		gt.Equal(t, a.Title, "Water Lilies")
		gt.Equal(t, a.Artist, "Claude Monet")
		gt.Equal(t, a.Year, "1906")
		gt.Equal(t, a.Context, "Giverny.")
		gt.Equal(t, a.ScannedAt, fixedNow)
		gt.NotEqual(t, a.ID, model.ArtworkID(""))

		gt.Equal(t, gotConfig.ResponseMIMEType, "application/json")
		gt.A(t, gotParts).Length(2)
		gt.S(t, gotParts[0].Text).Contains("in Japanese")
		gt.NotNil(t, gotParts[1].InlineData)
		gt.Equal(t, gotParts[1].InlineData.MIMEType, "image/jpeg")
	})

	t.Run("missing fields get defaults", func(t *testing.T) {
		gemini := &mockGemini{generateFunc: func(int, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return textResponse(`{"title":"A chair"}`), nil
		}}
		uc := artwork.New(repository.NewMemory(), gemini)
		a, err := uc.Identify(ctx, []byte("img"), "")
		gt.NoError(t, err)
		gt.Equal(t, a.Title, "A chair")
		gt.Equal(t, a.Artist, "Unknown")
		gt.Equal(t, a.Year, "Unknown")
		gt.Equal(t, a.Description, "No description available.")
		gt.Equal(t, a.Context, "No context available.")
	})

	t.Run("invalid JSON", func(t *testing.T) {
		gemini := &mockGemini{generateFunc: func(int, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return textResponse("I cannot tell what this is."), nil
		}}
		uc := artwork.New(repository.NewMemory(), gemini)
		_, err := uc.Identify(ctx, []byte("img"), "image/png")
		gt.Error(t, err)
	})

	t.Run("empty image", func(t *testing.T) {
		uc := artwork.New(repository.NewMemory(), &mockGemini{})
		_, err := uc.Identify(ctx, nil, "image/png")
		gt.Error(t, err)
	})

	t.Run("no gemini", func(t *testing.T) {
		uc := artwork.New(repository.NewMemory(), nil)
		_, err := uc.Identify(ctx, []byte("img"), "image/png")
		gt.Error(t, err)
	})
}

func TestCleanJSONResponse(t *testing.T) {
	gt.Equal(t, artwork.CleanJSONResponse("```json\n{\"a\":1}\n```"), `{"a":1}`)
	gt.Equal(t, artwork.CleanJSONResponse(`Here you go: {"a":{"b":2}} enjoy`), `{"a":{"b":2}}`)
	gt.Equal(t, artwork.CleanJSONResponse("  no json  "), "no json")
}

func TestHistory(t *testing.T) {
	ctx := testContext()
	uc := artwork.New(repository.NewMemory(), nil, artwork.WithClock(clock))

	ok, err := uc.Record(ctx, &model.Artwork{Title: "Venus de Milo", Artist: "Alexandros of Antioch"})
	gt.NoError(t, err)
	gt.True(t, ok)

	ok, err = uc.Record(ctx, &model.Artwork{Title: "VENUS DE MILO", Artist: "alexandros of antioch"})
	gt.NoError(t, err)
	gt.False(t, ok)

	list, err := uc.History(ctx, 0, 10)
	gt.NoError(t, err)
	gt.A(t, list).Length(1)
	gt.Equal(t, list[0].ScannedAt, fixedNow)

	gt.NoError(t, uc.ClearHistory(ctx))
	list, err = uc.History(ctx, 0, 10)
	gt.NoError(t, err)
	gt.A(t, list).Length(0)

	_, err = uc.Record(ctx, nil)
	gt.Error(t, err)
}

func TestChatWithToolCall(t *testing.T) {
	ctx := testContext()

	registry := tool.New(exhibit.New())
	gt.NoError(t, registry.Init(ctx, &tool.Client{}))

	var systemPrompt string
	gemini := &mockGemini{generateFunc: func(call int, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		systemPrompt = config.SystemInstruction.Parts[0].Text
		gt.A(t, config.Tools).Length(1)

		switch call {
		case 1:
			return &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{
					Content: &genai.Content{
						Role: genai.RoleModel,
						Parts: []*genai.Part{{FunctionCall: &genai.FunctionCall{
							ID:   "call-1",
							Name: "search_exhibits",
							Args: map[string]any{"museum_id": "Louvre", "tags": []any{"Sculpture"}},
						}}},
					},
				}},
			}, nil
		default:
			last := contents[len(contents)-1]
			gt.NotNil(t, last.Parts[0].FunctionResponse)
			gt.Equal(t, last.Parts[0].FunctionResponse.ID, "call-1")
			gt.S(t, last.Parts[0].FunctionResponse.Response["result"].(string)).Contains("Venus de Milo")
			return textResponse("The Venus de Milo is in the Sully Wing."), nil
		}
	}}

	storage := &mockStorage{objects: map[string][]byte{}}
	var out bytes.Buffer
	uc := artwork.New(repository.NewMemory(), gemini,
		artwork.WithRegistry(registry),
		artwork.WithStorage(storage),
		artwork.WithOutput(&out),
		artwork.WithClock(clock),
	)

	session, err := uc.NewSession(ctx, &model.Artwork{
		Title:       "Mona Lisa",
		Artist:      "Leonardo da Vinci",
		Description: "Portrait of Lisa Gherardini.",
	})
	gt.NoError(t, err)

	answer, err := session.Ask(ctx, "Where can I see more sculpture here?")
	gt.NoError(t, err)
	gt.Equal(t, answer, "The Venus de Milo is in the Sully Wing.")
	gt.Equal(t, gemini.calls, 2)
	gt.S(t, out.String()).Contains("search_exhibits")
	gt.S(t, systemPrompt).Contains("Title: Mona Lisa")
	gt.S(t, systemPrompt).Contains("search_exhibits")

	gt.NoError(t, session.Close(ctx))
	data, ok := storage.objects[artwork.TranscriptKey(session.ID())]
	gt.True(t, ok)

	var transcript artwork.Transcript
	gt.NoError(t, json.Unmarshal(data, &transcript))
	gt.Equal(t, transcript.Artwork.Title, "Mona Lisa")
	gt.A(t, transcript.Contents).Length(4)
}

func TestChatToolLoopLimit(t *testing.T) {
	ctx := testContext()
	gemini := &mockGemini{generateFunc: func(int, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		return &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{
					Role:  genai.RoleModel,
					Parts: []*genai.Part{{FunctionCall: &genai.FunctionCall{Name: "list_museums"}}},
				},
			}},
		}, nil
	}}

	registry := tool.New(exhibit.New())
	gt.NoError(t, registry.Init(ctx, &tool.Client{}))
	uc := artwork.New(repository.NewMemory(), gemini, artwork.WithRegistry(registry), artwork.WithOutput(io.Discard))

	session, err := uc.NewSession(ctx, &model.Artwork{Title: "Loop"})
	gt.NoError(t, err)

	_, err = session.Ask(ctx, "hello")
	gt.Error(t, err)
	gt.Equal(t, gemini.calls, 16)
}

func TestChatFailedTurnLeavesHistoryUnchanged(t *testing.T) {
	ctx := testContext()
	var retryContents []*genai.Content
	gemini := &mockGemini{generateFunc: func(call int, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		if call == 1 {
			return nil, errors.New("service unavailable")
		}
		retryContents = append([]*genai.Content{}, contents...)
		return textResponse("It was painted in 1503."), nil
	}}

	uc := artwork.New(repository.NewMemory(), gemini, artwork.WithOutput(io.Discard))
	session, err := uc.NewSession(ctx, &model.Artwork{Title: "Mona Lisa"})
	gt.NoError(t, err)

	_, err = session.Ask(ctx, "Who painted it?")
	gt.Error(t, err)

	answer, err := session.Ask(ctx, "When was it painted?")
	gt.NoError(t, err)
	gt.Equal(t, answer, "It was painted in 1503.")

	gt.A(t, retryContents).Length(1)
	gt.Equal(t, retryContents[0].Role, genai.RoleUser)
	gt.Equal(t, retryContents[0].Parts[0].Text, "When was it painted?")
}

func TestChatCompressesOnTokenLimit(t *testing.T) {
	ctx := testContext()
	tokenErr := genai.APIError{
		Code:    400,
		Status:  "INVALID_ARGUMENT",
		Message: "The input token count (2500030) exceeds the maximum number of tokens allowed (1048576).",
	}

	var lastContents []*genai.Content
	gemini := &mockGemini{generateFunc: func(call int, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		switch call {
		case 1:
			return textResponse("It was painted in 1503."), nil
		case 2:
			return textResponse("It hangs in the Denon Wing."), nil
		case 3:
			return nil, tokenErr
		case 4:
			return textResponse("Visitor asked about date and location."), nil
		default:
			lastContents = contents
			return textResponse("Yes, it is behind glass."), nil
		}
	}}

	uc := artwork.New(repository.NewMemory(), gemini, artwork.WithOutput(io.Discard))
	session, err := uc.NewSession(ctx, &model.Artwork{Title: "Mona Lisa"})
	gt.NoError(t, err)

	_, err = session.Ask(ctx, "When was it painted?")
	gt.NoError(t, err)
	_, err = session.Ask(ctx, "Where is it?")
	gt.NoError(t, err)

	answer, err := session.Ask(ctx, "Is it protected?")
	gt.NoError(t, err)
	gt.Equal(t, answer, "Yes, it is behind glass.")
	gt.Equal(t, gemini.calls, 5)
	gt.S(t, lastContents[0].Parts[0].Text).Contains("Previous Conversation Summary")
	gt.S(t, lastContents[0].Parts[0].Text).Contains("Visitor asked about date and location.")
}

func TestIsTokenLimitError(t *testing.T) {
	gt.False(t, artwork.IsTokenLimitError(nil))
	gt.False(t, artwork.IsTokenLimitError(errors.New("network timeout")))
	gt.False(t, artwork.IsTokenLimitError(genai.APIError{Code: 500, Status: "INTERNAL", Message: "boom"}))
	gt.True(t, artwork.IsTokenLimitError(genai.APIError{
		Code:    400,
		Status:  "INVALID_ARGUMENT",
		Message: "The input token count (10) exceeds the maximum number of tokens allowed (5).",
	}))
}

func TestCompressHistoryTooShort(t *testing.T) {
	_, err := artwork.CompressHistory(context.Background(), &mockGemini{}, []*genai.Content{
		genai.NewContentFromText("only one", genai.RoleUser),
	})
	gt.Error(t, err)

	_, err = artwork.CompressHistory(context.Background(), &mockGemini{}, nil)
	gt.Error(t, err)
}
