package history_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/museumguide/pkg/model"
	"github.com/m-mizutani/museumguide/pkg/repository"
	"github.com/m-mizutani/museumguide/pkg/tool"
	"github.com/m-mizutani/museumguide/pkg/tool/history"
	"google.golang.org/genai"
)

func TestDisabledWithoutRepository(t *testing.T) {
	reg := tool.New(history.New())
	gt.NoError(t, reg.Init(context.Background(), &tool.Client{}))
	gt.A(t, reg.EnabledTools()).Length(0)
	gt.A(t, reg.Specs()).Length(0)
}

func TestListArtworkHistory(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	_, err := repo.PutArtwork(ctx, &model.Artwork{Title: "Mona Lisa", Artist: "Leonardo da Vinci", Year: "1503", ScannedAt: now})
	gt.NoError(t, err)
	_, err = repo.PutArtwork(ctx, &model.Artwork{Title: "Water Lilies", Artist: "Claude Monet", ScannedAt: now.Add(time.Hour)})
	gt.NoError(t, err)

	reg := tool.New(history.New())
	gt.NoError(t, reg.Init(ctx, &tool.Client{Repo: repo}))

	resp, err := reg.Execute(ctx, genai.FunctionCall{Name: "list_artwork_history", Args: map[string]any{}})
	gt.NoError(t, err)

	result := resp.Response["result"].(string)
	gt.S(t, result).Contains("Found 2 artwork(s)")
	gt.S(t, result).Contains("1. Water Lilies by Claude Monet")
	gt.S(t, result).Contains("2. Mona Lisa by Leonardo da Vinci (1503)")

	resp, err = reg.Execute(ctx, genai.FunctionCall{Name: "list_artwork_history", Args: map[string]any{"limit": 1, "offset": 1}})
	gt.NoError(t, err)
	gt.S(t, resp.Response["result"].(string)).Contains("Found 1 artwork(s)")

	resp, err = reg.Execute(ctx, genai.FunctionCall{Name: "list_artwork_history", Args: map[string]any{"offset": -1}})
	gt.NoError(t, err)
	gt.S(t, resp.Response["result"].(string)).Contains("Found 2 artwork(s)")
}
