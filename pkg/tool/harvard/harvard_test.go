package harvard_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/museumguide/pkg/tool"
	"github.com/m-mizutani/museumguide/pkg/tool/harvard"
	"google.golang.org/genai"
)

func TestCleanHTML(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "A quiet harbor.", "A quiet harbor."},
		{"tags", "<p>Oil on <em>canvas</em></p>", "Oil on canvas"},
		{"entities", "Monet&rsquo;s garden &amp; pond", "Monet’s garden & pond"},
		{"breaks", "line one<br/>line two", "line one line two"},
		{"empty", "", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gt.Equal(t, harvard.CleanHTML(tc.input), tc.want)
		})
	}
}

func TestVoiceReadyDescription(t *testing.T) {
	obj := &harvard.ArtObject{
		Description: "<p>A study of light.</p>",
		Provenance:  "Gift of a collector, 1951.",
	}
	gt.Equal(t, obj.VoiceReadyDescription(), "A study of light. Provenance: Gift of a collector, 1951.")

	gt.Equal(t, (&harvard.ArtObject{}).VoiceReadyDescription(), "No additional details available.")
}

func TestDisabledWithoutKey(t *testing.T) {
	reg := tool.New(harvard.New())
	gt.NoError(t, reg.Init(context.Background(), &tool.Client{}))
	gt.A(t, reg.EnabledTools()).Length(0)
}

func TestLookupArtwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/object" || r.URL.Query().Get("apikey") != "secret" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("title") == "Nothing" {
			_, _ = w.Write([]byte(`{"info":{"totalrecords":0},"records":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{
			"info": {"totalrecords": 1},
			"records": [{
				"id": 299843,
				"title": "Self-Portrait Dedicated to Paul Gauguin",
				"dated": "1888",
				"medium": "Oil on canvas",
				"people": [{"name": "Vincent van Gogh", "role": "Artist"}],
				"commentary": "<p>Painted in Arles.</p>"
			}]
		}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	reg := tool.New(harvard.New(harvard.WithAPIKey("secret"), harvard.WithBaseURL(srv.URL)))
	gt.NoError(t, reg.Init(ctx, &tool.Client{}))
	gt.A(t, reg.EnabledTools()).Length(1)

	resp, err := reg.Execute(ctx, genai.FunctionCall{
		Name: "lookup_artwork",
		Args: map[string]any{"title": "Self-Portrait"},
	})
	gt.NoError(t, err)
	result := resp.Response["result"].(string)
	gt.S(t, result).Contains("Title: Self-Portrait Dedicated to Paul Gauguin")
	gt.S(t, result).Contains("Artist: Vincent van Gogh")
	gt.S(t, result).Contains("Details: Painted in Arles.")

	resp, err = reg.Execute(ctx, genai.FunctionCall{
		Name: "lookup_artwork",
		Args: map[string]any{"title": "Nothing"},
	})
	gt.NoError(t, err)
	gt.S(t, resp.Response["result"].(string)).Contains("No record found")

	_, err = reg.Execute(ctx, genai.FunctionCall{Name: "lookup_artwork", Args: map[string]any{}})
	gt.Error(t, err)
}

func TestLookupArtworkAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	x := harvard.New(harvard.WithAPIKey("bad"), harvard.WithBaseURL(srv.URL))
	_, err := x.FetchArtDetails(context.Background(), "Mona Lisa")
	gt.Error(t, err)
}
