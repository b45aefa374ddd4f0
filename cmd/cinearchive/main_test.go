package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/amaumene/cinearchive/internal/models"
	"github.com/amaumene/cinearchive/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGemini answers every generateContent call with the given record JSON
func fakeGemini(t *testing.T, record string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"parts": []map[string]string{{"text": record}},
				}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func setupEnv(t *testing.T, geminiURL string) {
	t.Setenv("CONFIG_DIR", t.TempDir())
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("GEMINI_BASE_URL", geminiURL)
	t.Setenv("LOG_LEVEL", "error")
}

func TestAddThenList(t *testing.T) {
	gemini := fakeGemini(t, `{"title":"Dark","mediaKind":"Series","rating":8.7,"seasonCount":3,"totalEpisodes":26}`)
	setupEnv(t, gemini.URL)

	out, err := execute(t, "add", "--user", "alice", "dark")
	require.NoError(t, err)
	assert.Contains(t, out, "Added Dark (Series, 8.7) as Watching")

	out, err = execute(t, "list", "--user", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Dark")
	assert.Contains(t, out, "S01E01")
	assert.Contains(t, out, "Page 1 of 1 (1 records)")

	out, err = execute(t, "list", "--user", "bob")
	require.NoError(t, err)
	assert.Contains(t, out, "No records.")
}

func TestAddReportsParseFailure(t *testing.T) {
	gemini := fakeGemini(t, "I am not sure what that is.")
	setupEnv(t, gemini.URL)

	_, err := execute(t, "add", "zzzz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid enrichment response")

	out, err := execute(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No records.")
}

func TestAddRequiresTitle(t *testing.T) {
	_, err := execute(t, "add")
	assert.Error(t, err)
}

func TestListOptionsState(t *testing.T) {
	opts := &listOptions{kind: "SERIES", status: "favorites", search: "bad", sort: "rating", page: 3}
	assert.Equal(t, view.State{
		Type:       view.TypeSeries,
		Status:     view.StatusFavorites,
		SearchText: "bad",
		Sort:       view.SortRatingDesc,
		PageIndex:  3,
	}, opts.state())
}

func TestRenderPage(t *testing.T) {
	page := view.Page{
		Records: []models.Record{
			{Ordinal: 2, Title: "Heat", MediaKind: models.MediaKindMovie, Status: models.StatusToWatch, Rating: 8.3},
			{Ordinal: 1, Title: "Dark", MediaKind: models.MediaKindSeries, Status: models.StatusWatching, CurrentSeason: 2, CurrentEpisode: 10, IsFavorite: true},
		},
		Total:     2,
		PageIndex: 1,
		PageCount: 1,
		PageSize:  view.PageSize,
	}

	out := renderPage(page)
	lines := strings.Split(out, "\n")
	assert.Contains(t, out, "S02E10")
	assert.Contains(t, out, "8.3")
	assert.Equal(t, "Page 1 of 1 (2 records)", lines[len(lines)-1])
	assert.Equal(t, "No records.", renderPage(view.Page{}))
}
