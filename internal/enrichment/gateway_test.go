package enrichment

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/amaumene/cinearchive/internal/collection"
	"github.com/amaumene/cinearchive/internal/metrics"
	"github.com/amaumene/cinearchive/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
	prompts  []string
}

func (f *fakeGenerator) GenerateJSON(_ context.Context, _, userPrompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, userPrompt)
	return f.response, f.err
}

type fakeCollection struct {
	attached  bool
	createErr error
	similar   []models.Record
	created   []models.Candidate
}

func (f *fakeCollection) Attached() bool { return f.attached }

func (f *fakeCollection) FindSimilar(string) []models.Record { return f.similar }

func (f *fakeCollection) CreateFromEnrichment(_ context.Context, c models.Candidate) (models.Record, error) {
	if f.createErr != nil {
		return models.Record{}, f.createErr
	}
	f.created = append(f.created, c)
	return models.NewRecord(c, len(f.created), time.Now()), nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

const inception = `{"title":"Inception","mediaKind":"Movie","director":"Christopher Nolan","rating":8.8,"durationLabel":"148 min","category":"Sci-Fi"}`

func TestEnrichCreatesRecord(t *testing.T) {
	gen := &fakeGenerator{response: inception}
	coll := &fakeCollection{attached: true}
	m := metrics.New()
	gw := NewGateway(gen, coll, time.Minute, m, testLogger())

	res, err := gw.Enrich(context.Background(), "  inception ")
	require.NoError(t, err)

	assert.Equal(t, "Inception", res.Record.Title)
	assert.Equal(t, models.StatusToWatch, res.Record.Status)
	assert.False(t, res.Cached)
	require.Len(t, coll.created, 1)
	assert.Contains(t, gen.prompts[0], `"inception"`)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Enrichments.WithLabelValues(metrics.OutcomeCreated)))
}

func TestEnrichSeriesDefaults(t *testing.T) {
	gen := &fakeGenerator{response: `{"title":"Dark","mediaKind":"Series","rating":8.7,"seasonCount":3,"totalEpisodes":26}`}
	coll := &fakeCollection{attached: true}
	gw := NewGateway(gen, coll, 0, nil, testLogger())

	res, err := gw.Enrich(context.Background(), "Dark")
	require.NoError(t, err)
	assert.Equal(t, models.StatusWatching, res.Record.Status)
	assert.Equal(t, 1, res.Record.CurrentSeason)
	assert.Equal(t, 1, res.Record.CurrentEpisode)
}

func TestEnrichEmptyTitle(t *testing.T) {
	gen := &fakeGenerator{response: inception}
	m := metrics.New()
	gw := NewGateway(gen, &fakeCollection{attached: true}, time.Minute, m, testLogger())

	_, err := gw.Enrich(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyTitle)
	assert.Zero(t, gen.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Enrichments.WithLabelValues(metrics.OutcomeRejected)))
}

func TestEnrichNotAttached(t *testing.T) {
	gen := &fakeGenerator{response: inception}
	gw := NewGateway(gen, &fakeCollection{}, time.Minute, nil, testLogger())

	_, err := gw.Enrich(context.Background(), "Inception")
	assert.ErrorIs(t, err, collection.ErrNotAttached)
	assert.Zero(t, gen.calls)
}

func TestEnrichGeneratorFailure(t *testing.T) {
	boom := errors.New("service unavailable")
	coll := &fakeCollection{attached: true}
	m := metrics.New()
	gw := NewGateway(&fakeGenerator{err: boom}, coll, time.Minute, m, testLogger())

	_, err := gw.Enrich(context.Background(), "Inception")
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, coll.created)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Enrichments.WithLabelValues(metrics.OutcomeFailed)))
}

func TestEnrichParseFailureCreatesNothing(t *testing.T) {
	gen := &fakeGenerator{response: "Sorry, I don't know that one."}
	coll := &fakeCollection{attached: true}
	m := metrics.New()
	gw := NewGateway(gen, coll, time.Minute, m, testLogger())

	_, err := gw.Enrich(context.Background(), "asdfgh")
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Empty(t, coll.created)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Enrichments.WithLabelValues(metrics.OutcomeParseError)))

	// parse failures are not cached
	gen.response = inception
	_, err = gw.Enrich(context.Background(), "asdfgh")
	require.NoError(t, err)
	assert.Equal(t, 2, gen.calls)
}

func TestEnrichCachesCandidate(t *testing.T) {
	gen := &fakeGenerator{response: inception}
	coll := &fakeCollection{attached: true, createErr: errors.New("write failed")}
	m := metrics.New()
	gw := NewGateway(gen, coll, time.Minute, m, testLogger())

	_, err := gw.Enrich(context.Background(), "Inception")
	require.Error(t, err)

	coll.createErr = nil
	res, err := gw.Enrich(context.Background(), "INCEPTION")
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Enrichments.WithLabelValues(metrics.OutcomeCached)))
}

func TestEnrichCacheDisabled(t *testing.T) {
	gen := &fakeGenerator{response: inception}
	gw := NewGateway(gen, &fakeCollection{attached: true}, 0, nil, testLogger())

	for i := 0; i < 2; i++ {
		_, err := gw.Enrich(context.Background(), "Inception")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, gen.calls)
}

func TestEnrichReportsSimilar(t *testing.T) {
	existing := models.Record{ID: "doc-1", Title: "Inception"}
	coll := &fakeCollection{attached: true, similar: []models.Record{existing}}
	gw := NewGateway(&fakeGenerator{response: inception}, coll, 0, nil, testLogger())

	res, err := gw.Enrich(context.Background(), "Inception")
	require.NoError(t, err)
	require.Len(t, res.Similar, 1)
	assert.Equal(t, "doc-1", res.Similar[0].ID)
	assert.Len(t, coll.created, 1)
}
