// Package enrichment turns a free-text title into a record by asking the AI
// service for structured metadata and handing the validated candidate to the
// collection store.
package enrichment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amaumene/cinearchive/internal/collection"
	"github.com/amaumene/cinearchive/internal/metrics"
	"github.com/amaumene/cinearchive/internal/models"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
)

// ErrEmptyTitle is returned for a blank title
var ErrEmptyTitle = errors.New("title is required")

// Generator produces a JSON answer for a prompt
type Generator interface {
	GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Collection is the part of the collection store the gateway writes to
type Collection interface {
	Attached() bool
	FindSimilar(title string) []models.Record
	CreateFromEnrichment(ctx context.Context, candidate models.Candidate) (models.Record, error)
}

// Result is a successfully created record
type Result struct {
	Record  models.Record   `json:"record"`
	Similar []models.Record `json:"similar,omitempty"` // Already tracked records with a near-identical title
	Cached  bool            `json:"cached"`
}

// Gateway enriches titles and creates records from them
type Gateway struct {
	generator  Generator
	collection Collection
	cache      *cache.Cache
	metrics    *metrics.Metrics
	logger     *logrus.Logger
	tracer     trace.Tracer
}

// NewGateway creates a gateway. Parsed candidates are cached per title for
// cacheTTL so a retried add does not call the AI service again; 0 disables it.
func NewGateway(generator Generator, coll Collection, cacheTTL time.Duration, m *metrics.Metrics, logger *logrus.Logger) *Gateway {
	var c *cache.Cache
	if cacheTTL > 0 {
		c = cache.New(cacheTTL, 2*cacheTTL)
	}
	return &Gateway{
		generator:  generator,
		collection: coll,
		cache:      c,
		metrics:    m,
		logger:     logger,
		tracer:     otel.Tracer("github.com/amaumene/cinearchive/internal/enrichment"),
	}
}

// Enrich looks the title up and creates a record from the answer. On any
// failure nothing is created and the error says why.
func (g *Gateway) Enrich(ctx context.Context, title string) (*Result, error) {
	title = strings.TrimSpace(title)

	ctx, span := g.tracer.Start(ctx, "enrichment.enrich", trace.WithAttributes(attribute.String("title", title)))
	defer span.End()

	result, outcome, err := g.enrich(ctx, title)
	g.metrics.Enrichment(outcome)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return nil, err
	}
	return result, nil
}

func (g *Gateway) enrich(ctx context.Context, title string) (*Result, string, error) {
	if title == "" {
		return nil, metrics.OutcomeRejected, ErrEmptyTitle
	}
	if !g.collection.Attached() {
		return nil, metrics.OutcomeRejected, collection.ErrNotAttached
	}

	logger := g.logger.WithField("title", title)
	key := cases.Fold().String(title)

	candidate, cached := g.cached(key)
	if !cached {
		raw, err := g.generator.GenerateJSON(ctx, systemPrompt, userPrompt(title))
		if err != nil {
			logger.WithError(err).Error("Enrichment request failed")
			return nil, metrics.OutcomeFailed, fmt.Errorf("enrichment request failed: %w", err)
		}

		candidate, err = ParseCandidate(raw)
		if err != nil {
			logger.WithError(err).Warn("Discarding enrichment response")
			return nil, metrics.OutcomeParseError, err
		}
		if g.cache != nil {
			g.cache.Set(key, candidate, cache.DefaultExpiration)
		}
	}

	similar := g.collection.FindSimilar(candidate.Title)
	if len(similar) > 0 {
		logger.WithFields(logrus.Fields{
			"matched":  candidate.Title,
			"existing": similar[0].ID,
		}).Warn("A similar title is already tracked")
	}

	record, err := g.collection.CreateFromEnrichment(ctx, candidate)
	if err != nil {
		return nil, metrics.OutcomeFailed, err
	}

	outcome := metrics.OutcomeCreated
	if cached {
		outcome = metrics.OutcomeCached
	}
	return &Result{Record: record, Similar: similar, Cached: cached}, outcome, nil
}

func (g *Gateway) cached(key string) (models.Candidate, bool) {
	if g.cache == nil {
		return models.Candidate{}, false
	}
	value, ok := g.cache.Get(key)
	if !ok {
		return models.Candidate{}, false
	}
	candidate, ok := value.(models.Candidate)
	return candidate, ok
}
