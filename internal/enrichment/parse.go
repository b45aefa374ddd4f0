package enrichment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/amaumene/cinearchive/internal/models"
)

// ParseError reports an AI response that cannot become a record
type ParseError struct {
	Reason  string
	Snippet string
	Err     error
}

func (e *ParseError) Error() string {
	msg := "invalid enrichment response: " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Snippet != "" {
		msg += " (payload: " + e.Snippet + ")"
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// flexNumber accepts a JSON number, a numeric string, or null
type flexNumber struct {
	Value float64
	Set   bool
}

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("not a number: %q", s)
		}
		n.Value, n.Set = v, true
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value, n.Set = v, true
	return nil
}

type payload struct {
	Title         string     `json:"title"`
	MediaKind     string     `json:"mediaKind"`
	Type          string     `json:"type"` // older prompt used "type": "Film"/"Dizi"
	Director      string     `json:"director"`
	Rating        flexNumber `json:"rating"`
	DurationLabel string     `json:"durationLabel"`
	Duration      string     `json:"duration"`
	Category      string     `json:"category"`
	SeasonCount   flexNumber `json:"seasonCount"`
	TotalEpisodes flexNumber `json:"totalEpisodes"`
	Summary       string     `json:"summary"`
	ImageURL      string     `json:"imageUrl"`
	Image         string     `json:"image"`
}

// ParseCandidate decodes and validates the AI response. Any failure yields a
// *ParseError and no candidate.
func ParseCandidate(raw string) (models.Candidate, error) {
	body := extractJSONObject(raw)
	if body == "" {
		return models.Candidate{}, &ParseError{Reason: "no JSON object", Snippet: snippet(raw)}
	}

	var p payload
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return models.Candidate{}, &ParseError{Reason: "malformed JSON", Snippet: snippet(body), Err: err}
	}

	title := strings.TrimSpace(p.Title)
	if title == "" {
		return models.Candidate{}, &ParseError{Reason: "missing title", Snippet: snippet(body)}
	}

	kindLabel := firstNonEmpty(p.MediaKind, p.Type)
	if kindLabel == "" {
		return models.Candidate{}, &ParseError{Reason: "missing mediaKind", Snippet: snippet(body)}
	}
	kind, ok := models.ParseMediaKind(kindLabel)
	if !ok {
		return models.Candidate{}, &ParseError{Reason: fmt.Sprintf("unknown mediaKind %q", kindLabel)}
	}

	rating := p.Rating.Value
	if math.IsNaN(rating) || rating < 0 || rating > 10 {
		return models.Candidate{}, &ParseError{Reason: fmt.Sprintf("rating %v outside 0-10", rating)}
	}

	seasons, err := count("seasonCount", p.SeasonCount)
	if err != nil {
		return models.Candidate{}, err
	}
	episodes, err := count("totalEpisodes", p.TotalEpisodes)
	if err != nil {
		return models.Candidate{}, err
	}
	if kind == models.MediaKindMovie {
		seasons, episodes = 0, 0
	}

	return models.Candidate{
		Title:         title,
		MediaKind:     kind,
		Director:      strings.TrimSpace(p.Director),
		Rating:        rating,
		DurationLabel: firstNonEmpty(p.DurationLabel, p.Duration),
		Category:      strings.TrimSpace(p.Category),
		SeasonCount:   seasons,
		TotalEpisodes: episodes,
		Summary:       strings.TrimSpace(p.Summary),
		ImageURL:      firstNonEmpty(p.ImageURL, p.Image),
	}, nil
}

func count(field string, n flexNumber) (int, error) {
	if !n.Set {
		return 0, nil
	}
	if n.Value < 0 || n.Value != math.Trunc(n.Value) || n.Value > math.MaxInt32 {
		return 0, &ParseError{Reason: fmt.Sprintf("%s must be a non-negative integer, got %v", field, n.Value)}
	}
	return int(n.Value), nil
}

// extractJSONObject strips a markdown code fence and any prose around the object
func extractJSONObject(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimLeft(trimmed[3:], " \t\r\n")
		if len(trimmed) >= 4 && strings.EqualFold(trimmed[:4], "json") {
			trimmed = trimmed[4:]
		}
		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return ""
	}
	return trimmed[start : end+1]
}

func snippet(s string) string {
	clean := strings.Join(strings.Fields(s), " ")
	const limit = 160
	if runes := []rune(clean); len(runes) > limit {
		return string(runes[:limit]) + "..."
	}
	return clean
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
