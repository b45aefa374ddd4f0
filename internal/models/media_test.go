package models

import (
	"testing"
	"time"
)

func TestNewRecordDefaults(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	series := NewRecord(Candidate{Title: "Dark", MediaKind: MediaKindSeries, SeasonCount: 3}, 4, now)
	if series.Status != StatusWatching {
		t.Errorf("Expected series status %s, got %s", StatusWatching, series.Status)
	}
	if series.CurrentSeason != 1 || series.CurrentEpisode != 1 {
		t.Errorf("Expected series progress S1E1, got S%dE%d", series.CurrentSeason, series.CurrentEpisode)
	}
	if series.Ordinal != 4 || !series.CreatedAt.Equal(now) {
		t.Errorf("Unexpected ordinal/createdAt: %d %v", series.Ordinal, series.CreatedAt)
	}
	if series.IsFavorite {
		t.Error("New record should not be a favorite")
	}

	movie := NewRecord(Candidate{Title: "Heat", MediaKind: MediaKindMovie}, 1, now)
	if movie.Status != StatusToWatch {
		t.Errorf("Expected movie status %s, got %s", StatusToWatch, movie.Status)
	}
	if movie.CurrentSeason != 0 || movie.CurrentEpisode != 0 {
		t.Errorf("Movie should have no progress, got S%dE%d", movie.CurrentSeason, movie.CurrentEpisode)
	}
}

func TestParseMediaKind(t *testing.T) {
	cases := map[string]MediaKind{
		"Movie":   MediaKindMovie,
		" film ":  MediaKindMovie,
		"Series":  MediaKindSeries,
		"Dizi":    MediaKindSeries,
		"tv":      MediaKindSeries,
		"TV Show": MediaKindSeries,
	}
	for input, want := range cases {
		got, ok := ParseMediaKind(input)
		if !ok || got != want {
			t.Errorf("ParseMediaKind(%q) = %q, %v; want %q", input, got, ok, want)
		}
	}

	if _, ok := ParseMediaKind("podcast"); ok {
		t.Error("Expected podcast to be rejected")
	}
}
