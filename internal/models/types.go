package models

import "strings"

// MediaKind represents the kind of a tracked title (movie or series)
type MediaKind string

const (
	MediaKindMovie  MediaKind = "Movie"
	MediaKindSeries MediaKind = "Series"
)

// Valid reports whether k is a known media kind
func (k MediaKind) Valid() bool {
	return k == MediaKindMovie || k == MediaKindSeries
}

// ParseMediaKind maps the loose media kind labels returned by the AI service
// (and the legacy Turkish labels) onto a MediaKind
func ParseMediaKind(value string) (MediaKind, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "movie", "film":
		return MediaKindMovie, true
	case "series", "tv", "show", "tv show", "tv series", "dizi":
		return MediaKindSeries, true
	default:
		return "", false
	}
}

// Status represents the watch status of a record
type Status string

const (
	StatusWatching Status = "Watching"
	StatusToWatch  Status = "ToWatch"
	StatusWatched  Status = "Watched"
)

// Valid reports whether s is a known watch status
func (s Status) Valid() bool {
	switch s {
	case StatusWatching, StatusToWatch, StatusWatched:
		return true
	default:
		return false
	}
}

// DefaultStatus returns the status a freshly created record starts in
func DefaultStatus(kind MediaKind) Status {
	if kind == MediaKindSeries {
		return StatusWatching
	}
	return StatusToWatch
}
