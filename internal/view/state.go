// Package view derives the page of records to display from a collection
// snapshot and the user's filter, sort, search and page selection.
package view

import (
	"strings"

	"github.com/amaumene/cinearchive/internal/models"
)

// PageSize is the fixed number of records per page
const PageSize = 8

// TypeFilter restricts the view to a media kind
type TypeFilter string

const (
	TypeAll    TypeFilter = "All"
	TypeMovie  TypeFilter = "Movie"
	TypeSeries TypeFilter = "Series"
)

// StatusFilter restricts the view to a watch status or to favorites
type StatusFilter string

const (
	StatusAll       StatusFilter = "All"
	StatusWatching  StatusFilter = "Watching"
	StatusToWatch   StatusFilter = "ToWatch"
	StatusWatched   StatusFilter = "Watched"
	StatusFavorites StatusFilter = "Favorites"
)

// SortKey selects the ordering of the view
type SortKey string

const (
	SortOrdinalAsc  SortKey = "OrdinalAsc"
	SortOrdinalDesc SortKey = "OrdinalDesc"
	SortRatingDesc  SortKey = "RatingDesc"
)

// State is the transient view selection owned by the presentation layer
type State struct {
	Type       TypeFilter
	Status     StatusFilter
	SearchText string
	Sort       SortKey
	PageIndex  int // 1-based
}

// DefaultState shows everything, newest first, on the first page
func DefaultState() State {
	return State{
		Type:      TypeAll,
		Status:    StatusAll,
		Sort:      SortOrdinalDesc,
		PageIndex: 1,
	}
}

// ParseTypeFilter accepts the filter names case-insensitively; unknown or
// empty input selects all
func ParseTypeFilter(value string) TypeFilter {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "movie":
		return TypeMovie
	case "series":
		return TypeSeries
	default:
		return TypeAll
	}
}

// ParseStatusFilter accepts the filter names case-insensitively; unknown or
// empty input selects all
func ParseStatusFilter(value string) StatusFilter {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "watching":
		return StatusWatching
	case "towatch", "to-watch", "to_watch":
		return StatusToWatch
	case "watched":
		return StatusWatched
	case "favorites", "favourites":
		return StatusFavorites
	default:
		return StatusAll
	}
}

// ParseSortKey accepts the sort names case-insensitively; unknown or empty
// input selects the default (newest first)
func ParseSortKey(value string) SortKey {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "ordinalasc", "ordinal_asc", "index_asc":
		return SortOrdinalAsc
	case "ratingdesc", "rating_desc", "rating":
		return SortRatingDesc
	default:
		return SortOrdinalDesc
	}
}

func (f TypeFilter) matches(r models.Record) bool {
	switch f {
	case TypeMovie:
		return r.MediaKind == models.MediaKindMovie
	case TypeSeries:
		return r.MediaKind == models.MediaKindSeries
	default:
		return true
	}
}

func (f StatusFilter) matches(r models.Record) bool {
	switch f {
	case StatusFavorites:
		return r.IsFavorite
	case StatusWatching:
		return r.Status == models.StatusWatching
	case StatusToWatch:
		return r.Status == models.StatusToWatch
	case StatusWatched:
		return r.Status == models.StatusWatched
	default:
		return true
	}
}
