package view

import "github.com/amaumene/cinearchive/internal/models"

// Stats counts a collection per kind, status and favorite flag
type Stats struct {
	Total     int `json:"total"`
	Movies    int `json:"movies"`
	Series    int `json:"series"`
	Watching  int `json:"watching"`
	ToWatch   int `json:"to_watch"`
	Watched   int `json:"watched"`
	Favorites int `json:"favorites"`
}

// Summarize computes Stats over records
func Summarize(records []models.Record) Stats {
	stats := Stats{Total: len(records)}
	for _, r := range records {
		switch r.MediaKind {
		case models.MediaKindMovie:
			stats.Movies++
		case models.MediaKindSeries:
			stats.Series++
		}
		switch r.Status {
		case models.StatusWatching:
			stats.Watching++
		case models.StatusToWatch:
			stats.ToWatch++
		case models.StatusWatched:
			stats.Watched++
		}
		if r.IsFavorite {
			stats.Favorites++
		}
	}
	return stats
}
