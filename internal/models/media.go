package models

import "time"

// Record is a single tracked title in a user's collection
type Record struct {
	ID     string `json:"id" boltholdKey:"ID"`
	UserID string `json:"-" boltholdIndex:"UserID"`

	Title     string    `json:"title"`
	MediaKind MediaKind `json:"mediaKind"`
	Status    Status    `json:"status"`
	Rating    float64   `json:"rating"`

	// Free-text metadata from enrichment
	Director      string `json:"director"`
	DurationLabel string `json:"durationLabel"`
	Category      string `json:"category"`
	Summary       string `json:"summary"`
	ImageURL      string `json:"imageUrl"`

	// Series only
	SeasonCount    int `json:"seasonCount"`
	TotalEpisodes  int `json:"totalEpisodes"`
	CurrentSeason  int `json:"currentSeason"`
	CurrentEpisode int `json:"currentEpisode"`

	IsFavorite bool      `json:"isFavorite"`
	Ordinal    int       `json:"ordinal"` // Creation order, never reassigned
	CreatedAt  time.Time `json:"createdAt"`
}

// IsSeries reports whether progress tracking applies to the record
func (r Record) IsSeries() bool {
	return r.MediaKind == MediaKindSeries
}

// Candidate holds the enrichment fields for a record that does not exist yet
type Candidate struct {
	Title         string
	MediaKind     MediaKind
	Director      string
	Rating        float64
	DurationLabel string
	Category      string
	SeasonCount   int
	TotalEpisodes int
	Summary       string
	ImageURL      string
}

// NewRecord builds a record from an enrichment candidate with the creation
// defaults applied. The ID is left empty for the store to assign.
func NewRecord(c Candidate, ordinal int, now time.Time) Record {
	r := Record{
		Title:         c.Title,
		MediaKind:     c.MediaKind,
		Status:        DefaultStatus(c.MediaKind),
		Rating:        c.Rating,
		Director:      c.Director,
		DurationLabel: c.DurationLabel,
		Category:      c.Category,
		Summary:       c.Summary,
		ImageURL:      c.ImageURL,
		SeasonCount:   c.SeasonCount,
		TotalEpisodes: c.TotalEpisodes,
		IsFavorite:    false,
		Ordinal:       ordinal,
		CreatedAt:     now,
	}
	if r.IsSeries() {
		r.CurrentSeason = 1
		r.CurrentEpisode = 1
	}
	return r
}

// RecordUpdate is a partial set of fields merged into an existing record.
// Nil fields are left untouched.
type RecordUpdate struct {
	Status         *Status
	CurrentSeason  *int
	CurrentEpisode *int
	IsFavorite     *bool
}

// Empty reports whether the update carries no fields
func (u RecordUpdate) Empty() bool {
	return u.Status == nil && u.CurrentSeason == nil && u.CurrentEpisode == nil && u.IsFavorite == nil
}

// Apply merges the update into r
func (u RecordUpdate) Apply(r *Record) {
	if u.Status != nil {
		r.Status = *u.Status
	}
	if u.CurrentSeason != nil {
		r.CurrentSeason = *u.CurrentSeason
	}
	if u.CurrentEpisode != nil {
		r.CurrentEpisode = *u.CurrentEpisode
	}
	if u.IsFavorite != nil {
		r.IsFavorite = *u.IsFavorite
	}
}
