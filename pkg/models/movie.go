package models

import "strings"

// RawRecord is one row of the input CSV, keyed by lowercased header
// name. No field is guaranteed present or well-typed; the normalizer
// owns all validation.
type RawRecord map[string]string

// Field returns the named field, or "" if the column is absent.
func (r RawRecord) Field(name string) string {
	return r[name]
}

// GenreSeparator joins the ordered genre names of one movie into a
// single text column, e.g. "Action|Sci-Fi". The query layer splits on
// the same separator for exact token matching.
const GenreSeparator = "|"

// Movie is the canonical, analysis-ready form of one raw row.
// Title is never empty; rows without a title are rejected during
// normalization, not nulled. Nil pointer fields map to SQL NULL.
type Movie struct {
	Title       string   `json:"title"`
	ReleaseYear *int     `json:"release_year"`
	Genres      string   `json:"genres"`
	VoteAverage *float64 `json:"vote_average"`
	VoteCount   *int64   `json:"vote_count"`
}

// GenreList splits the joined genres column back into the ordered
// name sequence. An empty genres column yields an empty list.
func (m Movie) GenreList() []string {
	if m.Genres == "" {
		return nil
	}
	return strings.Split(m.Genres, GenreSeparator)
}

// YearRating is one point of the rating-by-year aggregation.
type YearRating struct {
	Year      int     `json:"year"`
	AvgRating float64 `json:"avg_rating"`
}

// GenreCount is one genre combination and how many movies carry
// exactly that combination.
type GenreCount struct {
	Genres string `json:"genres"`
	Count  int    `json:"count"`
}

// LoadSummary reports the outcome of one ETL run.
type LoadSummary struct {
	RunID      string `json:"run_id"`
	Source     string `json:"source,omitempty"`
	Accepted   int    `json:"accepted"`
	Rejected   int    `json:"rejected"`
	DurationMS int64  `json:"duration_ms"`
}
