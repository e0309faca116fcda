package etl

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"moviedash/pkg/models"
)

// ErrMissingTitle rejects a raw row whose title is blank or absent.
// It is the only rejection the normalizer ever produces; all other
// malformed input degrades to absent fields.
var ErrMissingTitle = errors.New("missing title")

// Column names expected in the raw CSV. Missing columns are legal;
// the corresponding canonical fields come out NULL or empty.
const (
	colTitle       = "title"
	colReleaseDate = "release_date"
	colGenres      = "genres"
	colVoteAverage = "vote_average"
	colVoteCount   = "vote_count"
)

// Normalize turns one raw CSV row into its canonical form.
//
// Rules:
//   - title: surrounding whitespace trimmed; blank -> ErrMissingTitle.
//   - release_year: leading 4-digit segment of the date field, NULL if
//     the segment does not parse.
//   - genres: payload of {"name": ...} objects flattened into a
//     "|"-joined string in source order; malformed payloads flatten
//     to "" rather than failing the row.
//   - vote_average / vote_count: passed through when numeric, NULL
//     otherwise. Missing numbers never reject a row.
//
// Pure function: no I/O, no mutation of raw.
func Normalize(raw models.RawRecord) (models.Movie, error) {
	title := strings.TrimSpace(raw.Field(colTitle))
	if title == "" {
		return models.Movie{}, ErrMissingTitle
	}

	return models.Movie{
		Title:       title,
		ReleaseYear: extractYear(raw.Field(colReleaseDate)),
		Genres:      flattenGenres(raw.Field(colGenres)),
		VoteAverage: parseFloat(raw.Field(colVoteAverage)),
		VoteCount:   parseInt(raw.Field(colVoteCount)),
	}, nil
}

// extractYear reads the leading 4-digit year of an ISO-like date
// string ("2010-07-16" -> 2010). Anything else yields NULL, not zero.
func extractYear(date string) *int {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return nil
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return nil
	}
	return &year
}

type genreEntry struct {
	Name string `json:"name"`
}

// flattenGenres decodes the genre payload and joins the names in
// original order. TMDB exports carry the payload either as JSON or as
// a Python-literal list with single quotes; the latter is rewritten
// to JSON before decoding. Decode failure means zero genres.
func flattenGenres(payload string) string {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return ""
	}

	entries, err := decodeGenres(payload)
	if err != nil && strings.Contains(payload, "'") {
		entries, err = decodeGenres(strings.ReplaceAll(payload, "'", `"`))
	}
	if err != nil {
		return ""
	}

	names := make([]string, 0, len(entries))
	for _, g := range entries {
		// an entry without a name contributes nothing
		if g.Name == "" {
			continue
		}
		names = append(names, g.Name)
	}
	return strings.Join(names, models.GenreSeparator)
}

func decodeGenres(payload string) ([]genreEntry, error) {
	var entries []genreEntry
	if err := json.Unmarshal([]byte(payload), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func parseFloat(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseInt(raw string) *int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// vote counts sometimes arrive as "30000.0"
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil {
			return nil
		}
		n = int64(f)
	}
	return &n
}
