package movies

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"moviedash/pkg/models"
)

// ErrInvalidFilter wraps every filter validation failure. Queries
// fail fast on bad parameters without touching the store.
var ErrInvalidFilter = errors.New("invalid filter")

const (
	topRatedLimit    = 50
	genreCombosLimit = 10
)

// Filter is the shared predicate of all dashboard queries: minimum
// rating, minimum vote count, optional exact genre token.
type Filter struct {
	MinRating float64
	MinVotes  int
	Genre     string // "" means all genres
}

func (f Filter) validate() error {
	if f.MinRating < 0 {
		return fmt.Errorf("%w: min_rating must be >= 0, got %v", ErrInvalidFilter, f.MinRating)
	}
	if f.MinVotes < 0 {
		return fmt.Errorf("%w: min_votes must be >= 0, got %d", ErrInvalidFilter, f.MinVotes)
	}
	if strings.Contains(f.Genre, models.GenreSeparator) {
		return fmt.Errorf("%w: genre must be a single token", ErrInvalidFilter)
	}
	return nil
}

// where assembles the shared WHERE clause. NULL vote_average or
// vote_count rows can never satisfy the numeric bounds, which keeps
// absent values out of filters and aggregates without special cases.
// The genre match is an exact token against the |-joined column, so
// "Action" does not match "ActionComedy".
func (f Filter) where() (string, []any) {
	clauses := []string{
		"vote_average >= ?",
		"vote_count >= ?",
	}
	args := []any{f.MinRating, f.MinVotes}

	if g := strings.TrimSpace(f.Genre); g != "" {
		clauses = append(clauses, "instr('|' || genres || '|', '|' || ? || '|') > 0")
		args = append(args, g)
	}

	return strings.Join(clauses, " AND "), args
}

// Repo is the read-only query service behind the dashboard. All
// methods are pure reads and safe for concurrent callers.
type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// TopRated returns up to 50 movies matching the filter, best rated
// first. Ties break by vote count then title so paging is stable.
func (r *Repo) TopRated(ctx context.Context, f Filter) ([]models.Movie, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}

	where, args := f.where()
	args = append(args, topRatedLimit)

	rows, err := r.DB.QueryContext(ctx, `
		SELECT title, release_year, genres, vote_average, vote_count
		FROM movies
		WHERE `+where+`
		ORDER BY vote_average DESC, vote_count DESC, title ASC
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("top rated query: %w", err)
	}
	defer rows.Close()

	out := make([]models.Movie, 0, topRatedLimit)
	for rows.Next() {
		var (
			m       models.Movie
			year    sql.NullInt64
			average sql.NullFloat64
			votes   sql.NullInt64
		)
		if err := rows.Scan(&m.Title, &year, &m.Genres, &average, &votes); err != nil {
			return nil, fmt.Errorf("top rated scan: %w", err)
		}
		if year.Valid {
			y := int(year.Int64)
			m.ReleaseYear = &y
		}
		if average.Valid {
			m.VoteAverage = &average.Float64
		}
		if votes.Valid {
			m.VoteCount = &votes.Int64
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// RatingByYear returns the mean rating per release year for movies
// matching the filter, years ascending. Movies without a year are
// excluded from this aggregation.
func (r *Repo) RatingByYear(ctx context.Context, f Filter) ([]models.YearRating, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}

	where, args := f.where()
	rows, err := r.DB.QueryContext(ctx, `
		SELECT release_year, AVG(vote_average) AS avg_rating
		FROM movies
		WHERE release_year IS NOT NULL AND `+where+`
		GROUP BY release_year
		ORDER BY release_year ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("rating by year query: %w", err)
	}
	defer rows.Close()

	var out []models.YearRating
	for rows.Next() {
		var yr models.YearRating
		if err := rows.Scan(&yr.Year, &yr.AvgRating); err != nil {
			return nil, fmt.Errorf("rating by year scan: %w", err)
		}
		out = append(out, yr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// GenreCombinations returns the 10 most frequent exact genre
// combinations among movies matching the filter. The whole |-joined
// string is the grouping key; ties break by combination ascending.
func (r *Repo) GenreCombinations(ctx context.Context, f Filter) ([]models.GenreCount, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}

	where, args := f.where()
	args = append(args, genreCombosLimit)

	rows, err := r.DB.QueryContext(ctx, `
		SELECT genres, COUNT(*) AS movie_count
		FROM movies
		WHERE genres <> '' AND `+where+`
		GROUP BY genres
		ORDER BY movie_count DESC, genres ASC
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("genre combinations query: %w", err)
	}
	defer rows.Close()

	var out []models.GenreCount
	for rows.Next() {
		var gc models.GenreCount
		if err := rows.Scan(&gc.Genres, &gc.Count); err != nil {
			return nil, fmt.Errorf("genre combinations scan: %w", err)
		}
		out = append(out, gc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// Count reports the dataset size shown in the dashboard header.
func (r *Repo) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count scan: %w", err)
	}
	return total, nil
}

// ListGenres returns every distinct individual genre token, sorted,
// for the dashboard's filter dropdown.
func (r *Repo) ListGenres(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT DISTINCT genres FROM movies WHERE genres <> ''
	`)
	if err != nil {
		return nil, fmt.Errorf("list genres query: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	for rows.Next() {
		var combo string
		if err := rows.Scan(&combo); err != nil {
			return nil, fmt.Errorf("list genres scan: %w", err)
		}
		for _, g := range strings.Split(combo, models.GenreSeparator) {
			g = strings.TrimSpace(g)
			if g != "" {
				seen[g] = struct{}{}
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}

	out := make([]string, 0, len(seen))
	for g := range seen {
		out = append(out, g)
	}
	sort.Strings(out)
	return out, nil
}
