package etl

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"moviedash/pkg/models"
)

// Loader normalizes raw records and replaces the movies table with
// the accepted set. It is the sole writer of the store; dashboard
// readers only ever see the previous table or the fully committed
// new one.
type Loader struct {
	DB *sql.DB
}

func NewLoader(db *sql.DB) *Loader {
	return &Loader{DB: db}
}

// Load runs the full transform-and-replace for one raw dataset.
//
// Every record is normalized independently; rows rejected for a
// missing title are counted, not persisted. The replace happens in a
// single transaction: accepted rows go into movies_next, then the old
// movies table is dropped and movies_next renamed over it. A store
// failure rolls the transaction back and leaves the previous table
// intact, so callers must not archive the source unless Load returns
// nil error.
func (l *Loader) Load(ctx context.Context, source string, records []models.RawRecord) (models.LoadSummary, error) {
	start := time.Now()
	summary := models.LoadSummary{
		RunID:  uuid.NewString(),
		Source: source,
	}

	accepted := make([]models.Movie, 0, len(records))
	for _, raw := range records {
		movie, err := Normalize(raw)
		if err != nil {
			if errors.Is(err, ErrMissingTitle) {
				summary.Rejected++
				continue
			}
			return summary, fmt.Errorf("normalize record: %w", err)
		}
		accepted = append(accepted, movie)
	}
	summary.Accepted = len(accepted)

	if err := l.replaceTable(ctx, accepted); err != nil {
		return summary, err
	}

	summary.DurationMS = time.Since(start).Milliseconds()
	return summary, nil
}

func (l *Loader) replaceTable(ctx context.Context, movies []models.Movie) error {
	tx, err := l.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmts := []string{
		`DROP TABLE IF EXISTS movies_next`,
		`CREATE TABLE movies_next (
			title        TEXT NOT NULL,
			release_year INTEGER,
			genres       TEXT NOT NULL DEFAULT '',
			vote_average REAL,
			vote_count   INTEGER
		)`,
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("prepare movies_next: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO movies_next (title, release_year, genres, vote_average, vote_count)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range movies {
		if _, err := stmt.ExecContext(
			ctx,
			m.Title,
			nullInt(m.ReleaseYear),
			m.Genres,
			nullFloat(m.VoteAverage),
			nullInt64(m.VoteCount),
		); err != nil {
			return fmt.Errorf("insert %q: %w", m.Title, err)
		}
	}

	// Wholesale swap. Inside the transaction the rename is invisible
	// to readers until commit.
	swap := []string{
		`DROP TABLE IF EXISTS movies`,
		`ALTER TABLE movies_next RENAME TO movies`,
		`CREATE INDEX IF NOT EXISTS idx_movies_rating ON movies (vote_average DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_movies_year ON movies (release_year)`,
	}
	for _, q := range swap {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("swap movies table: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
