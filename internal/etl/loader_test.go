package etl

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"moviedash/pkg/database"
	"moviedash/pkg/models"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func countMovies(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM movies`).Scan(&n); err != nil {
		t.Fatalf("count movies: %v", err)
	}
	return n
}

func testRecords() []models.RawRecord {
	return []models.RawRecord{
		{
			"title":        "Inception",
			"release_date": "2010-07-16",
			"genres":       `[{"name":"Action"},{"name":"Sci-Fi"}]`,
			"vote_average": "8.8",
			"vote_count":   "30000",
		},
		{
			"title":        "Some Flop",
			"release_date": "2011-02-01",
			"genres":       `[{"name":"Drama"}]`,
			"vote_average": "5.0",
			"vote_count":   "100",
		},
		{
			// blank title: rejected, never persisted
			"title":        "",
			"release_date": "1999-01-01",
			"vote_average": "9.9",
		},
	}
}

func TestLoadCountsAndPersists(t *testing.T) {
	db := openTestDB(t)
	loader := NewLoader(db)

	summary, err := loader.Load(context.Background(), "movies.csv", testRecords())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if summary.Accepted != 2 {
		t.Errorf("Accepted = %d, want 2", summary.Accepted)
	}
	if summary.Rejected != 1 {
		t.Errorf("Rejected = %d, want 1", summary.Rejected)
	}
	if summary.RunID == "" {
		t.Error("RunID is empty")
	}
	if got := countMovies(t, db); got != 2 {
		t.Errorf("movies table has %d rows, want 2", got)
	}

	// rejection invariant holds over the whole table
	var blanks int
	if err := db.QueryRow(`SELECT COUNT(*) FROM movies WHERE TRIM(title) = ''`).Scan(&blanks); err != nil {
		t.Fatalf("blank title count: %v", err)
	}
	if blanks != 0 {
		t.Errorf("found %d blank titles in store", blanks)
	}
}

// Running the loader twice over the same input must replace the
// table, not accumulate into it.
func TestLoadIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	loader := NewLoader(db)

	for i := 0; i < 2; i++ {
		if _, err := loader.Load(context.Background(), "movies.csv", testRecords()); err != nil {
			t.Fatalf("Load #%d: %v", i+1, err)
		}
	}

	if got := countMovies(t, db); got != 2 {
		t.Errorf("movies table has %d rows after two loads, want 2", got)
	}
}

func TestLoadReplacesPreviousDataset(t *testing.T) {
	db := openTestDB(t)
	loader := NewLoader(db)

	if _, err := loader.Load(context.Background(), "a.csv", testRecords()); err != nil {
		t.Fatalf("first Load: %v", err)
	}

	next := []models.RawRecord{{"title": "Solaris", "release_date": "1972-03-20"}}
	if _, err := loader.Load(context.Background(), "b.csv", next); err != nil {
		t.Fatalf("second Load: %v", err)
	}

	if got := countMovies(t, db); got != 1 {
		t.Fatalf("movies table has %d rows, want 1", got)
	}
	var title string
	if err := db.QueryRow(`SELECT title FROM movies`).Scan(&title); err != nil {
		t.Fatalf("scan title: %v", err)
	}
	if title != "Solaris" {
		t.Errorf("title = %q, want Solaris", title)
	}
}

// A failed load must leave the previous table intact and report an
// error, so callers never archive the source.
func TestLoadFailureKeepsPriorTable(t *testing.T) {
	db := openTestDB(t)
	loader := NewLoader(db)

	if _, err := loader.Load(context.Background(), "a.csv", testRecords()); err != nil {
		t.Fatalf("first Load: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := loader.Load(ctx, "b.csv", []models.RawRecord{{"title": "Ghost"}}); err == nil {
		t.Fatal("Load with cancelled context succeeded, want error")
	}

	if got := countMovies(t, db); got != 2 {
		t.Errorf("movies table has %d rows after failed load, want 2", got)
	}
}

func TestLoadNullFields(t *testing.T) {
	db := openTestDB(t)
	loader := NewLoader(db)

	records := []models.RawRecord{
		{"title": "Mystery", "release_date": "unknown", "vote_average": "", "vote_count": ""},
	}
	if _, err := loader.Load(context.Background(), "m.csv", records); err != nil {
		t.Fatalf("Load: %v", err)
	}

	var (
		year    sql.NullInt64
		average sql.NullFloat64
		votes   sql.NullInt64
		genres  string
	)
	err := db.QueryRow(`SELECT release_year, vote_average, vote_count, genres FROM movies`).
		Scan(&year, &average, &votes, &genres)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if year.Valid || average.Valid || votes.Valid {
		t.Errorf("expected NULL year/average/votes, got %v %v %v", year, average, votes)
	}
	if genres != "" {
		t.Errorf("genres = %q, want empty", genres)
	}
}

func TestArchiverMovesFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "movies.csv")
	if err := os.WriteFile(src, []byte("title\nInception\n"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	archiveDir := filepath.Join(dir, "archive")
	dst, err := NewArchiver(archiveDir).Archive(src)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}

	if dst != filepath.Join(archiveDir, "movies.csv") {
		t.Errorf("dst = %q", dst)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Errorf("source still present after archive: %v", err)
	}
	b, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read archived file: %v", err)
	}
	if string(b) != "title\nInception\n" {
		t.Errorf("archived content = %q", b)
	}
}
