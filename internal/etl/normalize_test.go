package etl

import (
	"errors"
	"strings"
	"testing"

	"moviedash/pkg/models"
)

func TestNormalizeCanonicalRow(t *testing.T) {
	raw := models.RawRecord{
		"title":        "Inception",
		"release_date": "2010-07-16",
		"genres":       `[{"name":"Action"},{"name":"Sci-Fi"}]`,
		"vote_average": "8.8",
		"vote_count":   "30000",
	}

	m, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize returned unexpected error: %v", err)
	}

	if m.Title != "Inception" {
		t.Errorf("Title = %q, want Inception", m.Title)
	}
	if m.ReleaseYear == nil || *m.ReleaseYear != 2010 {
		t.Errorf("ReleaseYear = %v, want 2010", m.ReleaseYear)
	}
	if m.Genres != "Action|Sci-Fi" {
		t.Errorf("Genres = %q, want Action|Sci-Fi", m.Genres)
	}
	if m.VoteAverage == nil || *m.VoteAverage != 8.8 {
		t.Errorf("VoteAverage = %v, want 8.8", m.VoteAverage)
	}
	if m.VoteCount == nil || *m.VoteCount != 30000 {
		t.Errorf("VoteCount = %v, want 30000", m.VoteCount)
	}
}

func TestNormalizeRejectsMissingTitle(t *testing.T) {
	tests := []struct {
		name string
		raw  models.RawRecord
	}{
		{"absent title", models.RawRecord{"release_date": "1999-01-01"}},
		{"empty title", models.RawRecord{"title": ""}},
		{"whitespace title", models.RawRecord{"title": "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Normalize(tt.raw); !errors.Is(err, ErrMissingTitle) {
				t.Errorf("Normalize error = %v, want ErrMissingTitle", err)
			}
		})
	}
}

func TestNormalizeTrimsTitle(t *testing.T) {
	m, err := Normalize(models.RawRecord{"title": "  Heat  "})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if m.Title != "Heat" {
		t.Errorf("Title = %q, want Heat", m.Title)
	}
}

func TestNormalizeYearExtraction(t *testing.T) {
	tests := []struct {
		name string
		date string
		want *int
	}{
		{"iso date", "2010-07-16", intPtr(2010)},
		{"bare year", "1994", intPtr(1994)},
		{"empty", "", nil},
		{"garbage", "not-a-date", nil},
		{"short", "99", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Normalize(models.RawRecord{"title": "X", "release_date": tt.date})
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			switch {
			case tt.want == nil && m.ReleaseYear != nil:
				t.Errorf("ReleaseYear = %d, want nil", *m.ReleaseYear)
			case tt.want != nil && (m.ReleaseYear == nil || *m.ReleaseYear != *tt.want):
				t.Errorf("ReleaseYear = %v, want %d", m.ReleaseYear, *tt.want)
			}
		})
	}
}

func TestNormalizeGenreFlattening(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"json objects", `[{"id":28,"name":"Action"},{"id":12,"name":"Adventure"}]`, "Action|Adventure"},
		{"python literal quoting", `[{'id': 28, 'name': 'Action'}, {'name': 'Drama'}]`, "Action|Drama"},
		{"single genre", `[{"name":"Comedy"}]`, "Comedy"},
		{"entry without name skipped", `[{"id":1},{"name":"Drama"}]`, "Drama"},
		{"empty list", `[]`, ""},
		{"absent", "", ""},
		{"malformed degrades to empty", `[{"name":`, ""},
		{"not a list", `{"name":"Action"}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Normalize(models.RawRecord{"title": "X", "genres": tt.payload})
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if m.Genres != tt.want {
				t.Errorf("Genres = %q, want %q", m.Genres, tt.want)
			}
		})
	}
}

// Joining and re-splitting on the separator must recover the original
// ordered genre sequence.
func TestGenreRoundTrip(t *testing.T) {
	m, err := Normalize(models.RawRecord{
		"title":  "X",
		"genres": `[{"name":"Action"},{"name":"Sci-Fi"},{"name":"Thriller"}]`,
	})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	got := m.GenreList()
	want := []string{"Action", "Sci-Fi", "Thriller"}
	if len(got) != len(want) {
		t.Fatalf("GenreList = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("GenreList[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if strings.Join(got, models.GenreSeparator) != m.Genres {
		t.Errorf("re-join mismatch: %v vs %q", got, m.Genres)
	}
}

func TestNormalizeNumericLeniency(t *testing.T) {
	tests := []struct {
		name        string
		raw         models.RawRecord
		wantAverage *float64
		wantCount   *int64
	}{
		{
			"both absent",
			models.RawRecord{"title": "X"},
			nil, nil,
		},
		{
			"non-numeric become null",
			models.RawRecord{"title": "X", "vote_average": "n/a", "vote_count": "many"},
			nil, nil,
		},
		{
			"float vote count truncates",
			models.RawRecord{"title": "X", "vote_count": "30000.0"},
			nil, int64Ptr(30000),
		},
		{
			"zero is a value, not absence",
			models.RawRecord{"title": "X", "vote_average": "0", "vote_count": "0"},
			floatPtr(0), int64Ptr(0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Normalize(tt.raw)
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if !floatPtrEq(m.VoteAverage, tt.wantAverage) {
				t.Errorf("VoteAverage = %v, want %v", m.VoteAverage, tt.wantAverage)
			}
			if !int64PtrEq(m.VoteCount, tt.wantCount) {
				t.Errorf("VoteCount = %v, want %v", m.VoteCount, tt.wantCount)
			}
		})
	}
}

func intPtr(v int) *int { return &v }

func int64Ptr(v int64) *int64 { return &v }

func floatPtr(v float64) *float64 { return &v }

func floatPtrEq(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func int64PtrEq(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
