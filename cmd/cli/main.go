package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"moviedash/pkg/models"
)

const defaultBaseURL = "http://localhost:8080"

type topResponse struct {
	MinRating float64        `json:"min_rating"`
	MinVotes  int            `json:"min_votes"`
	Genre     string         `json:"genre"`
	Items     []models.Movie `json:"items"`
}

type yearsResponse struct {
	Points []models.YearRating `json:"points"`
}

type combosResponse struct {
	Combinations []models.GenreCount `json:"combinations"`
}

type genresResponse struct {
	Genres []string `json:"genres"`
}

type countResponse struct {
	Total int `json:"total"`
}

type runResponse struct {
	Summary  models.LoadSummary `json:"summary"`
	Archived string             `json:"archived"`
}

func main() {
	global := flag.NewFlagSet("moviedash", flag.ExitOnError)
	baseURL := global.String("api", defaultBaseURL, "API base URL")
	if err := global.Parse(os.Args[1:]); err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	client := &http.Client{Timeout: 30 * time.Second}

	switch args[0] {
	case "top":
		handleTop(ctx, client, *baseURL, args[1:])
	case "years":
		handleYears(ctx, client, *baseURL, args[1:])
	case "combos":
		handleCombos(ctx, client, *baseURL, args[1:])
	case "genres":
		handleGenres(ctx, client, *baseURL)
	case "count":
		handleCount(ctx, client, *baseURL)
	case "run":
		handleRun(ctx, client, *baseURL, args[1:])
	case "listen":
		handleListen(args[1:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func filterFlags(fs *flag.FlagSet) (minRating *float64, minVotes *int, genre *string) {
	minRating = fs.Float64("min-rating", 0, "minimum vote average")
	minVotes = fs.Int("min-votes", 0, "minimum vote count")
	genre = fs.String("genre", "", "exact genre filter (e.g. Action)")
	return
}

func filterURL(baseURL, path string, minRating float64, minVotes int, genre string) string {
	u, err := url.Parse(baseURL + path)
	if err != nil {
		log.Fatalf("invalid base url: %v", err)
	}
	qv := u.Query()
	qv.Set("min_rating", strconv.FormatFloat(minRating, 'f', -1, 64))
	qv.Set("min_votes", strconv.Itoa(minVotes))
	if genre != "" {
		qv.Set("genre", genre)
	}
	u.RawQuery = qv.Encode()
	return u.String()
}

func handleTop(ctx context.Context, client *http.Client, baseURL string, args []string) {
	fs := flag.NewFlagSet("top", flag.ExitOnError)
	minRating, minVotes, genre := filterFlags(fs)
	_ = fs.Parse(args)

	var resp topResponse
	if err := doJSON(ctx, client, http.MethodGet, filterURL(baseURL, "/movies/top", *minRating, *minVotes, *genre), nil, &resp); err != nil {
		log.Fatalf("top failed: %v", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tTITLE\tYEAR\tRATING\tVOTES\tGENRES")
	for i, m := range resp.Items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			i+1, m.Title, fmtIntPtr(m.ReleaseYear), fmtFloatPtr(m.VoteAverage), fmtInt64Ptr(m.VoteCount), m.Genres)
	}
	_ = w.Flush()
	fmt.Printf("\n%d movies (min_rating=%v, min_votes=%d, genre=%q)\n",
		len(resp.Items), resp.MinRating, resp.MinVotes, resp.Genre)
}

func handleYears(ctx context.Context, client *http.Client, baseURL string, args []string) {
	fs := flag.NewFlagSet("years", flag.ExitOnError)
	minRating, minVotes, genre := filterFlags(fs)
	_ = fs.Parse(args)

	var resp yearsResponse
	if err := doJSON(ctx, client, http.MethodGet, filterURL(baseURL, "/movies/rating-by-year", *minRating, *minVotes, *genre), nil, &resp); err != nil {
		log.Fatalf("years failed: %v", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "YEAR\tAVG RATING")
	for _, p := range resp.Points {
		fmt.Fprintf(w, "%d\t%.2f\n", p.Year, p.AvgRating)
	}
	_ = w.Flush()
}

func handleCombos(ctx context.Context, client *http.Client, baseURL string, args []string) {
	fs := flag.NewFlagSet("combos", flag.ExitOnError)
	minRating, minVotes, genre := filterFlags(fs)
	_ = fs.Parse(args)

	var resp combosResponse
	if err := doJSON(ctx, client, http.MethodGet, filterURL(baseURL, "/movies/genre-combinations", *minRating, *minVotes, *genre), nil, &resp); err != nil {
		log.Fatalf("combos failed: %v", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "GENRES\tMOVIES")
	for _, gc := range resp.Combinations {
		fmt.Fprintf(w, "%s\t%d\n", gc.Genres, gc.Count)
	}
	_ = w.Flush()
}

func handleGenres(ctx context.Context, client *http.Client, baseURL string) {
	var resp genresResponse
	if err := doJSON(ctx, client, http.MethodGet, baseURL+"/movies/genres", nil, &resp); err != nil {
		log.Fatalf("genres failed: %v", err)
	}
	for _, g := range resp.Genres {
		fmt.Println(g)
	}
}

func handleCount(ctx context.Context, client *http.Client, baseURL string) {
	var resp countResponse
	if err := doJSON(ctx, client, http.MethodGet, baseURL+"/movies/count", nil, &resp); err != nil {
		log.Fatalf("count failed: %v", err)
	}
	fmt.Printf("dataset contains %d movies\n", resp.Total)
}

func handleRun(ctx context.Context, client *http.Client, baseURL string, args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	path := fs.String("input", "", "CSV path on the server (defaults to its configured source)")
	_ = fs.Parse(args)

	payload := map[string]string{}
	if *path != "" {
		payload["path"] = *path
	}

	var resp runResponse
	if err := doJSON(ctx, client, http.MethodPost, baseURL+"/etl/run", payload, &resp); err != nil {
		log.Fatalf("run failed: %v", err)
	}
	fmt.Printf("✅ run %s: accepted=%d rejected=%d (%dms)\n",
		resp.Summary.RunID, resp.Summary.Accepted, resp.Summary.Rejected, resp.Summary.DurationMS)
	if resp.Archived != "" {
		fmt.Printf("📦 archived → %s\n", resp.Archived)
	}
}

func handleListen(args []string) {
	fs := flag.NewFlagSet("listen", flag.ExitOnError)
	addr := fs.String("addr", "127.0.0.1:7070", "refresh feed address")
	pretty := fs.Bool("pretty", true, "pretty print JSON events")
	_ = fs.Parse(args)

	for {
		if err := runListen(*addr, *pretty); err != nil {
			log.Printf("[listen] disconnected: %v", err)
		}
		time.Sleep(1 * time.Second)
	}
}

func runListen(addr string, pretty bool) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Printf("[listen] connected to %s", addr)

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		line := sc.Bytes()
		if !pretty {
			fmt.Println(string(line))
			continue
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, line, "", "  "); err != nil {
			fmt.Println(string(line))
			continue
		}
		fmt.Println(buf.String())
	}
	return sc.Err()
}

func doJSON(ctx context.Context, client *http.Client, method, rawURL string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		b, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(b, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status, apiErr.Error)
		}
		return fmt.Errorf("%s", resp.Status)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func fmtIntPtr(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func fmtInt64Ptr(v *int64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatInt(*v, 10)
}

func fmtFloatPtr(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}

func printUsage() {
	fmt.Println(`moviedash CLI

usage:
  moviedash [-api URL] top    [-min-rating R] [-min-votes N] [-genre G]
  moviedash [-api URL] years  [-min-rating R] [-min-votes N] [-genre G]
  moviedash [-api URL] combos [-min-rating R] [-min-votes N] [-genre G]
  moviedash [-api URL] genres
  moviedash [-api URL] count
  moviedash [-api URL] run    [-input PATH]
  moviedash listen [-addr HOST:PORT] [-pretty]`)
}
