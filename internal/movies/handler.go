package movies

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{Repo: repo}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/top", h.topRated)                   // GET /movies/top
	rg.GET("/rating-by-year", h.ratingByYear)    // GET /movies/rating-by-year
	rg.GET("/genre-combinations", h.genreCombos) // GET /movies/genre-combinations
	rg.GET("/genres", h.listGenres)              // GET /movies/genres
	rg.GET("/count", h.count)                    // GET /movies/count
}

// filterFromQuery parses the shared filter params. Unparseable
// numbers are a caller error, not a silent default.
func filterFromQuery(c *gin.Context) (Filter, bool) {
	f := Filter{Genre: strings.TrimSpace(c.Query("genre"))}

	if s := c.Query("min_rating"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "min_rating must be a number"})
			return f, false
		}
		f.MinRating = v
	}
	if s := c.Query("min_votes"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "min_votes must be an integer"})
			return f, false
		}
		f.MinVotes = v
	}
	return f, true
}

func respondQueryError(c *gin.Context, err error) {
	if errors.Is(err, ErrInvalidFilter) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
}

func (h *Handler) topRated(c *gin.Context) {
	f, ok := filterFromQuery(c)
	if !ok {
		return
	}

	items, err := h.Repo.TopRated(c.Request.Context(), f)
	if err != nil {
		respondQueryError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"min_rating": f.MinRating,
		"min_votes":  f.MinVotes,
		"genre":      f.Genre,
		"items":      items,
	})
}

func (h *Handler) ratingByYear(c *gin.Context) {
	f, ok := filterFromQuery(c)
	if !ok {
		return
	}

	points, err := h.Repo.RatingByYear(c.Request.Context(), f)
	if err != nil {
		respondQueryError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"points": points})
}

func (h *Handler) genreCombos(c *gin.Context) {
	f, ok := filterFromQuery(c)
	if !ok {
		return
	}

	combos, err := h.Repo.GenreCombinations(c.Request.Context(), f)
	if err != nil {
		respondQueryError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"combinations": combos})
}

func (h *Handler) listGenres(c *gin.Context) {
	genres, err := h.Repo.ListGenres(c.Request.Context())
	if err != nil {
		respondQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"genres": genres})
}

func (h *Handler) count(c *gin.Context) {
	total, err := h.Repo.Count(c.Request.Context())
	if err != nil {
		respondQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total})
}
