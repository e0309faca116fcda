package etl

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"moviedash/internal/refresh"
)

// Handler exposes the ETL pipeline over the API so a dashboard admin
// can trigger a reload without shelling into the box. On success it
// archives the source and broadcasts a reload event to subscribers.
type Handler struct {
	Loader   *Loader
	Archiver *Archiver
	Hub      *refresh.Hub

	// DefaultSource is the incoming CSV used when the request does
	// not name one.
	DefaultSource string
}

func NewHandler(loader *Loader, archiver *Archiver, hub *refresh.Hub, defaultSource string) *Handler {
	return &Handler{
		Loader:        loader,
		Archiver:      archiver,
		Hub:           hub,
		DefaultSource: defaultSource,
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/run", h.run) // POST /etl/run
}

type runRequest struct {
	Path string `json:"path"`
}

func (h *Handler) run(c *gin.Context) {
	var req runRequest
	// empty body is fine; fall back to the configured source
	_ = c.ShouldBindJSON(&req)

	path := req.Path
	if path == "" {
		path = h.DefaultSource
	}
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no source csv configured or provided"})
		return
	}
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "source csv not found"})
		return
	}

	records, err := ReadCSV(path)
	if err != nil {
		log.Printf("[etl] read %s failed: %v", path, err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "source csv unreadable"})
		return
	}

	summary, err := h.Loader.Load(c.Request.Context(), path, records)
	if err != nil {
		// prior table is intact and the source stays where it was
		log.Printf("[etl] load failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load failed"})
		return
	}

	archived := ""
	if h.Archiver != nil {
		dst, err := h.Archiver.Archive(path)
		if err != nil {
			log.Printf("[etl] archive failed: %v", err)
		} else {
			archived = dst
		}
	}

	if h.Hub != nil {
		h.Hub.Broadcast(refresh.ReloadEvent(summary))
	}

	log.Printf("[etl] run %s: accepted=%d rejected=%d", summary.RunID, summary.Accepted, summary.Rejected)
	c.JSON(http.StatusOK, gin.H{
		"summary":  summary,
		"archived": archived,
	})
}
