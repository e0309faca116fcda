package refresh

import (
	"time"

	"moviedash/pkg/models"
)

// Event types pushed to dashboards.
const (
	// TypeReload signals that the movies table was replaced and every
	// dashboard view should be re-queried.
	TypeReload = "dataset.reload"
)

type Event struct {
	Type    string             `json:"type"`
	Summary models.LoadSummary `json:"summary"`
	At      time.Time          `json:"at"`
}

// ReloadEvent wraps a load summary into the event dashboards expect
// after a successful ETL run.
func ReloadEvent(summary models.LoadSummary) Event {
	return Event{
		Type:    TypeReload,
		Summary: summary,
		At:      time.Now().UTC(),
	}
}
