package persist

import (
	"time"

	"github.com/dyluth/tome/pkg/world"
)

// Event announces a saved campaign list.
type Event struct {
	SavedAt   time.Time         `json:"saved_at"`
	Campaigns []CampaignSummary `json:"campaigns"`
}

// CampaignSummary describes one campaign of a saved list.
type CampaignSummary struct {
	ID           world.CampaignID `json:"id"`
	Name         string           `json:"name"`
	Records      int              `json:"records"`
	LastModified world.Date       `json:"last_modified"`
}

// NewEvent summarises docs as saved at t.
func NewEvent(docs []*world.Document, t time.Time) *Event {
	event := &Event{
		SavedAt:   t.UTC(),
		Campaigns: make([]CampaignSummary, len(docs)),
	}
	for i, doc := range docs {
		event.Campaigns[i] = CampaignSummary{
			ID:           doc.ID,
			Name:         doc.Name,
			Records:      doc.RecordCount(),
			LastModified: doc.LastModified,
		}
	}
	return event
}

// SameCampaigns reports whether both events describe the same list, ignoring SavedAt.
func (e *Event) SameCampaigns(other *Event) bool {
	if e == nil || other == nil {
		return e == other
	}
	if len(e.Campaigns) != len(other.Campaigns) {
		return false
	}
	for i, a := range e.Campaigns {
		b := other.Campaigns[i]
		if a.ID != b.ID || a.Name != b.Name || a.Records != b.Records || !a.LastModified.Equal(b.LastModified.Time) {
			return false
		}
	}
	return true
}
