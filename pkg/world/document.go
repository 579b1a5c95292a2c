package world

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidDocument is returned when a campaign document lacks its minimal shape.
var ErrInvalidDocument = errors.New("invalid campaign document")

// CampaignID identifies a campaign. New campaigns get a UUID; older documents may
// carry numeric ids, which are kept as their decimal string.
type CampaignID string

// NewCampaignID returns a fresh random campaign id.
func NewCampaignID() CampaignID {
	return CampaignID(uuid.New().String())
}

// Document is the persisted form of one campaign: metadata plus one record array per
// category. It is the unit handed to the persistence and export collaborators.
type Document struct {
	ID           CampaignID `validate:"required"`
	Name         string     `validate:"required"`
	Description  string
	CreatedAt    Date
	LastModified Date
	Records      map[Category][]*Record
}

// Validate checks the minimal shape every campaign must have: an id and a name.
// Record contents are not re-validated; tolerant decoding already normalised them.
func (d *Document) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, formatValidationError("campaign", err))
	}
	for c := range d.Records {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
	}
	return nil
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	out := &Document{
		ID:           d.ID,
		Name:         d.Name,
		Description:  d.Description,
		CreatedAt:    d.CreatedAt,
		LastModified: d.LastModified,
		Records:      make(map[Category][]*Record, len(d.Records)),
	}
	for c, records := range d.Records {
		cloned := make([]*Record, len(records))
		for i, r := range records {
			cloned[i] = r.Clone()
		}
		out.Records[c] = cloned
	}
	return out
}

// RecordCount is the number of records across all categories.
func (d *Document) RecordCount() int {
	total := 0
	for _, records := range d.Records {
		total += len(records)
	}
	return total
}
