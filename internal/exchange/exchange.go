// Package exchange reads and writes single-campaign JSON documents for sharing
// campaigns between libraries.
package exchange

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dyluth/tome/pkg/world"
)

// MaxImportSize bounds how much of an import stream is read.
const MaxImportSize = 32 << 20

// Export writes doc as one indented JSON document.
func Export(w io.Writer, doc *world.Document) error {
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("cannot export campaign: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize campaign: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write campaign: %w", err)
	}
	return nil
}

// Import reads one campaign document. It must carry an id and a name; everything else
// is optional and malformed link lists are tolerated. The returned document has a fresh
// id and its createdAt and lastModified reset to the day of now.
func Import(r io.Reader, now time.Time) (*world.Document, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImportSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read campaign: %w", err)
	}
	if len(data) > MaxImportSize {
		return nil, fmt.Errorf("campaign file exceeds %d bytes", MaxImportSize)
	}

	var doc world.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", world.ErrInvalidDocument, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	today := world.DateOf(now)
	doc.ID = world.NewCampaignID()
	doc.CreatedAt = today
	doc.LastModified = today
	return &doc, nil
}
