package ledger

import (
	"fmt"
	"io"
	"time"

	"github.com/dyluth/tome/internal/campaign"
	"github.com/dyluth/tome/internal/filter"
	"github.com/dyluth/tome/pkg/world"
)

// OutputFormat specifies how to format list output.
type OutputFormat string

const (
	// OutputFormatDefault uses a table format with truncated summaries
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSONL outputs complete records as line-delimited JSON
	OutputFormatJSONL OutputFormat = "jsonl"

	// OutputFormatJSON outputs complete records as one JSON array
	OutputFormatJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value. Empty selects the default.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case "", OutputFormatDefault:
		return OutputFormatDefault, nil
	case OutputFormatJSONL, OutputFormatJSON:
		return OutputFormat(s), nil
	}
	return "", fmt.Errorf("unknown output format: %s (valid: default, jsonl, json)", s)
}

// ListRecords writes the records of one category of c in collection order.
// Applies filter criteria if provided.
func ListRecords(w io.Writer, c *campaign.Campaign, cat world.Category, format OutputFormat, filters *filter.Criteria, now time.Time) error {
	s := c.Collection(cat)
	if s == nil {
		return fmt.Errorf("unknown category: %q", cat)
	}

	records := s.Records()
	if filters != nil {
		records = filters.Apply(records)
	}

	switch format {
	case OutputFormatDefault:
		FormatRecordTable(w, cat, records, c.Name(), now)
	case OutputFormatJSONL:
		if err := FormatJSONL(w, records); err != nil {
			return fmt.Errorf("failed to format JSONL output: %w", err)
		}
	case OutputFormatJSON:
		if records == nil {
			records = []*world.Record{}
		}
		if err := FormatSingleJSON(w, records); err != nil {
			return fmt.Errorf("failed to format JSON output: %w", err)
		}
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}

	return nil
}
