// Package persist writes campaign lists to a backing store.
//
// A Backend loads and saves the whole campaign list at once. The Writer in front of it
// makes saves asynchronous for the caller: at most one save is in flight, requests made
// while it runs collapse into a single follow-up save, and the most recent snapshot is
// always the last one written.
package persist

import (
	"context"

	"github.com/dyluth/tome/pkg/world"
)

// Backend is a persistent home for the campaign list.
type Backend interface {
	// LoadAll returns the stored campaigns in list order. An empty store is not an error.
	LoadAll(ctx context.Context) ([]*world.Document, error)

	// SaveAll replaces the stored list with docs.
	SaveAll(ctx context.Context, docs []*world.Document) error
}
