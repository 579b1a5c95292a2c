// Package badgerstore persists campaign lists in an embedded Badger database.
package badgerstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/dyluth/tome/pkg/world"
	"go.uber.org/zap"
)

const (
	campaignPrefix = "campaign/"
	orderKey       = "campaigns/order"
)

func campaignKey(id world.CampaignID) []byte {
	return []byte(campaignPrefix + string(id))
}

// Store is a persist.Backend on Badger.
type Store struct {
	db     *badger.DB
	logger *zap.Logger
}

// Open opens (or creates) the database in dir.
func Open(dir string, logger *zap.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir).
		WithLoggingLevel(badger.ERROR)
	return open(opts, logger)
}

// OpenInMemory opens a database that lives only as long as the process.
func OpenInMemory(logger *zap.Logger) (*Store, error) {
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.ERROR)
	return open(opts, logger)
}

func open(opts badger.Options, logger *zap.Logger) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadAll reads the campaign list in stored order, skipping entries that are missing
// or cannot be decoded.
func (s *Store) LoadAll(ctx context.Context) ([]*world.Document, error) {
	docs := []*world.Document{}
	err := s.db.View(func(txn *badger.Txn) error {
		var order []world.CampaignID
		item, err := txn.Get([]byte(orderKey))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &order)
		}); err != nil {
			return fmt.Errorf("corrupt campaign order: %w", err)
		}

		for _, id := range order {
			if err := ctx.Err(); err != nil {
				return err
			}
			item, err := txn.Get(campaignKey(id))
			if err == badger.ErrKeyNotFound {
				s.logger.Warn("campaign listed but missing", zap.String("campaign_id", string(id)))
				continue
			}
			if err != nil {
				return err
			}
			var doc world.Document
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &doc)
			}); err != nil {
				s.logger.Warn("skipping unreadable campaign",
					zap.String("campaign_id", string(id)),
					zap.Error(err))
				continue
			}
			docs = append(docs, &doc)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load campaigns: %w", err)
	}
	return docs, nil
}

// SaveAll replaces the stored list with docs in a single transaction.
func (s *Store) SaveAll(ctx context.Context, docs []*world.Document) error {
	order := make([]world.CampaignID, 0, len(docs))
	payloads := make(map[world.CampaignID][]byte, len(docs))
	for _, doc := range docs {
		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to serialize campaign %s: %w", doc.ID, err)
		}
		payloads[doc.ID] = data
		order = append(order, doc.ID)
	}
	orderJSON, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to serialize campaign order: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		var stale [][]byte
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(campaignPrefix)
		it := txn.NewIterator(opts)
		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().KeyCopy(nil)
			id := world.CampaignID(key[len(campaignPrefix):])
			if _, kept := payloads[id]; !kept {
				stale = append(stale, key)
			}
		}
		it.Close()

		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		for _, id := range order {
			if err := txn.Set(campaignKey(id), payloads[id]); err != nil {
				return err
			}
		}
		return txn.Set([]byte(orderKey), orderJSON)
	})
	if err != nil {
		return fmt.Errorf("failed to save campaigns: %w", err)
	}

	s.logger.Debug("saved campaigns", zap.Int("campaigns", len(docs)))
	return nil
}
