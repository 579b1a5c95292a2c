// Package redisstore persists campaign lists in Redis and announces every save on a
// Pub/Sub channel so other sessions can follow along.
//
// Each campaign is a JSON string at tome:{library}:campaign:{id}; the list order lives
// in tome:{library}:campaigns. A save replaces both in one MULTI/EXEC transaction and
// then publishes a persist.Event on tome:{library}:campaign_events.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dyluth/tome/internal/persist"
	"github.com/dyluth/tome/pkg/world"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Store is a persist.Backend on Redis. All keys and channels are namespaced with the
// library name. Safe for concurrent use.
type Store struct {
	rdb     *redis.Client
	library string
	logger  *zap.Logger
}

// New creates a store for the named library.
// Returns an error if library is empty.
func New(redisOpts *redis.Options, library string, logger *zap.Logger) (*Store, error) {
	if library == "" {
		return nil, fmt.Errorf("library name cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		rdb:     redis.NewClient(redisOpts),
		library: library,
		logger:  logger,
	}, nil
}

// NewFromURL parses a redis:// URL and creates a store for the named library.
func NewFromURL(url, library string, logger *zap.Logger) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL %q: %w", url, err)
	}
	return New(opts, library, logger)
}

// Close closes the Redis connection. Implements io.Closer.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// Ping verifies Redis connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Library returns the namespace this store writes under.
func (s *Store) Library() string {
	return s.library
}

// LoadAll reads the campaign list in stored order. Campaigns whose key has vanished or
// whose JSON cannot be decoded are skipped with a warning.
func (s *Store) LoadAll(ctx context.Context) ([]*world.Document, error) {
	ids, err := s.rdb.LRange(ctx, world.CampaignOrderKey(s.library), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read campaign order from Redis: %w", err)
	}
	if len(ids) == 0 {
		return []*world.Document{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = world.CampaignKey(s.library, world.CampaignID(id))
	}
	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read campaigns from Redis: %w", err)
	}

	docs := make([]*world.Document, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			s.logger.Warn("campaign listed but missing", zap.String("campaign_id", ids[i]))
			continue
		}
		var doc world.Document
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			s.logger.Warn("skipping unreadable campaign",
				zap.String("campaign_id", ids[i]),
				zap.Error(err))
			continue
		}
		docs = append(docs, &doc)
	}
	return docs, nil
}

// SaveAll replaces the stored list with docs atomically, deleting campaigns that are no
// longer listed, then publishes an Event.
func (s *Store) SaveAll(ctx context.Context, docs []*world.Document) error {
	payloads := make(map[world.CampaignID][]byte, len(docs))
	order := make([]interface{}, 0, len(docs))
	for _, doc := range docs {
		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to serialize campaign %s: %w", doc.ID, err)
		}
		payloads[doc.ID] = data
		order = append(order, string(doc.ID))
	}

	orderKey := world.CampaignOrderKey(s.library)
	previous, err := s.rdb.LRange(ctx, orderKey, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to read campaign order from Redis: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range previous {
			if _, kept := payloads[world.CampaignID(id)]; !kept {
				pipe.Del(ctx, world.CampaignKey(s.library, world.CampaignID(id)))
			}
		}
		for _, doc := range docs {
			pipe.Set(ctx, world.CampaignKey(s.library, doc.ID), payloads[doc.ID], 0)
		}
		pipe.Del(ctx, orderKey)
		if len(order) > 0 {
			pipe.RPush(ctx, orderKey, order...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write campaigns to Redis: %w", err)
	}

	event := persist.NewEvent(docs, time.Now())
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal campaign event: %w", err)
	}
	if err := s.rdb.Publish(ctx, world.CampaignEventsChannel(s.library), eventJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish campaign event: %w", err)
	}

	s.logger.Debug("saved campaigns",
		zap.String("library", s.library),
		zap.Int("campaigns", len(docs)))
	return nil
}

// Subscription is an active Pub/Sub subscription to campaign events.
// Caller must call Close() when done.
type Subscription struct {
	events <-chan *persist.Event
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of campaign events. It is closed when the subscription
// is closed or its context is cancelled.
func (s *Subscription) Events() <-chan *persist.Event {
	return s.events
}

// Errors returns undecodable messages. The subscription continues after errors.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription. Safe to call multiple times.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// Subscribe follows campaign events for this library. It returns once Redis has
// confirmed the subscription, so saves made afterwards are always delivered.
//
// Events are delivered on a buffered channel (size 10). Redis Pub/Sub is at-most-once:
// a subscriber that falls too far behind loses events.
func (s *Store) Subscribe(ctx context.Context) (*Subscription, error) {
	pubsub := s.rdb.Subscribe(ctx, world.CampaignEventsChannel(s.library))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to campaign events: %w", err)
	}

	eventsChan := make(chan *persist.Event, 10)
	errorsChan := make(chan error, 10)
	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var event persist.Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal campaign event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- &event:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}
