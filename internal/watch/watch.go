// Package watch follows saves of a campaign library and describes what changed.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dyluth/tome/internal/persist"
	"go.uber.org/zap"
)

// DefaultPollInterval is how often Poll reloads a backend.
const DefaultPollInterval = 2 * time.Second

// Source delivers saved-list events. Both redisstore.Subscription and Poller are sources.
type Source interface {
	Events() <-chan *persist.Event
	Errors() <-chan error
}

// OutputFormat selects how Follow renders events.
type OutputFormat string

const (
	// OutputFormatDefault writes one human-readable line per change
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSONL writes every event as one JSON object per line
	OutputFormatJSONL OutputFormat = "jsonl"
)

// Poller turns any backend into a Source by reloading it on an interval and emitting
// an event whenever the campaign summary changes. The first load always emits.
// Caller must call Close() when done.
type Poller struct {
	events chan *persist.Event
	errors chan error
	cancel func()
	once   sync.Once
}

// Poll starts polling backend every interval until ctx is cancelled or Close is called.
func Poll(ctx context.Context, backend persist.Backend, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	pollCtx, cancel := context.WithCancel(ctx)
	p := &Poller{
		events: make(chan *persist.Event, 10),
		errors: make(chan error, 10),
		cancel: cancel,
	}

	go func() {
		defer close(p.events)
		defer close(p.errors)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var last *persist.Event
		for {
			docs, err := backend.LoadAll(pollCtx)
			if err != nil {
				select {
				case p.errors <- fmt.Errorf("failed to load campaigns: %w", err):
				case <-pollCtx.Done():
					return
				}
			} else if event := persist.NewEvent(docs, time.Now()); last == nil || !event.SameCampaigns(last) {
				last = event
				select {
				case p.events <- event:
				case <-pollCtx.Done():
					return
				}
			}

			select {
			case <-pollCtx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return p
}

// Events returns the channel of changes. It is closed when polling stops.
func (p *Poller) Events() <-chan *persist.Event {
	return p.events
}

// Errors returns load failures. Polling continues after errors.
func (p *Poller) Errors() <-chan error {
	return p.errors
}

// Close stops polling. Safe to call multiple times.
func (p *Poller) Close() error {
	p.once.Do(p.cancel)
	return nil
}

// Follow writes events from src to w until ctx is cancelled or src is exhausted.
// Source errors are logged and skipped. Returns an error only if writing fails.
// A source is exhausted once both of its channels are closed.
func Follow(ctx context.Context, src Source, w io.Writer, format OutputFormat, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	events, errs := src.Events(), src.Errors()
	var prev *persist.Event
	for events != nil || errs != nil {
		select {
		case <-ctx.Done():
			return nil

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("watch error", zap.Error(err))

		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if err := writeEvent(w, format, prev, event); err != nil {
				return err
			}
			prev = event
		}
	}
	return nil
}

func writeEvent(w io.Writer, format OutputFormat, prev, event *persist.Event) error {
	switch format {
	case OutputFormatJSONL:
		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal event to JSON: %w", err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	case OutputFormatDefault, "":
		stamp := event.SavedAt.Local().Format("15:04:05")
		for _, line := range Describe(prev, event) {
			if _, err := fmt.Fprintf(w, "[%s] %s\n", stamp, line); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
	return nil
}
