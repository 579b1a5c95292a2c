package persist

import (
	"context"
	"sync"
	"time"

	"github.com/dyluth/tome/pkg/world"
	"go.uber.org/zap"
)

// DefaultSaveTimeout bounds one SaveAll call made by a Writer.
const DefaultSaveTimeout = 30 * time.Second

// Writer serialises saves of the campaign list onto a Backend. Request never blocks on
// I/O. Safe for concurrent use.
type Writer struct {
	backend Backend
	logger  *zap.Logger
	timeout time.Duration
	onError func(error)

	mu       sync.Mutex
	pending  []*world.Document
	queued   bool
	running  bool
	done     chan struct{}
	lastErr  error
	requests int
	writes   int
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithLogger sets the logger used for save failures.
func WithLogger(logger *zap.Logger) WriterOption {
	return func(w *Writer) { w.logger = logger }
}

// WithErrorHandler registers fn to be called after every failed save.
// It runs on the writer's goroutine.
func WithErrorHandler(fn func(error)) WriterOption {
	return func(w *Writer) { w.onError = fn }
}

// WithSaveTimeout overrides DefaultSaveTimeout.
func WithSaveTimeout(d time.Duration) WriterOption {
	return func(w *Writer) { w.timeout = d }
}

// NewWriter returns a Writer saving to backend.
func NewWriter(backend Backend, opts ...WriterOption) *Writer {
	w := &Writer{
		backend: backend,
		logger:  zap.NewNop(),
		timeout: DefaultSaveTimeout,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Request schedules snapshot to be saved. The caller must not modify snapshot
// afterwards. If a save is running the snapshot replaces any earlier queued one and is
// written as soon as the running save finishes.
func (w *Writer) Request(snapshot []*world.Document) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.requests++
	w.pending = snapshot
	w.queued = true
	if w.running {
		return
	}
	w.running = true
	w.done = make(chan struct{})
	go w.run(w.done)
}

func (w *Writer) run(done chan struct{}) {
	for {
		w.mu.Lock()
		if !w.queued {
			w.running = false
			w.mu.Unlock()
			close(done)
			return
		}
		snapshot := w.pending
		w.pending = nil
		w.queued = false
		w.mu.Unlock()

		err := w.save(snapshot)

		w.mu.Lock()
		w.lastErr = err
		w.writes++
		w.mu.Unlock()

		if err != nil {
			w.logger.Error("failed to save campaigns",
				zap.Int("campaigns", len(snapshot)),
				zap.Error(err))
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}

func (w *Writer) save(snapshot []*world.Document) error {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	return w.backend.SaveAll(ctx, snapshot)
}

// Flush waits until every requested snapshot has been written and returns the error of
// the last save, if any.
func (w *Writer) Flush(ctx context.Context) error {
	for {
		w.mu.Lock()
		if !w.running {
			err := w.lastErr
			w.mu.Unlock()
			return err
		}
		done := w.done
		w.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Stats reports how many saves were requested and how many were written.
func (w *Writer) Stats() (requests, writes int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.requests, w.writes
}
