package persist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dyluth/tome/pkg/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedBackend blocks every SaveAll until the test releases it.
type gatedBackend struct {
	mu      sync.Mutex
	saved   [][]*world.Document
	err     error
	started chan struct{}
	gate    chan struct{}
}

func newGatedBackend() *gatedBackend {
	return &gatedBackend{
		started: make(chan struct{}, 16),
		gate:    make(chan struct{}),
	}
}

func (b *gatedBackend) LoadAll(ctx context.Context) ([]*world.Document, error) {
	return nil, nil
}

func (b *gatedBackend) SaveAll(ctx context.Context, docs []*world.Document) error {
	b.started <- struct{}{}
	<-b.gate
	b.mu.Lock()
	defer b.mu.Unlock()
	b.saved = append(b.saved, docs)
	return b.err
}

func (b *gatedBackend) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, docs := range b.saved {
		out = append(out, docs[0].Name)
	}
	return out
}

func snapshot(name string) []*world.Document {
	return []*world.Document{{ID: world.NewCampaignID(), Name: name}}
}

func waitStarted(t *testing.T, b *gatedBackend) {
	t.Helper()
	select {
	case <-b.started:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for save to start")
	}
}

func TestWriter_LatestSnapshotWins(t *testing.T) {
	backend := newGatedBackend()
	w := NewWriter(backend)

	w.Request(snapshot("first"))
	waitStarted(t, backend)

	// Arrive while the first save is in flight.
	w.Request(snapshot("second"))
	w.Request(snapshot("third"))
	w.Request(snapshot("fourth"))

	close(backend.gate)
	require.NoError(t, w.Flush(context.Background()))

	assert.Equal(t, []string{"first", "fourth"}, backend.names())
	requests, writes := w.Stats()
	assert.Equal(t, 4, requests)
	assert.Equal(t, 2, writes)
}

func TestWriter_OneSaveInFlight(t *testing.T) {
	backend := newGatedBackend()
	w := NewWriter(backend)

	w.Request(snapshot("first"))
	waitStarted(t, backend)
	w.Request(snapshot("second"))

	select {
	case <-backend.started:
		t.Fatal("second save started while the first was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	backend.gate <- struct{}{}
	waitStarted(t, backend)
	backend.gate <- struct{}{}
	require.NoError(t, w.Flush(context.Background()))
	assert.Equal(t, []string{"first", "second"}, backend.names())
}

func TestWriter_ReportsErrors(t *testing.T) {
	backend := newGatedBackend()
	backend.err = errors.New("disk full")
	close(backend.gate)

	var mu sync.Mutex
	var reported []error
	w := NewWriter(backend, WithErrorHandler(func(err error) {
		mu.Lock()
		defer mu.Unlock()
		reported = append(reported, err)
	}))

	w.Request(snapshot("doomed"))
	err := w.Flush(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	mu.Lock()
	assert.Len(t, reported, 1)
	mu.Unlock()

	t.Run("a later success clears the error", func(t *testing.T) {
		backend.mu.Lock()
		backend.err = nil
		backend.mu.Unlock()

		w.Request(snapshot("fine"))
		assert.NoError(t, w.Flush(context.Background()))
	})
}

func TestWriter_FlushIdle(t *testing.T) {
	w := NewWriter(NewMemory())
	assert.NoError(t, w.Flush(context.Background()))
}

func TestWriter_FlushHonoursContext(t *testing.T) {
	backend := newGatedBackend()
	w := NewWriter(backend)
	w.Request(snapshot("stuck"))
	waitStarted(t, backend)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, w.Flush(ctx), context.DeadlineExceeded)

	close(backend.gate)
	assert.NoError(t, w.Flush(context.Background()))
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	original := &world.Document{ID: "c1", Name: "Shadows"}
	m := NewMemory(original)

	original.Name = "mutated"
	loaded, err := m.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "Shadows", loaded[0].Name)

	require.NoError(t, m.SaveAll(ctx, nil))
	loaded, err = m.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
	assert.Equal(t, 1, m.Saves())
}
