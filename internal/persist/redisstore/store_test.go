package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/tome/pkg/world"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a store connected to a miniredis instance
func setupTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	mr := miniredis.NewMiniRedis()
	err := mr.Start()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store, err := New(&redis.Options{Addr: mr.Addr()}, "test-library", nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store, mr
}

func testCampaign(name string) *world.Document {
	doc := &world.Document{
		ID:           world.NewCampaignID(),
		Name:         name,
		Description:  "A test campaign",
		CreatedAt:    world.DateOf(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)),
		LastModified: world.DateOf(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)),
		Records:      map[world.Category][]*world.Record{},
	}
	doc.Records[world.CategoryNPCs] = []*world.Record{{
		ID:          1,
		Fields:      &world.NPCFields{Name: "Barkeep"},
		LinkedItems: world.Links{world.CategoryLocations: {2}},
		CreatedAt:   doc.CreatedAt,
	}}
	doc.Records[world.CategoryLocations] = []*world.Record{{
		ID:          2,
		Fields:      &world.LocationFields{Name: "Inn"},
		LinkedItems: world.Links{world.CategoryNPCs: {1}},
		CreatedAt:   doc.CreatedAt,
	}}
	return doc
}

func TestNew(t *testing.T) {
	t.Run("creates store successfully", func(t *testing.T) {
		store, _ := setupTestStore(t)
		assert.Equal(t, "test-library", store.Library())
		assert.NoError(t, store.Ping(context.Background()))
	})

	t.Run("rejects empty library name", func(t *testing.T) {
		_, err := New(&redis.Options{Addr: "localhost:6379"}, "", nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "library name cannot be empty")
	})

	t.Run("parses URLs", func(t *testing.T) {
		mr := miniredis.RunT(t)
		store, err := NewFromURL("redis://"+mr.Addr()+"/0", "lib", nil)
		require.NoError(t, err)
		defer store.Close()
		assert.NoError(t, store.Ping(context.Background()))

		_, err = NewFromURL("not-a-url", "lib", nil)
		assert.Error(t, err)
	})
}

func TestLoadAll_Empty(t *testing.T) {
	store, _ := setupTestStore(t)

	docs, err := store.LoadAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestSaveAll_RoundTrip(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	first := testCampaign("Curse of the Fen")
	second := testCampaign("Salt and Iron")
	require.NoError(t, store.SaveAll(ctx, []*world.Document{first, second}))

	assert.True(t, mr.Exists(world.CampaignKey("test-library", first.ID)))
	order, err := mr.List(world.CampaignOrderKey("test-library"))
	require.NoError(t, err)
	assert.Equal(t, []string{string(first.ID), string(second.ID)}, order)

	docs, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Curse of the Fen", docs[0].Name)
	assert.Equal(t, "Salt and Iron", docs[1].Name)
	assert.Equal(t, first.LastModified, docs[0].LastModified)

	npcs := docs[0].Records[world.CategoryNPCs]
	require.Len(t, npcs, 1)
	assert.Equal(t, "Barkeep", npcs[0].Label())
	assert.Equal(t, []world.ID{2}, npcs[0].LinkedItems[world.CategoryLocations])
	assert.Empty(t, docs[0].Records[world.CategoryQuests])
}

func TestSaveAll_RemovesDroppedCampaigns(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	kept := testCampaign("Kept")
	dropped := testCampaign("Dropped")
	require.NoError(t, store.SaveAll(ctx, []*world.Document{kept, dropped}))
	require.NoError(t, store.SaveAll(ctx, []*world.Document{kept}))

	assert.False(t, mr.Exists(world.CampaignKey("test-library", dropped.ID)))
	docs, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, kept.ID, docs[0].ID)

	t.Run("saving an empty list clears everything", func(t *testing.T) {
		require.NoError(t, store.SaveAll(ctx, nil))
		assert.False(t, mr.Exists(world.CampaignKey("test-library", kept.ID)))
		assert.False(t, mr.Exists(world.CampaignOrderKey("test-library")))

		docs, err := store.LoadAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, docs)
	})
}

func TestLoadAll_SkipsBrokenEntries(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	good := testCampaign("Good")
	require.NoError(t, store.SaveAll(ctx, []*world.Document{good}))

	_, err := mr.RPush(world.CampaignOrderKey("test-library"), "missing", "corrupt")
	require.NoError(t, err)
	require.NoError(t, mr.Set(world.CampaignKey("test-library", "corrupt"), "not json"))

	docs, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Good", docs[0].Name)
}

func TestLibraryNamespacing(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	one, err := New(&redis.Options{Addr: mr.Addr()}, "one", nil)
	require.NoError(t, err)
	defer one.Close()
	two, err := New(&redis.Options{Addr: mr.Addr()}, "two", nil)
	require.NoError(t, err)
	defer two.Close()

	require.NoError(t, one.SaveAll(ctx, []*world.Document{testCampaign("Only in one")}))

	docs, err := two.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestSubscribe(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	t.Run("receives an event per save", func(t *testing.T) {
		sub, err := store.Subscribe(ctx)
		require.NoError(t, err)
		defer sub.Close()

		doc := testCampaign("Watched")
		require.NoError(t, store.SaveAll(ctx, []*world.Document{doc}))

		select {
		case event := <-sub.Events():
			require.Len(t, event.Campaigns, 1)
			assert.Equal(t, doc.ID, event.Campaigns[0].ID)
			assert.Equal(t, "Watched", event.Campaigns[0].Name)
			assert.Equal(t, 2, event.Campaigns[0].Records)
			assert.False(t, event.SavedAt.IsZero())
		case <-time.After(1 * time.Second):
			t.Fatal("timeout waiting for event")
		}
	})

	t.Run("reports undecodable messages", func(t *testing.T) {
		sub, err := store.Subscribe(ctx)
		require.NoError(t, err)
		defer sub.Close()

		require.NoError(t, store.rdb.Publish(ctx, world.CampaignEventsChannel("test-library"), "garbage").Err())

		select {
		case err := <-sub.Errors():
			assert.Contains(t, err.Error(), "failed to unmarshal campaign event")
		case <-time.After(1 * time.Second):
			t.Fatal("timeout waiting for error")
		}
	})

	t.Run("cleanup on Close", func(t *testing.T) {
		sub, err := store.Subscribe(ctx)
		require.NoError(t, err)

		assert.NoError(t, sub.Close())
		assert.NoError(t, sub.Close())
	})

	t.Run("cleanup on context cancellation", func(t *testing.T) {
		cancelCtx, cancel := context.WithCancel(ctx)

		sub, err := store.Subscribe(cancelCtx)
		require.NoError(t, err)

		cancel()

		select {
		case _, ok := <-sub.Events():
			assert.False(t, ok, "channel should be closed")
		case <-time.After(1 * time.Second):
			t.Fatal("timeout waiting for channel close")
		}
	})
}

func TestSaveAll_ErrorPaths(t *testing.T) {
	store, _ := setupTestStore(t)
	store.Close()

	err := store.SaveAll(context.Background(), []*world.Document{testCampaign("Offline")})
	assert.Error(t, err)

	_, err = store.LoadAll(context.Background())
	assert.Error(t, err)
}
