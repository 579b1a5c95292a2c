package graph

import (
	"math/rand/v2"
	"testing"

	"github.com/dyluth/tome/internal/store"
	"github.com/dyluth/tome/pkg/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collections map[world.Category]*store.Store

func (c collections) Collection(cat world.Category) *store.Store {
	return c[cat]
}

func setupTestCollections(t *testing.T) collections {
	t.Helper()
	ids := world.NewIDAllocator()
	cols := collections{}
	for _, c := range world.Categories() {
		cols[c] = store.New(c, ids)
	}
	return cols
}

func addRecord(t *testing.T, cols collections, c world.Category, label string) Endpoint {
	t.Helper()
	key := "name"
	if c == world.CategoryQuests || c == world.CategoryNotes {
		key = "title"
	}
	fields, err := world.FieldsFromMap(c, map[string]string{key: label})
	require.NoError(t, err)
	r, err := cols[c].Save(fields)
	require.NoError(t, err)
	return Endpoint{Category: c, ID: r.ID}
}

func live(t *testing.T, cols collections, e Endpoint) *world.Record {
	t.Helper()
	r, ok := cols[e.Category].Lookup(e.ID)
	require.True(t, ok, "record %s/%s should exist", e.Category, e.ID)
	return r
}

func deleteRecord(cols collections, e Endpoint) {
	Cascade(cols, e)
	cols[e.Category].Delete(e.ID, "")
}

func TestConnect_InnAndBarkeep(t *testing.T) {
	cols := setupTestCollections(t)
	inn := addRecord(t, cols, world.CategoryLocations, "Inn")
	barkeep := addRecord(t, cols, world.CategoryNPCs, "Barkeep")

	assert.True(t, Connect(cols, inn, barkeep))

	assert.Equal(t, []world.ID{barkeep.ID}, live(t, cols, inn).LinkedItems[world.CategoryNPCs])
	assert.Equal(t, []world.ID{inn.ID}, live(t, cols, barkeep).LinkedItems[world.CategoryLocations])
	assert.Equal(t, 1, ConnectionCount(live(t, cols, inn)))
	assert.Equal(t, 1, ConnectionCount(live(t, cols, barkeep)))

	deleteRecord(cols, inn)

	linked := LinkedItems(cols, live(t, cols, barkeep))
	locations, present := linked[world.CategoryLocations]
	assert.True(t, present, "category key survives the last link being removed")
	assert.Empty(t, locations)
	assert.Equal(t, 0, ConnectionCount(live(t, cols, barkeep)))
}

func TestConnect_Idempotent(t *testing.T) {
	cols := setupTestCollections(t)
	a := addRecord(t, cols, world.CategoryPlayers, "Aria")
	b := addRecord(t, cols, world.CategoryObjects, "Sword")

	assert.True(t, Connect(cols, a, b))
	assert.False(t, Connect(cols, a, b))
	assert.False(t, Connect(cols, b, a))

	assert.Equal(t, []world.ID{b.ID}, live(t, cols, a).LinkedItems[world.CategoryObjects])
	assert.Equal(t, []world.ID{a.ID}, live(t, cols, b).LinkedItems[world.CategoryPlayers])
}

func TestConnect_DisconnectThenReconnect(t *testing.T) {
	cols := setupTestCollections(t)
	a := addRecord(t, cols, world.CategoryQuests, "Find the Relic")
	b := addRecord(t, cols, world.CategoryNPCs, "Elder")

	require.True(t, Connect(cols, a, b))
	require.True(t, Disconnect(cols, a, b))
	require.True(t, Connect(cols, a, b))

	assert.Equal(t, []world.ID{b.ID}, live(t, cols, a).LinkedItems[world.CategoryNPCs])
	assert.Equal(t, []world.ID{a.ID}, live(t, cols, b).LinkedItems[world.CategoryQuests])
}

func TestConnect_RefusesSelfLink(t *testing.T) {
	cols := setupTestCollections(t)
	a := addRecord(t, cols, world.CategoryNPCs, "Mirror")

	assert.False(t, Connect(cols, a, a))
	assert.Nil(t, live(t, cols, a).LinkedItems)
}

func TestConnect_SameCategoryDifferentRecords(t *testing.T) {
	cols := setupTestCollections(t)
	a := addRecord(t, cols, world.CategoryNPCs, "Brother")
	b := addRecord(t, cols, world.CategoryNPCs, "Sister")

	assert.True(t, Connect(cols, a, b))
	assert.Equal(t, []world.ID{b.ID}, live(t, cols, a).LinkedItems[world.CategoryNPCs])
	assert.Equal(t, []world.ID{a.ID}, live(t, cols, b).LinkedItems[world.CategoryNPCs])
}

func TestConnect_MissingRecordIsNoOp(t *testing.T) {
	cols := setupTestCollections(t)
	a := addRecord(t, cols, world.CategoryLocations, "Tower")
	ghost := Endpoint{Category: world.CategoryNPCs, ID: 42}

	assert.False(t, Connect(cols, a, ghost))
	assert.False(t, Connect(cols, ghost, a))
	assert.Nil(t, live(t, cols, a).LinkedItems, "no partial link may be written")
}

func TestDisconnect(t *testing.T) {
	t.Run("absent link is a no-op", func(t *testing.T) {
		cols := setupTestCollections(t)
		a := addRecord(t, cols, world.CategoryLocations, "Tower")
		b := addRecord(t, cols, world.CategoryNPCs, "Wizard")

		assert.False(t, Disconnect(cols, a, b))
	})

	t.Run("keeps the category key", func(t *testing.T) {
		cols := setupTestCollections(t)
		a := addRecord(t, cols, world.CategoryLocations, "Tower")
		b := addRecord(t, cols, world.CategoryNPCs, "Wizard")
		require.True(t, Connect(cols, a, b))

		assert.True(t, Disconnect(cols, b, a))

		ids, present := live(t, cols, a).LinkedItems.Get(world.CategoryNPCs)
		assert.True(t, present)
		assert.Empty(t, ids)
	})

	t.Run("removes the surviving half when one side is gone", func(t *testing.T) {
		cols := setupTestCollections(t)
		a := addRecord(t, cols, world.CategoryLocations, "Tower")
		b := addRecord(t, cols, world.CategoryNPCs, "Wizard")
		require.True(t, Connect(cols, a, b))
		cols[world.CategoryNPCs].Delete(b.ID, "Wizard")

		assert.True(t, Disconnect(cols, a, b))
		assert.Empty(t, live(t, cols, a).LinkedItems[world.CategoryNPCs])
	})
}

func TestLinkedItems(t *testing.T) {
	cols := setupTestCollections(t)
	inn := addRecord(t, cols, world.CategoryLocations, "Inn")
	barkeep := addRecord(t, cols, world.CategoryNPCs, "Barkeep")
	cook := addRecord(t, cols, world.CategoryNPCs, "Cook")
	ale := addRecord(t, cols, world.CategoryObjects, "Ale")

	Connect(cols, inn, barkeep)
	Connect(cols, inn, cook)
	Connect(cols, inn, ale)

	linked := LinkedItems(cols, live(t, cols, inn))
	require.Len(t, linked, 2)
	require.Len(t, linked[world.CategoryNPCs], 2)
	assert.Equal(t, "Barkeep", linked[world.CategoryNPCs][0].Label())
	assert.Equal(t, "Cook", linked[world.CategoryNPCs][1].Label())
	assert.Equal(t, "Ale", linked[world.CategoryObjects][0].Label())

	linked[world.CategoryNPCs][0].LinkedItems = nil
	assert.NotNil(t, live(t, cols, barkeep).LinkedItems, "results must be copies")

	t.Run("drops ids that do not resolve", func(t *testing.T) {
		live(t, cols, inn).LinkedItems.Add(world.CategoryQuests, 999)
		linked := LinkedItems(cols, live(t, cols, inn))
		quests, present := linked[world.CategoryQuests]
		assert.True(t, present)
		assert.Empty(t, quests)
	})

	t.Run("nil record", func(t *testing.T) {
		assert.Empty(t, LinkedItems(cols, nil))
	})
}

func TestAvailableItems(t *testing.T) {
	cols := setupTestCollections(t)
	a := addRecord(t, cols, world.CategoryNPCs, "A")
	b := addRecord(t, cols, world.CategoryNPCs, "B")
	c := addRecord(t, cols, world.CategoryNPCs, "C")
	tower := addRecord(t, cols, world.CategoryLocations, "Tower")

	Connect(cols, a, b)

	t.Run("excludes self and already linked", func(t *testing.T) {
		available := AvailableItems(cols, a, world.CategoryNPCs)
		require.Len(t, available, 1)
		assert.Equal(t, c.ID, available[0].ID)
	})

	t.Run("other category", func(t *testing.T) {
		available := AvailableItems(cols, a, world.CategoryLocations)
		require.Len(t, available, 1)
		assert.Equal(t, tower.ID, available[0].ID)
	})

	t.Run("empty category", func(t *testing.T) {
		available := AvailableItems(cols, a, world.CategoryQuests)
		assert.NotNil(t, available)
		assert.Empty(t, available)
	})

	t.Run("missing source treats nothing as linked", func(t *testing.T) {
		ghost := Endpoint{Category: world.CategoryPlayers, ID: 7}
		assert.Len(t, AvailableItems(cols, ghost, world.CategoryNPCs), 3)
	})
}

func TestConnectionCount(t *testing.T) {
	assert.Equal(t, 0, ConnectionCount(nil))
	assert.Equal(t, 0, ConnectionCount(&world.Record{}))
	assert.Equal(t, 3, ConnectionCount(&world.Record{LinkedItems: world.Links{
		world.CategoryNPCs:    {1, 2},
		world.CategoryQuests:  {3},
		world.CategoryObjects: {},
	}}))
}

func TestCascade(t *testing.T) {
	cols := setupTestCollections(t)
	hub := addRecord(t, cols, world.CategoryLocations, "Hub")
	spokes := []Endpoint{
		addRecord(t, cols, world.CategoryNPCs, "One"),
		addRecord(t, cols, world.CategoryPlayers, "Two"),
		addRecord(t, cols, world.CategoryNotes, "Three"),
		addRecord(t, cols, world.CategoryLocations, "Four"),
	}
	bystander := addRecord(t, cols, world.CategoryQuests, "Unrelated")
	for _, s := range spokes {
		require.True(t, Connect(cols, hub, s))
	}
	require.True(t, Connect(cols, spokes[0], bystander))

	assert.Equal(t, len(spokes), Cascade(cols, hub))
	cols[world.CategoryLocations].Delete(hub.ID, "Hub")

	for _, s := range spokes {
		assert.False(t, live(t, cols, s).LinkedItems.Has(world.CategoryLocations, hub.ID))
	}
	assert.True(t, live(t, cols, spokes[0]).LinkedItems.Has(world.CategoryQuests, bystander.ID))
	assert.Empty(t, Audit(cols))

	assert.Equal(t, 0, Cascade(cols, hub), "cascading a deleted record is a no-op")
}

// Random sequences of connect, disconnect and delete must never leave an asymmetric,
// dangling or self link behind.
func TestGraphInvariantsUnderRandomOperations(t *testing.T) {
	cols := setupTestCollections(t)
	rng := rand.New(rand.NewPCG(1, 2))
	cats := world.Categories()

	var endpoints []Endpoint
	for i := 0; i < 24; i++ {
		endpoints = append(endpoints, addRecord(t, cols, cats[i%len(cats)], "record"))
	}

	for step := 0; step < 500; step++ {
		a := endpoints[rng.IntN(len(endpoints))]
		b := endpoints[rng.IntN(len(endpoints))]
		switch rng.IntN(10) {
		case 0:
			deleteRecord(cols, a)
		case 1, 2, 3:
			Disconnect(cols, a, b)
		default:
			Connect(cols, a, b)
		}
		require.Empty(t, Audit(cols), "step %d", step)
	}
}
