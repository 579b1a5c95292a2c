package search

import (
	"testing"

	"github.com/dyluth/tome/internal/store"
	"github.com/dyluth/tome/pkg/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type source map[world.Category]*store.Store

func (s source) Collection(c world.Category) *store.Store {
	return s[c]
}

func setupTestSource(t *testing.T) source {
	t.Helper()
	ids := world.NewIDAllocator()
	src := source{}
	for _, c := range world.Categories() {
		src[c] = store.New(c, ids)
	}
	return src
}

func add(t *testing.T, src source, c world.Category, values map[string]string) *world.Record {
	t.Helper()
	fields, err := world.FieldsFromMap(c, values)
	require.NoError(t, err)
	r, err := src[c].Save(fields)
	require.NoError(t, err)
	return r
}

func labels(matches []Match) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Record.Label()
	}
	return out
}

func TestSearch_LabelRanksAboveSecondary(t *testing.T) {
	src := setupTestSource(t)
	add(t, src, world.CategoryNPCs, map[string]string{"name": "Old Hermit", "description": "Guards the dragon's hoard"})
	add(t, src, world.CategoryLocations, map[string]string{"name": "Dragon's Lair"})

	matches := Search("dragon", src, 0)
	require.Len(t, matches, 2)
	assert.Equal(t, "Dragon's Lair", matches[0].Record.Label())
	assert.Equal(t, RankLabel, matches[0].Rank)
	assert.Equal(t, world.CategoryLocations, matches[0].Category)
	assert.Equal(t, "Old Hermit", matches[1].Record.Label())
	assert.Equal(t, RankSecondary, matches[1].Rank)
}

func TestSearch_ShortQueries(t *testing.T) {
	src := setupTestSource(t)
	add(t, src, world.CategoryNPCs, map[string]string{"name": "A"})

	tests := []struct {
		name  string
		query string
	}{
		{"empty", ""},
		{"single character", "a"},
		{"single character padded", "  a  "},
		{"whitespace", "     "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, Search(tt.query, src, 0))
		})
	}
}

func TestSearch_CaseInsensitive(t *testing.T) {
	src := setupTestSource(t)
	add(t, src, world.CategoryQuests, map[string]string{"title": "The SUNKEN Temple"})

	assert.Len(t, Search("sunken", src, 0), 1)
	assert.Len(t, Search("  SuNkEn  ", src, 0), 1)
}

func TestSearch_SecondaryFields(t *testing.T) {
	src := setupTestSource(t)
	add(t, src, world.CategoryNPCs, map[string]string{"name": "Gorm", "role": "Blacksmith"})
	add(t, src, world.CategoryPlayers, map[string]string{"name": "Aria", "class": "Ranger"})
	add(t, src, world.CategoryObjects, map[string]string{"name": "Amulet", "type": "Jewellery"})
	add(t, src, world.CategoryQuests, map[string]string{"title": "Escort", "status": "active"})
	add(t, src, world.CategoryNPCs, map[string]string{"name": "Tib", "race": "Halfling"})

	assert.Equal(t, []string{"Gorm"}, labels(Search("smith", src, 0)))
	assert.Equal(t, []string{"Aria"}, labels(Search("range", src, 0)))
	assert.Equal(t, []string{"Amulet"}, labels(Search("jewel", src, 0)))
	assert.Equal(t, []string{"Escort"}, labels(Search("active", src, 0)))
	assert.Empty(t, Search("halfling", src, 0), "race is not searched")
}

func TestSearch_DeterministicOrder(t *testing.T) {
	src := setupTestSource(t)
	add(t, src, world.CategoryNotes, map[string]string{"title": "Moon notes"})
	add(t, src, world.CategoryLocations, map[string]string{"name": "Moon Gate"})
	add(t, src, world.CategoryNPCs, map[string]string{"name": "Moon Priest"})
	add(t, src, world.CategoryLocations, map[string]string{"name": "Moonwell"})
	add(t, src, world.CategoryLocations, map[string]string{"name": "Crater", "description": "A moon-shaped pit"})

	want := []string{"Moon Gate", "Moonwell", "Moon Priest", "Moon notes", "Crater"}
	for i := 0; i < 5; i++ {
		assert.Equal(t, want, labels(Search("moon", src, 0)))
	}
}

func TestSearch_Limit(t *testing.T) {
	src := setupTestSource(t)
	for i := 0; i < DefaultLimit+5; i++ {
		add(t, src, world.CategoryNPCs, map[string]string{"name": "Goblin"})
	}

	assert.Len(t, Search("goblin", src, 0), DefaultLimit)
	assert.Len(t, Search("goblin", src, 3), 3)
}

func TestSearch_ReadOnly(t *testing.T) {
	src := setupTestSource(t)
	r := add(t, src, world.CategoryNPCs, map[string]string{"name": "Goblin"})

	matches := Search("goblin", src, 0)
	require.Len(t, matches, 1)
	matches[0].Record.Fields.(*world.NPCFields).Name = "Changed"

	stored, ok := src[world.CategoryNPCs].Get(r.ID)
	require.True(t, ok)
	assert.Equal(t, "Goblin", stored.Label())
}
