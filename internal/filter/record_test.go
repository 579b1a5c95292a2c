package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dyluth/tome/pkg/world"
)

func npc(name, status string, created time.Time, modified *time.Time) *world.Record {
	return &world.Record{
		ID:         1,
		Fields:     &world.NPCFields{Name: name, Status: status},
		CreatedAt:  world.DateOf(created),
		ModifiedAt: modified,
	}
}

func TestCriteria_Matches(t *testing.T) {
	day := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	later := day.Add(48 * time.Hour)
	gorm := npc("Gorm the Smith", "alive", day, nil)
	edited := npc("Marta", "Dead", day, &later)

	tests := []struct {
		name     string
		criteria Criteria
		record   *world.Record
		want     bool
	}{
		{"no filters", Criteria{}, gorm, true},
		{"since excludes older", Criteria{SinceTimestampMs: day.Add(time.Hour).UnixMilli()}, gorm, false},
		{"since uses modifiedAt", Criteria{SinceTimestampMs: day.Add(time.Hour).UnixMilli()}, edited, true},
		{"until excludes newer", Criteria{UntilTimestampMs: day.Add(time.Hour).UnixMilli()}, edited, false},
		{"until includes creation day", Criteria{UntilTimestampMs: day.Add(time.Hour).UnixMilli()}, gorm, true},
		{"label glob", Criteria{LabelGlob: "gorm*"}, gorm, true},
		{"label glob miss", Criteria{LabelGlob: "marta*"}, gorm, false},
		{"bad glob never matches", Criteria{LabelGlob: "["}, gorm, false},
		{"status case-insensitive", Criteria{Status: "dead"}, edited, true},
		{"status miss", Criteria{Status: "dead"}, gorm, false},
		{"all criteria", Criteria{LabelGlob: "*smith", Status: "ALIVE", UntilTimestampMs: later.UnixMilli()}, gorm, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.criteria.Matches(tt.record))
		})
	}
}

func TestCriteria_StatusOnCategoryWithoutStatus(t *testing.T) {
	note := &world.Record{ID: 2, Fields: &world.NoteFields{Title: "Session 1"}}
	c := Criteria{Status: "open"}
	assert.False(t, c.Matches(note))
}

func TestCriteria_HasFilters(t *testing.T) {
	assert.False(t, (&Criteria{}).HasFilters())
	assert.True(t, (&Criteria{SinceTimestampMs: 1}).HasFilters())
	assert.True(t, (&Criteria{UntilTimestampMs: 1}).HasFilters())
	assert.True(t, (&Criteria{LabelGlob: "a*"}).HasFilters())
	assert.True(t, (&Criteria{Status: "open"}).HasFilters())
}

func TestCriteria_Apply(t *testing.T) {
	day := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	records := []*world.Record{
		npc("Alda", "alive", day, nil),
		npc("Bren", "dead", day, nil),
		npc("Cora", "alive", day, nil),
	}

	all := (&Criteria{}).Apply(records)
	assert.Len(t, all, 3)

	alive := (&Criteria{Status: "alive"}).Apply(records)
	if assert.Len(t, alive, 2) {
		assert.Equal(t, "Alda", alive[0].Label())
		assert.Equal(t, "Cora", alive[1].Label())
	}
}
