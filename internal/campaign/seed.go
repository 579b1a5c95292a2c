package campaign

import (
	"github.com/dyluth/tome/internal/graph"
	"github.com/dyluth/tome/pkg/world"
)

// starterFields is one example record per category for new campaigns.
func starterFields() []world.Fields {
	return []world.Fields{
		&world.LocationFields{Name: "The Crossroads Inn", Type: "Tavern", Region: "Greymoor", Description: "A smoky waystation where every road meets", Icon: "🍺"},
		&world.PlayerFields{Name: "New Adventurer", Class: "Fighter", Race: "Human", Level: 1, Status: "active", Icon: "🛡️"},
		&world.NPCFields{Name: "Marta the Innkeeper", Role: "Innkeeper", Race: "Human", Attitude: "friendly", Description: "Hears every rumour before breakfast", Icon: "🧑‍🍳"},
		&world.ObjectFields{Name: "Weathered Map", Type: "Document", Rarity: "common", Description: "Marks a ruin nobody admits to visiting", Icon: "🗺️"},
		&world.QuestFields{Title: "The Missing Caravan", Giver: "Marta the Innkeeper", Reward: "50 gold", Priority: "high", Description: "A supply caravan never arrived at the inn", Status: "active"},
		&world.NoteFields{Title: "Session 0", Type: "session", Content: "Introductions, house rules and safety tools.", Tags: []string{"setup"}},
	}
}

// seed adds one starter record per category and links the innkeeper to the inn, the
// quest, and the quest to the map. It does not notify the change handler; callers persist.
func seed(c *Campaign) {
	endpoints := make(map[world.Category]graph.Endpoint)
	for _, f := range starterFields() {
		s := c.Collection(f.Category())
		r, err := s.Save(f)
		if err != nil {
			continue
		}
		endpoints[f.Category()] = graph.Endpoint{Category: f.Category(), ID: r.ID}
	}

	innkeeper := endpoints[world.CategoryNPCs]
	graph.Connect(c, innkeeper, endpoints[world.CategoryLocations])
	graph.Connect(c, innkeeper, endpoints[world.CategoryQuests])
	graph.Connect(c, endpoints[world.CategoryQuests], endpoints[world.CategoryObjects])
}
