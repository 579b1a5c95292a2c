// Package world provides the campaign world model shared by every tome component.
//
// # Overview
//
// A campaign holds six fixed categories of records: locations, players, npcs,
// objects, quests and notes. Each record carries an id, typed category fields,
// creation and modification stamps, and a link map naming records in other
// categories it is connected to.
//
// # Records and fields
//
// Field sets differ per category, so each category has its own struct implementing
// Fields. The store, graph and search packages only ever use the Fields interface:
// Label for display and SearchText for secondary matches.
//
//	f, err := world.FieldsFromMap(world.CategoryNPCs, map[string]string{
//		"name": "Barkeep",
//		"role": "Innkeeper",
//	})
//
// # Links
//
// Links maps a category to an ordered set of ids. An absent key and an empty list
// are distinct states; Get reports which one applies. Decoding tolerates malformed
// link data from imports, encoding always writes arrays.
//
// # Persisted layout
//
// A Document is one campaign as persisted or exported:
//
//	{ "id": "...", "name": "...", "description": "...",
//	  "createdAt": "YYYY-MM-DD", "lastModified": "YYYY-MM-DD",
//	  "locations": [...], "players": [...], "npcs": [...],
//	  "objects": [...], "quests": [...], "notes": [...] }
//
// # Redis Schema
//
// Campaigns: tome:{library}:campaign:{campaign_id}
// Campaign order: tome:{library}:campaigns
// Change events: tome:{library}:campaign_events
package world
