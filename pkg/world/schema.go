package world

import "fmt"

// Redis key pattern helpers
//
// All keys and Pub/Sub channels are namespaced by library name so several campaign
// libraries can share one Redis server.
//
// Key pattern: tome:{library}:{entity}[:{id}]
// Channel pattern: tome:{library}:{event_type}_events

// CampaignKey returns the Redis key holding one campaign document as JSON.
// Pattern: tome:{library}:campaign:{campaign_id}
func CampaignKey(library string, id CampaignID) string {
	return fmt.Sprintf("tome:%s:campaign:%s", library, id)
}

// CampaignPattern matches every campaign key of a library (for SCAN).
// Pattern: tome:{library}:campaign:*
func CampaignPattern(library string) string {
	return fmt.Sprintf("tome:%s:campaign:*", library)
}

// CampaignOrderKey returns the Redis list holding campaign ids in list order.
// Pattern: tome:{library}:campaigns
func CampaignOrderKey(library string) string {
	return fmt.Sprintf("tome:%s:campaigns", library)
}

// CampaignEventsChannel returns the Pub/Sub channel announcing saved campaign lists.
// Pattern: tome:{library}:campaign_events
func CampaignEventsChannel(library string) string {
	return fmt.Sprintf("tome:%s:campaign_events", library)
}
