package models

// DiscoveredRelay represents a relay announced on the local network.
type DiscoveredRelay struct {
	InstanceName      string `json:"instance_name"`
	URL               string `json:"url"`
	Host              string `json:"host"`
	Port              int    `json:"port"`
	Name              string `json:"name"`
	LastSeenTimestamp int64  `json:"last_seen_timestamp"`
}
