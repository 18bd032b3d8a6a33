package mqtt

import "fmt"

// Topic prefixes for the Ferrite MQTT namespace.
//
// Collectors publish metric snapshots under ferrite/metrics; the core
// publishes its own lifecycle events under ferrite/system.
const (
	// TopicPrefixMetrics is the base for collector snapshot topics.
	// Scheme: ferrite/metrics/{app}/{monitor_id}
	TopicPrefixMetrics = "ferrite/metrics"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "ferrite/system"
)

// Topics provides builders for Ferrite MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	topic := topics.MetricsSnapshot("linux", 412)
//	// Returns: "ferrite/metrics/linux/412"
type Topics struct{}

// MetricsSnapshot returns the topic a collector publishes snapshots for one
// monitor to.
//
// Example: ferrite/metrics/linux/412
func (Topics) MetricsSnapshot(app string, monitorID int64) string {
	return fmt.Sprintf("%s/%s/%d", TopicPrefixMetrics, app, monitorID)
}

// AllMetrics returns a pattern matching every collector snapshot topic.
//
// Pattern: ferrite/metrics/#
func (Topics) AllMetrics() string {
	return TopicPrefixMetrics + "/#"
}

// SystemStatus returns the system status topic.
//
// Example: ferrite/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}
