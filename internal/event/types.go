package event

type EventType string

// Event types emitted by the discovery engine. Consumers aggregate these
// externally; the engine itself keeps no metric state.
const (
	ScanStartedEventType      EventType = "scan-started"
	ScanCompletedEventType    EventType = "scan-completed"
	ScanFailedEventType       EventType = "scan-failed"
	DeviceInspectedEventType  EventType = "device-inspected"
	DeviceExcludedEventType   EventType = "device-excluded"
	ConnectionTestedEventType EventType = "connection-tested"
)

// Event data structure representing anything a consumer may want to react to
type Event struct {
	Type    EventType
	Payload any
}

// ScanSummary payload for scan-completed events
type ScanSummary struct {
	DeviceCount int
	DurationMs  int64
}

// DeviceOutcome payload for device-inspected and device-excluded events
type DeviceOutcome struct {
	Endpoint     string
	RequiresAuth bool
	ProfileCount int
	Reason       string
}

// TestOutcome payload for connection-tested events
type TestOutcome struct {
	Success bool
	Class   string
}
