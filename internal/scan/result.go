package scan

import "time"

// Status represents the lifecycle state of a discovery scan
type Status string

const (
	StatusScanning Status = "scanning"
	StatusComplete Status = "complete"
	StatusError    Status = "error"
)

// StreamProfile is one media profile offered by a device. Immutable once
// constructed.
type StreamProfile struct {
	Name    string `json:"name"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	FPS     int    `json:"fps"`
	RTSPURL string `json:"rtspUrl"`
}

// DiscoveredCamera is one device found in a single scan. The ID is scan
// scoped; reconciling identity across scans is the catalog's job, keyed on
// MACAddress or the RTSP host when MAC is unavailable.
type DiscoveredCamera struct {
	ID             string          `json:"id"`
	Endpoint       string          `json:"endpoint"`
	Name           string          `json:"name"`
	Manufacturer   string          `json:"manufacturer"`
	Model          string          `json:"model"`
	IPAddress      string          `json:"ipAddress"`
	MACAddress     string          `json:"macAddress,omitempty"`
	PrimaryRTSPURL string          `json:"primaryRtspUrl,omitempty"`
	RequiresAuth   bool            `json:"requiresAuth"`
	Profiles       []StreamProfile `json:"profiles"`
	DiscoveredAt   time.Time       `json:"discoveredAt"`
}

// DiscoveryResult is the aggregate snapshot of one scan. Cameras appear in
// inspection-completion order.
type DiscoveryResult struct {
	Status     Status              `json:"status"`
	StartedAt  time.Time           `json:"startedAt"`
	DurationMs int64               `json:"durationMs,omitempty"`
	Cameras    []*DiscoveredCamera `json:"cameras"`
	Error      string              `json:"error,omitempty"`
}

// copyResult returns a snapshot safe to hand to a poller while the scan
// goroutine keeps appending. Cameras are copied by value so callers cannot
// reach back into the live aggregate.
func copyResult(r *DiscoveryResult) *DiscoveryResult {
	cameras := make([]*DiscoveredCamera, len(r.Cameras))

	for i, camera := range r.Cameras {
		clone := *camera
		clone.Profiles = make([]StreamProfile, len(camera.Profiles))
		copy(clone.Profiles, camera.Profiles)
		cameras[i] = &clone
	}

	return &DiscoveryResult{
		Status:     r.Status,
		StartedAt:  r.StartedAt,
		DurationMs: r.DurationMs,
		Cameras:    cameras,
		Error:      r.Error,
	}
}

// SelectPrimary picks the best profile url: highest resolution first, then
// higher fps, then first-seen order. Deterministic for a given profile slice.
func SelectPrimary(profiles []StreamProfile) string {
	if len(profiles) == 0 {
		return ""
	}

	best := 0

	for i := 1; i < len(profiles); i++ {
		if betterProfile(profiles[i], profiles[best]) {
			best = i
		}
	}

	return profiles[best].RTSPURL
}

// betterProfile reports whether a strictly beats b. Equal profiles keep b so
// ties resolve to first-seen.
func betterProfile(a, b StreamProfile) bool {
	if a.Width*a.Height != b.Width*b.Height {
		return a.Width*a.Height > b.Width*b.Height
	}

	return a.FPS > b.FPS
}
