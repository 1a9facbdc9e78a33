package scan

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/camscan-io/camscan/internal/event"
	"github.com/camscan-io/camscan/internal/logger"
	"github.com/camscan-io/camscan/internal/rtsp"
	"github.com/camscan-io/camscan/internal/wsdiscovery"
)

// ErrNoScan no scan has been started yet
var ErrNoScan = errors.New("no scan has been started")

// ErrExpired the terminal result outlived its freshness window; start a new
// scan
var ErrExpired = errors.New("scan result has expired")

// Service owns the scan lifecycle: single-flight scans, bounded fan-out of
// device inspections, and a pollable aggregate snapshot
type Service struct {
	prober       Prober
	inspector    Inspector
	streamProber StreamProber
	registry     *event.Registry
	concurrency  int
	scanTimeout  time.Duration
	freshness    time.Duration
	log          logger.Logger

	mux         sync.Mutex
	result      *DiscoveryResult
	seen        map[string]bool
	completedAt time.Time
	scanning    bool
}

// NewService returns a new discovery service
func NewService(
	prober Prober,
	inspector Inspector,
	streamProber StreamProber,
	registry *event.Registry,
	concurrency int,
	scanTimeout time.Duration,
	freshness time.Duration,
) *Service {
	return &Service{
		prober:       prober,
		inspector:    inspector,
		streamProber: streamProber,
		registry:     registry,
		concurrency:  concurrency,
		scanTimeout:  scanTimeout,
		freshness:    freshness,
		log:          logger.New(),
	}
}

// StartDiscovery begins a scan unless one is already running, in which case
// the current status is returned rather than an error
func (s *Service) StartDiscovery() Status {
	s.mux.Lock()

	if s.scanning {
		s.mux.Unlock()
		return StatusScanning
	}

	s.scanning = true
	s.seen = map[string]bool{}
	s.result = &DiscoveryResult{
		Status:    StatusScanning,
		StartedAt: time.Now(),
		Cameras:   []*DiscoveredCamera{},
	}

	s.mux.Unlock()

	s.registry.Send(&event.Event{Type: event.ScanStartedEventType})

	go s.runScan()

	return StatusScanning
}

// PollDiscovery returns the current snapshot. Partial results are visible
// while the scan runs; terminal results are served unchanged until the
// freshness window elapses.
func (s *Service) PollDiscovery() (*DiscoveryResult, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	if s.result == nil {
		return nil, ErrNoScan
	}

	if s.result.Status != StatusScanning && time.Since(s.completedAt) > s.freshness {
		return nil, ErrExpired
	}

	return copyResult(s.result), nil
}

// TestConnection validates one rtsp url, independent of the scan lifecycle
func (s *Service) TestConnection(ctx context.Context, rawURL string, creds *rtsp.Credentials) rtsp.Outcome {
	outcome := s.streamProber.TestConnection(ctx, rawURL, creds)

	class := ""

	if outcome.Error != nil {
		class = string(outcome.Error.Class)
	}

	s.registry.Send(&event.Event{
		Type: event.ConnectionTestedEventType,
		Payload: &event.TestOutcome{
			Success: outcome.Success,
			Class:   class,
		},
	})

	return outcome
}

// RegisterListener registers a channel for engine events
func (s *Service) RegisterListener(channel chan *event.Event) int {
	return s.registry.RegisterListener(channel)
}

// RemoveListener removes a previously registered listener
func (s *Service) RemoveListener(id int) {
	s.registry.RemoveListener(id)
}

// runScan drives one scan to a terminal state
func (s *Service) runScan() {
	ctx, cancel := context.WithTimeout(context.Background(), s.scanTimeout)
	defer cancel()

	endpoints, err := s.prober.Probe(ctx)

	if err != nil {
		s.log.Error().Err(err).Msg("multicast probe failed")
		s.finish(StatusError, err)
		return
	}

	s.log.Info().Int("endpoints", len(endpoints)).Msg("probe window closed")

	semaphore := make(chan struct{}, s.concurrency)

	var wg sync.WaitGroup

	for _, endpoint := range endpoints {
		wg.Add(1)

		go func(endpoint wsdiscovery.Endpoint) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			case <-ctx.Done():
				return
			}

			s.inspect(ctx, endpoint)
		}(endpoint)
	}

	done := make(chan struct{})

	go func() {
		wg.Wait()
		close(done)
	}()

	// deadline expiry omits still-pending devices; it is not an error
	select {
	case <-done:
	case <-ctx.Done():
	}

	s.finish(StatusComplete, nil)
}

// inspect queries one device and merges the outcome
func (s *Service) inspect(ctx context.Context, endpoint wsdiscovery.Endpoint) {
	camera, err := s.inspector.Inspect(ctx, endpoint)

	if err != nil {
		s.log.Debug().
			Err(err).
			Str("endpoint", endpoint.XAddr).
			Msg("device excluded")

		s.registry.Send(&event.Event{
			Type: event.DeviceExcludedEventType,
			Payload: &event.DeviceOutcome{
				Endpoint: endpoint.XAddr,
				Reason:   err.Error(),
			},
		})

		return
	}

	if !s.merge(camera) {
		return
	}

	s.registry.Send(&event.Event{
		Type: event.DeviceInspectedEventType,
		Payload: &event.DeviceOutcome{
			Endpoint:     camera.Endpoint,
			RequiresAuth: camera.RequiresAuth,
			ProfileCount: len(camera.Profiles),
		},
	})
}

// merge appends one camera in completion order. Results arriving after the
// scan turned terminal are dropped as omissions, and a device endpoint is
// never admitted twice.
func (s *Service) merge(camera *DiscoveredCamera) bool {
	s.mux.Lock()
	defer s.mux.Unlock()

	if s.result.Status != StatusScanning {
		return false
	}

	if s.seen[camera.Endpoint] {
		return false
	}

	s.seen[camera.Endpoint] = true
	s.result.Cameras = append(s.result.Cameras, camera)

	return true
}

// finish transitions the scan to a terminal state exactly once
func (s *Service) finish(status Status, scanErr error) {
	s.mux.Lock()

	if s.result.Status != StatusScanning {
		s.mux.Unlock()
		return
	}

	s.result.Status = status
	s.result.DurationMs = time.Since(s.result.StartedAt).Milliseconds()

	if scanErr != nil {
		s.result.Error = scanErr.Error()
	}

	s.completedAt = time.Now()
	s.scanning = false

	count := len(s.result.Cameras)
	duration := s.result.DurationMs

	s.mux.Unlock()

	if status == StatusError {
		s.registry.Send(&event.Event{
			Type:    event.ScanFailedEventType,
			Payload: scanErr.Error(),
		})
		return
	}

	s.log.Info().
		Int("cameras", count).
		Int64("durationMs", duration).
		Msg("scan complete")

	s.registry.Send(&event.Event{
		Type: event.ScanCompletedEventType,
		Payload: &event.ScanSummary{
			DeviceCount: count,
			DurationMs:  duration,
		},
	})
}
