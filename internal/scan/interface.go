package scan

import (
	"context"

	"github.com/camscan-io/camscan/internal/rtsp"
	"github.com/camscan-io/camscan/internal/wsdiscovery"
)

//go:generate mockgen -destination=../mock/scan/mock_scan.go -package=mock_scan . Prober,Inspector,StreamProber

// Prober finds candidate device endpoints on the local network
type Prober interface {
	Probe(ctx context.Context) ([]wsdiscovery.Endpoint, error)
}

// Inspector resolves one discovered endpoint into a camera record
type Inspector interface {
	Inspect(ctx context.Context, endpoint wsdiscovery.Endpoint) (*DiscoveredCamera, error)
}

// StreamProber validates a single rtsp url independently of any scan
type StreamProber interface {
	TestConnection(ctx context.Context, rawURL string, creds *rtsp.Credentials) rtsp.Outcome
}
