package onvif

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/camscan-io/camscan/internal/logger"
	"github.com/camscan-io/camscan/internal/scan"
	"github.com/camscan-io/camscan/internal/wsdiscovery"
	"github.com/google/uuid"
)

// ErrExcluded indicates a device that answered discovery but cannot be
// offered to the user: identity unresolvable or nothing streamable
var ErrExcluded = errors.New("device excluded")

// Inspector resolves a discovered endpoint into a camera record via the
// ONVIF device and media services
type Inspector struct {
	client *soapClient
	// budget total network budget per device, shared across all round trips
	budget time.Duration
	log    logger.Logger
}

// NewInspector returns an inspector with the given per-device budget
func NewInspector(budget time.Duration) *Inspector {
	return &Inspector{
		client: newSOAPClient(),
		budget: budget,
		log:    logger.New(),
	}
}

// Inspect queries one device for identity, media profiles and stream uris.
// All round trips share one deadline; later calls get whatever budget
// remains. Partial vendor compliance degrades per policy:
//
//   - identity unanswerable: ErrExcluded
//   - media locked behind auth: camera with RequiresAuth and no profiles
//   - no usable profiles: ErrExcluded
//   - individual stream uri failures: that profile dropped, rest kept
func (i *Inspector) Inspect(ctx context.Context, endpoint wsdiscovery.Endpoint) (*scan.DiscoveredCamera, error) {
	ctx, cancel := context.WithTimeout(ctx, i.budget)
	defer cancel()

	info, err := i.client.getDeviceInformation(ctx, endpoint.XAddr)

	if err != nil {
		return nil, fmt.Errorf("%w: identity query failed: %s", ErrExcluded, err)
	}

	camera := &scan.DiscoveredCamera{
		ID:           uuid.New().String(),
		Endpoint:     endpoint.XAddr,
		Name:         displayName(endpoint, info),
		Manufacturer: info.Manufacturer,
		Model:        firstNonEmpty(info.Model, endpoint.Hardware),
		IPAddress:    deviceIP(endpoint),
		DiscoveredAt: time.Now(),
		Profiles:     []scan.StreamProfile{},
	}

	mediaURL := i.client.getMediaURL(ctx, endpoint.XAddr)

	profiles, err := i.client.getProfiles(ctx, mediaURL)

	if err != nil {
		if errors.Is(err, ErrNotAuthorized) {
			camera.RequiresAuth = true
			return camera, nil
		}

		return nil, fmt.Errorf("%w: media query failed: %s", ErrExcluded, err)
	}

	authSeen := false

	for _, profile := range profiles {
		if ctx.Err() != nil {
			break
		}

		uri, err := i.client.getStreamURI(ctx, mediaURL, profile.Token)

		if err != nil {
			if errors.Is(err, ErrNotAuthorized) {
				authSeen = true
			}

			i.log.Debug().
				Err(err).
				Str("endpoint", endpoint.XAddr).
				Str("profile", profile.Token).
				Msg("dropping unresolvable profile")

			continue
		}

		camera.Profiles = append(camera.Profiles, scan.StreamProfile{
			Name:    profile.Name,
			Width:   profile.Width,
			Height:  profile.Height,
			FPS:     profile.FPS,
			RTSPURL: uri,
		})
	}

	if len(camera.Profiles) == 0 {
		if authSeen {
			camera.RequiresAuth = true
			return camera, nil
		}

		return nil, fmt.Errorf("%w: no usable media profiles", ErrExcluded)
	}

	camera.PrimaryRTSPURL = scan.SelectPrimary(camera.Profiles)

	if ctx.Err() == nil {
		camera.MACAddress = i.client.getMACAddress(ctx, endpoint.XAddr)
	}

	return camera, nil
}

// displayName best available device name: scope friendly name, then model
func displayName(endpoint wsdiscovery.Endpoint, info *deviceInfo) string {
	return firstNonEmpty(endpoint.Name, info.Model, endpoint.Hardware, info.Manufacturer)
}

// deviceIP prefers the ProbeMatch source address, falling back to the
// service url host
func deviceIP(endpoint wsdiscovery.Endpoint) string {
	if endpoint.SourceIP != "" {
		return endpoint.SourceIP
	}

	parsed, err := url.Parse(endpoint.XAddr)

	if err != nil {
		return ""
	}

	return parsed.Hostname()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
