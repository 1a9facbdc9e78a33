package wsdiscovery

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/camscan-io/camscan/internal/logger"
	"github.com/projectdiscovery/mapcidr"
	"golang.org/x/net/ipv4"
)

// Endpoint is one device service address discovered via WS-Discovery
type Endpoint struct {
	// XAddr the device management service URL
	XAddr string
	// SourceIP the address the ProbeMatch arrived from
	SourceIP string
	// Name friendly-name hint from the device scopes, may be empty
	Name string
	// Hardware model hint from the device scopes, may be empty
	Hardware string
}

// Prober sends a WS-Discovery Probe and collects ProbeMatch replies for a
// fixed window
type Prober struct {
	multicastAddr string
	window        time.Duration
	sweepCIDRs    []string
	log           logger.Logger
}

// NewProber returns a new WS-Discovery prober. sweepCIDRs may be empty; when
// set, the probe datagram is additionally unicast to every host in them.
func NewProber(multicastAddr string, window time.Duration, sweepCIDRs []string) *Prober {
	return &Prober{
		multicastAddr: multicastAddr,
		window:        window,
		sweepCIDRs:    sweepCIDRs,
		log:           logger.New(),
	}
}

// Probe sends a single Probe message and returns the deduplicated device
// endpoints that replied before the collection window elapsed. A socket
// setup failure is fatal to the caller's scan; everything else degrades to
// fewer results.
func (p *Prober) Probe(ctx context.Context) ([]Endpoint, error) {
	target, err := net.ResolveUDPAddr("udp4", p.multicastAddr)

	if err != nil {
		return nil, fmt.Errorf("failed to resolve probe address: %w", err)
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: 0})

	if err != nil {
		return nil, fmt.Errorf("failed to bind discovery socket: %w", err)
	}

	defer conn.Close()

	if target.IP.IsMulticast() {
		interfaces, err := net.Interfaces()

		if err != nil {
			return nil, fmt.Errorf("failed to list interfaces: %w", err)
		}

		if err := p.joinGroup(conn, target.IP, interfaces); err != nil {
			return nil, err
		}
	}

	window := p.window

	if ctxDeadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(ctxDeadline); remaining < window {
			window = remaining
		}
	}

	deadline := time.Now().Add(window)

	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("failed to set collection deadline: %w", err)
	}

	message, err := buildProbeMessage()

	if err != nil {
		return nil, fmt.Errorf("failed to build probe message: %w", err)
	}

	if _, err := conn.WriteToUDP(message, target); err != nil {
		return nil, fmt.Errorf("failed to send probe message: %w", err)
	}

	p.sweep(conn, message)

	return p.collect(ctx, conn, deadline), nil
}

// joinGroup joins the discovery multicast group on every eligible interface.
// Individual interfaces may refuse; joining nowhere is fatal since no
// replies could be received at all.
func (p *Prober) joinGroup(conn *net.UDPConn, group net.IP, interfaces []net.Interface) error {
	packetConn := ipv4.NewPacketConn(conn)

	joined := 0

	for i := range interfaces {
		iface := interfaces[i]

		if iface.Flags&net.FlagUp == 0 ||
			iface.Flags&net.FlagMulticast == 0 ||
			iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		if err := packetConn.JoinGroup(&iface, &net.UDPAddr{IP: group}); err != nil {
			p.log.Debug().
				Err(err).
				Str("interface", iface.Name).
				Msg("failed to join multicast group")
			continue
		}

		joined++
	}

	if joined == 0 {
		return fmt.Errorf("failed to join multicast group %s on any interface", group)
	}

	return nil
}

// sweep unicasts the probe datagram to every host in the configured CIDRs.
// Best effort: replies land in the same collection loop.
func (p *Prober) sweep(conn *net.UDPConn, message []byte) {
	for _, cidr := range p.sweepCIDRs {
		ips, err := mapcidr.IPAddresses(cidr)

		if err != nil {
			p.log.Warn().Err(err).Str("cidr", cidr).Msg("skipping sweep target")
			continue
		}

		for _, ip := range ips {
			addr := &net.UDPAddr{IP: net.ParseIP(ip), Port: 3702}

			if addr.IP == nil {
				continue
			}

			// losses here are expected; most hosts are not cameras
			_, _ = conn.WriteToUDP(message, addr)
		}
	}
}

// collect reads ProbeMatch replies until the read deadline expires,
// deduplicating by device service address
func (p *Prober) collect(ctx context.Context, conn *net.UDPConn, deadline time.Time) []Endpoint {
	endpoints := []Endpoint{}
	seen := map[string]bool{}
	buffer := make([]byte, 65536)

	for {
		if ctx.Err() != nil {
			break
		}

		n, src, err := conn.ReadFromUDP(buffer)

		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				break
			}

			if !time.Now().Before(deadline) {
				break
			}

			// non-timeout socket errors back off rather than spin
			time.Sleep(10 * time.Millisecond)
			continue
		}

		for _, match := range parseDatagram(buffer[:n]) {
			xaddr := firstXAddr(match.XAddrs)

			if !validXAddr(xaddr) || seen[xaddr] {
				continue
			}

			seen[xaddr] = true

			name, hardware := parseScopes(match.Scopes)

			endpoints = append(endpoints, Endpoint{
				XAddr:    xaddr,
				SourceIP: src.IP.String(),
				Name:     name,
				Hardware: hardware,
			})
		}
	}

	p.log.Debug().Int("count", len(endpoints)).Msg("probe collection finished")

	return endpoints
}

// validXAddr filters replies whose service address is not a usable http url
func validXAddr(xaddr string) bool {
	if xaddr == "" {
		return false
	}

	parsed, err := url.Parse(xaddr)

	if err != nil {
		return false
	}

	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
