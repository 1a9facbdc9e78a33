package wsdiscovery

import (
	"encoding/xml"
	"strings"

	"github.com/beevik/etree"
	"github.com/google/uuid"
)

// buildProbeMessage constructs the WS-Discovery Probe envelope scoped to
// network video transmitters. Every probe carries a fresh MessageID.
func buildProbeMessage() ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	env := doc.CreateElement("Envelope")
	env.CreateAttr("xmlns", "http://www.w3.org/2003/05/soap-envelope")
	env.CreateAttr("xmlns:a", "http://schemas.xmlsoap.org/ws/2004/08/addressing")
	env.CreateAttr("xmlns:d", "http://schemas.xmlsoap.org/ws/2005/04/discovery")
	env.CreateAttr("xmlns:dn", "http://www.onvif.org/ver10/network/wsdl")

	header := env.CreateElement("Header")
	header.CreateElement("a:Action").
		SetText("http://schemas.xmlsoap.org/ws/2005/04/discovery/Probe")
	header.CreateElement("a:MessageID").
		SetText("uuid:" + uuid.New().String())
	header.CreateElement("a:To").
		SetText("urn:schemas-xmlsoap-org:ws:2005:04:discovery")

	body := env.CreateElement("Body")
	probe := body.CreateElement("d:Probe")
	probe.CreateElement("d:Types").SetText("dn:NetworkVideoTransmitter")

	return doc.WriteToBytes()
}

// ProbeMatch response structures
type envelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    body     `xml:"Body"`
}

type body struct {
	ProbeMatches probeMatches `xml:"ProbeMatches"`
}

type probeMatches struct {
	ProbeMatch []probeMatch `xml:"ProbeMatch"`
}

type probeMatch struct {
	Types  string `xml:"Types"`
	Scopes string `xml:"Scopes"`
	XAddrs string `xml:"XAddrs"`
}

// parseDatagram extracts ProbeMatch entries from one received datagram.
// Anything that is not a well formed ProbeMatch envelope returns an empty
// slice; other protocols chatter on the same group and are not our problem.
func parseDatagram(data []byte) []probeMatch {
	var env envelope

	if err := xml.Unmarshal(data, &env); err != nil {
		return nil
	}

	return env.Body.ProbeMatches.ProbeMatch
}

// firstXAddr extracts the first service address when a device advertises
// several
func firstXAddr(xaddrs string) string {
	fields := strings.Fields(xaddrs)

	if len(fields) == 0 {
		return ""
	}

	return fields[0]
}

// parseScopes pulls the friendly name and hardware hints out of the
// onvif scope URIs
func parseScopes(scopes string) (name, hardware string) {
	for _, scope := range strings.Fields(scopes) {
		switch {
		case strings.HasPrefix(scope, "onvif://www.onvif.org/name/"):
			name = strings.TrimPrefix(scope, "onvif://www.onvif.org/name/")
			name = strings.ReplaceAll(name, "_", " ")
		case strings.HasPrefix(scope, "onvif://www.onvif.org/hardware/"):
			hardware = strings.TrimPrefix(scope, "onvif://www.onvif.org/hardware/")
			hardware = strings.ReplaceAll(hardware, "_", " ")
		}
	}

	return name, hardware
}
