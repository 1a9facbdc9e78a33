package onvif

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// deviceInfo identity fields reported by GetDeviceInformation
type deviceInfo struct {
	Manufacturer string `xml:"Body>GetDeviceInformationResponse>Manufacturer"`
	Model        string `xml:"Body>GetDeviceInformationResponse>Model"`
}

func (c *soapClient) getDeviceInformation(ctx context.Context, endpoint string) (*deviceInfo, error) {
	resp, err := c.call(
		ctx,
		endpoint,
		"http://www.onvif.org/ver10/device/wsdl/GetDeviceInformation",
		etree.NewElement("tds:GetDeviceInformation"),
	)

	if err != nil {
		return nil, err
	}

	var info deviceInfo

	if err := xml.Unmarshal(resp, &info); err != nil {
		return nil, fmt.Errorf("failed to parse device information: %w", err)
	}

	return &info, nil
}

type capabilities struct {
	MediaXAddr string `xml:"Body>GetCapabilitiesResponse>Capabilities>Media>XAddr"`
}

// getMediaURL locates the device's media service. Devices that refuse or
// omit the capability answer get the conventional path rewrite instead.
func (c *soapClient) getMediaURL(ctx context.Context, endpoint string) string {
	request := etree.NewElement("tds:GetCapabilities")
	request.CreateElement("tds:Category").SetText("Media")

	resp, err := c.call(
		ctx,
		endpoint,
		"http://www.onvif.org/ver10/device/wsdl/GetCapabilities",
		request,
	)

	if err == nil {
		var caps capabilities

		if xml.Unmarshal(resp, &caps) == nil && caps.MediaXAddr != "" {
			return caps.MediaXAddr
		}
	}

	return strings.Replace(endpoint, "device_service", "media_service", 1)
}

// mediaProfile one GetProfiles entry with a video encoder attached
type mediaProfile struct {
	Token  string
	Name   string
	Width  int
	Height int
	FPS    int
}

func (c *soapClient) getProfiles(ctx context.Context, mediaURL string) ([]mediaProfile, error) {
	resp, err := c.call(
		ctx,
		mediaURL,
		"http://www.onvif.org/ver10/media/wsdl/GetProfiles",
		etree.NewElement("trt:GetProfiles"),
	)

	if err != nil {
		return nil, err
	}

	type profilesResponse struct {
		Profiles []struct {
			Token                     string `xml:"token,attr"`
			Name                      string `xml:"Name"`
			VideoEncoderConfiguration struct {
				Token      string `xml:"token,attr"`
				Resolution struct {
					Width  int `xml:"Width"`
					Height int `xml:"Height"`
				} `xml:"Resolution"`
				RateControl struct {
					FrameRateLimit int `xml:"FrameRateLimit"`
				} `xml:"RateControl"`
			} `xml:"VideoEncoderConfiguration"`
		} `xml:"Body>GetProfilesResponse>Profiles"`
	}

	var parsed profilesResponse

	if err := xml.Unmarshal(resp, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse profiles: %w", err)
	}

	profiles := []mediaProfile{}

	for _, p := range parsed.Profiles {
		// profiles without a video encoder carry nothing streamable
		if p.VideoEncoderConfiguration.Token == "" {
			continue
		}

		profiles = append(profiles, mediaProfile{
			Token:  p.Token,
			Name:   p.Name,
			Width:  p.VideoEncoderConfiguration.Resolution.Width,
			Height: p.VideoEncoderConfiguration.Resolution.Height,
			FPS:    p.VideoEncoderConfiguration.RateControl.FrameRateLimit,
		})
	}

	return profiles, nil
}

func (c *soapClient) getStreamURI(ctx context.Context, mediaURL, profileToken string) (string, error) {
	request := etree.NewElement("trt:GetStreamUri")

	setup := request.CreateElement("trt:StreamSetup")
	setup.CreateElement("tt:Stream").SetText("RTP-Unicast")
	setup.CreateElement("tt:Transport").
		CreateElement("tt:Protocol").SetText("RTSP")

	request.CreateElement("trt:ProfileToken").SetText(profileToken)

	resp, err := c.call(
		ctx,
		mediaURL,
		"http://www.onvif.org/ver10/media/wsdl/GetStreamUri",
		request,
	)

	if err != nil {
		return "", err
	}

	type streamURIResponse struct {
		URI string `xml:"Body>GetStreamUriResponse>MediaUri>Uri"`
	}

	var parsed streamURIResponse

	if err := xml.Unmarshal(resp, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse stream uri: %w", err)
	}

	if parsed.URI == "" {
		return "", fmt.Errorf("no stream uri in response for profile %s", profileToken)
	}

	return parsed.URI, nil
}

// getMACAddress best-effort MAC lookup. Not all vendors answer this
// anonymously; an empty string is fine.
func (c *soapClient) getMACAddress(ctx context.Context, endpoint string) string {
	resp, err := c.call(
		ctx,
		endpoint,
		"http://www.onvif.org/ver10/device/wsdl/GetNetworkInterfaces",
		etree.NewElement("tds:GetNetworkInterfaces"),
	)

	if err != nil {
		return ""
	}

	type interfacesResponse struct {
		HwAddress []string `xml:"Body>GetNetworkInterfacesResponse>NetworkInterfaces>Info>HwAddress"`
	}

	var parsed interfacesResponse

	if xml.Unmarshal(resp, &parsed) != nil || len(parsed.HwAddress) == 0 {
		return ""
	}

	return strings.TrimSpace(parsed.HwAddress[0])
}
