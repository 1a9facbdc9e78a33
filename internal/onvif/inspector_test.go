package onvif_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/camscan-io/camscan/internal/onvif"
	"github.com/camscan-io/camscan/internal/wsdiscovery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const soapEnvelope = `<?xml version="1.0" encoding="UTF-8"?>
<SOAP-ENV:Envelope xmlns:SOAP-ENV="http://www.w3.org/2003/05/soap-envelope"
                   xmlns:tds="http://www.onvif.org/ver10/device/wsdl"
                   xmlns:trt="http://www.onvif.org/ver10/media/wsdl"
                   xmlns:tt="http://www.onvif.org/ver10/schema">
  <SOAP-ENV:Body>%s</SOAP-ENV:Body>
</SOAP-ENV:Envelope>`

const identityBody = `
<tds:GetDeviceInformationResponse>
  <tds:Manufacturer>Acme</tds:Manufacturer>
  <tds:Model>Cam1</tds:Model>
</tds:GetDeviceInformationResponse>`

const profilesBody = `
<trt:GetProfilesResponse>
  <trt:Profiles token="p1">
    <tt:Name>MainStream</tt:Name>
    <tt:VideoEncoderConfiguration token="enc1">
      <tt:Resolution><tt:Width>1920</tt:Width><tt:Height>1080</tt:Height></tt:Resolution>
      <tt:RateControl><tt:FrameRateLimit>15</tt:FrameRateLimit></tt:RateControl>
    </tt:VideoEncoderConfiguration>
  </trt:Profiles>
  <trt:Profiles token="p2">
    <tt:Name>SubStream</tt:Name>
    <tt:VideoEncoderConfiguration token="enc2">
      <tt:Resolution><tt:Width>1280</tt:Width><tt:Height>720</tt:Height></tt:Resolution>
      <tt:RateControl><tt:FrameRateLimit>30</tt:FrameRateLimit></tt:RateControl>
    </tt:VideoEncoderConfiguration>
  </trt:Profiles>
</trt:GetProfilesResponse>`

const interfacesBody = `
<tds:GetNetworkInterfacesResponse>
  <tds:NetworkInterfaces token="eth0">
    <tt:Info><tt:HwAddress>aa:bb:cc:dd:ee:ff</tt:HwAddress></tt:Info>
  </tds:NetworkInterfaces>
</tds:GetNetworkInterfacesResponse>`

const authFaultBody = `
<SOAP-ENV:Fault>
  <SOAP-ENV:Code><SOAP-ENV:Subcode>ter:NotAuthorized</SOAP-ENV:Subcode></SOAP-ENV:Code>
</SOAP-ENV:Fault>`

func streamURIBody(uri string) string {
	return fmt.Sprintf(`
<trt:GetStreamUriResponse>
  <trt:MediaUri><tt:Uri>%s</tt:Uri></trt:MediaUri>
</trt:GetStreamUriResponse>`, uri)
}

// fakeCamera routes SOAP calls by action, with per-action overrides for
// failure scenarios
type fakeCamera struct {
	server    *httptest.Server
	overrides map[string]http.HandlerFunc
}

func newFakeCamera(t *testing.T) *fakeCamera {
	t.Helper()

	camera := &fakeCamera{overrides: map[string]http.HandlerFunc{}}

	camera.server = httptest.NewServer(http.HandlerFunc(camera.handle))

	t.Cleanup(camera.server.Close)

	return camera
}

func (f *fakeCamera) endpoint() wsdiscovery.Endpoint {
	return wsdiscovery.Endpoint{
		XAddr:    f.server.URL + "/onvif/device_service",
		SourceIP: "192.168.1.20",
		Name:     "Front Door",
		Hardware: "AC-1000",
	}
}

func (f *fakeCamera) handle(w http.ResponseWriter, r *http.Request) {
	action := r.Header.Get("SOAPAction")

	if override, ok := f.overrides[action]; ok {
		override(w, r)
		return
	}

	switch {
	case strings.HasSuffix(action, "GetDeviceInformation"):
		fmt.Fprintf(w, soapEnvelope, identityBody)
	case strings.HasSuffix(action, "GetCapabilities"):
		mediaXAddr := f.server.URL + "/onvif/media_service"
		fmt.Fprintf(w, soapEnvelope, fmt.Sprintf(`
<tds:GetCapabilitiesResponse>
  <tds:Capabilities>
    <tt:Media><tt:XAddr>%s</tt:XAddr></tt:Media>
  </tds:Capabilities>
</tds:GetCapabilitiesResponse>`, mediaXAddr))
	case strings.HasSuffix(action, "GetProfiles"):
		fmt.Fprintf(w, soapEnvelope, profilesBody)
	case strings.HasSuffix(action, "GetStreamUri"):
		request, _ := io.ReadAll(r.Body)

		uri := "rtsp://192.168.1.20:554/stream1"
		if strings.Contains(string(request), "p2") {
			uri = "rtsp://192.168.1.20:554/stream2"
		}

		fmt.Fprintf(w, soapEnvelope, streamURIBody(uri))
	case strings.HasSuffix(action, "GetNetworkInterfaces"):
		fmt.Fprintf(w, soapEnvelope, interfacesBody)
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func TestInspector(t *testing.T) {
	t.Run("resolves a fully compliant device", func(st *testing.T) {
		camera := newFakeCamera(st)

		inspector := onvif.NewInspector(2 * time.Second)

		record, err := inspector.Inspect(context.Background(), camera.endpoint())

		require.NoError(st, err)

		assert.NotEmpty(st, record.ID)
		assert.Equal(st, "Front Door", record.Name)
		assert.Equal(st, "Acme", record.Manufacturer)
		assert.Equal(st, "Cam1", record.Model)
		assert.Equal(st, "192.168.1.20", record.IPAddress)
		assert.Equal(st, "aa:bb:cc:dd:ee:ff", record.MACAddress)
		assert.False(st, record.RequiresAuth)

		require.Len(st, record.Profiles, 2)

		// 1920x1080@15 beats 1280x720@30 on resolution
		assert.Equal(st, "rtsp://192.168.1.20:554/stream1", record.PrimaryRTSPURL)
	})

	t.Run("excludes device whose identity query fails", func(st *testing.T) {
		camera := newFakeCamera(st)

		camera.overrides["http://www.onvif.org/ver10/device/wsdl/GetDeviceInformation"] =
			func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}

		inspector := onvif.NewInspector(2 * time.Second)

		record, err := inspector.Inspect(context.Background(), camera.endpoint())

		assert.Nil(st, record)
		assert.ErrorIs(st, err, onvif.ErrExcluded)
	})

	t.Run("flags auth-gated media without failing the device", func(st *testing.T) {
		camera := newFakeCamera(st)

		camera.overrides["http://www.onvif.org/ver10/media/wsdl/GetProfiles"] =
			func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			}

		inspector := onvif.NewInspector(2 * time.Second)

		record, err := inspector.Inspect(context.Background(), camera.endpoint())

		require.NoError(st, err)

		assert.True(st, record.RequiresAuth)
		assert.Empty(st, record.Profiles)
		assert.Empty(st, record.PrimaryRTSPURL)
		assert.Equal(st, "Acme", record.Manufacturer)
	})

	t.Run("treats soap auth fault like http 401", func(st *testing.T) {
		camera := newFakeCamera(st)

		camera.overrides["http://www.onvif.org/ver10/media/wsdl/GetProfiles"] =
			func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprintf(w, soapEnvelope, authFaultBody)
			}

		inspector := onvif.NewInspector(2 * time.Second)

		record, err := inspector.Inspect(context.Background(), camera.endpoint())

		require.NoError(st, err)
		assert.True(st, record.RequiresAuth)
	})

	t.Run("excludes device with zero usable profiles", func(st *testing.T) {
		camera := newFakeCamera(st)

		camera.overrides["http://www.onvif.org/ver10/media/wsdl/GetProfiles"] =
			func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprintf(w, soapEnvelope, `<trt:GetProfilesResponse></trt:GetProfilesResponse>`)
			}

		inspector := onvif.NewInspector(2 * time.Second)

		record, err := inspector.Inspect(context.Background(), camera.endpoint())

		assert.Nil(st, record)
		assert.ErrorIs(st, err, onvif.ErrExcluded)
	})

	t.Run("drops only the profiles whose stream uri fails", func(st *testing.T) {
		camera := newFakeCamera(st)

		camera.overrides["http://www.onvif.org/ver10/media/wsdl/GetStreamUri"] =
			func(w http.ResponseWriter, r *http.Request) {
				request, _ := io.ReadAll(r.Body)

				if strings.Contains(string(request), "p1") {
					w.WriteHeader(http.StatusInternalServerError)
					return
				}

				fmt.Fprintf(w, soapEnvelope, streamURIBody("rtsp://192.168.1.20:554/stream2"))
			}

		inspector := onvif.NewInspector(2 * time.Second)

		record, err := inspector.Inspect(context.Background(), camera.endpoint())

		require.NoError(st, err)

		require.Len(st, record.Profiles, 1)
		assert.Equal(st, "rtsp://192.168.1.20:554/stream2", record.PrimaryRTSPURL)
	})

	t.Run("falls back to path rewrite when capabilities are refused", func(st *testing.T) {
		camera := newFakeCamera(st)

		camera.overrides["http://www.onvif.org/ver10/device/wsdl/GetCapabilities"] =
			func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}

		inspector := onvif.NewInspector(2 * time.Second)

		// the fake serves all paths, so the rewritten media url still lands
		record, err := inspector.Inspect(context.Background(), camera.endpoint())

		require.NoError(st, err)
		assert.Len(st, record.Profiles, 2)
	})

	t.Run("bails out when the device budget is exhausted", func(st *testing.T) {
		camera := newFakeCamera(st)

		camera.overrides["http://www.onvif.org/ver10/device/wsdl/GetDeviceInformation"] =
			func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(300 * time.Millisecond)
				fmt.Fprintf(w, soapEnvelope, identityBody)
			}

		inspector := onvif.NewInspector(100 * time.Millisecond)

		start := time.Now()

		record, err := inspector.Inspect(context.Background(), camera.endpoint())

		assert.Nil(st, record)
		assert.ErrorIs(st, err, onvif.ErrExcluded)
		assert.Less(st, time.Since(start), 250*time.Millisecond)
	})
}
