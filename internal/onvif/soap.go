package onvif

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/beevik/etree"
)

// ErrNotAuthorized indicates the device answered but wants credentials.
// Discovery queries run unauthenticated; this is surfaced as RequiresAuth
// rather than treated as failure.
var ErrNotAuthorized = errors.New("device requires authentication")

// soapClient is the transport shared by all ONVIF service calls
type soapClient struct {
	httpClient *http.Client
}

func newSOAPClient() *soapClient {
	// per-call deadlines come from the request context
	return &soapClient{
		httpClient: &http.Client{},
	}
}

// buildEnvelope wraps a request body element in a SOAP envelope carrying the
// ONVIF namespaces
func buildEnvelope(request *etree.Element) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	env := doc.CreateElement("s:Envelope")
	env.CreateAttr("xmlns:s", "http://www.w3.org/2003/05/soap-envelope")
	env.CreateAttr("xmlns:tds", "http://www.onvif.org/ver10/device/wsdl")
	env.CreateAttr("xmlns:trt", "http://www.onvif.org/ver10/media/wsdl")
	env.CreateAttr("xmlns:tt", "http://www.onvif.org/ver10/schema")

	env.CreateElement("s:Header")
	env.CreateElement("s:Body").AddChild(request)

	return doc.WriteToBytes()
}

// call posts one SOAP request and returns the raw response body. HTTP 401
// and SOAP NotAuthorized faults map to ErrNotAuthorized so callers can
// distinguish locked devices from broken ones.
func (c *soapClient) call(ctx context.Context, endpoint, action string, request *etree.Element) ([]byte, error) {
	payload, err := buildEnvelope(request)

	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))

	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")
	req.Header.Set("SOAPAction", action)

	resp, err := c.httpClient.Do(req)

	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)

	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrNotAuthorized
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	if isAuthFault(respBody) {
		return nil, ErrNotAuthorized
	}

	return respBody, nil
}

// isAuthFault detects devices that report auth failures as SOAP faults with
// a 200 status. Vendors disagree on which way to say no.
func isAuthFault(respBody []byte) bool {
	if !bytes.Contains(respBody, []byte("Fault")) {
		return false
	}

	return bytes.Contains(respBody, []byte("NotAuthorized")) ||
		bytes.Contains(respBody, []byte("not authorized")) ||
		bytes.Contains(respBody, []byte("Unauthorized"))
}
