package rtsp

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
)

// Class buckets a failed connection test so the caller can suggest the right
// fix: credentials vs network vs the url itself
type Class string

const (
	// ClassMalformed the url never made it to the network
	ClassMalformed Class = "malformed-url"
	// ClassNetwork unreachable, refused or timed out
	ClassNetwork Class = "network"
	// ClassAuth the stream rejected the credentials
	ClassAuth Class = "auth"
	// ClassProtocol the endpoint answered but not with a usable stream
	ClassProtocol Class = "protocol"
)

// ProbeError a classified connection test failure. Message strings never
// contain credentials; urls pass through Redact before landing here.
type ProbeError struct {
	Class   Class  `json:"class"`
	Message string `json:"message"`
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Class, e.Message)
}

func newProbeError(class Class, format string, args ...any) *ProbeError {
	return &ProbeError{
		Class:   class,
		Message: fmt.Sprintf(format, args...),
	}
}

// classifyNetErr maps transport errors onto ClassNetwork with a message
// naming the specific failure
func classifyNetErr(err error, redactedURL string) *ProbeError {
	if os.IsTimeout(err) {
		return newProbeError(ClassNetwork, "timed out connecting to %s", redactedURL)
	}

	var netErr net.Error

	if errors.As(err, &netErr) && netErr.Timeout() {
		return newProbeError(ClassNetwork, "timed out connecting to %s", redactedURL)
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return newProbeError(ClassNetwork, "connection refused by %s", redactedURL)
	}

	if errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH) {
		return newProbeError(ClassNetwork, "host unreachable: %s", redactedURL)
	}

	var dnsErr *net.DNSError

	if errors.As(err, &dnsErr) {
		return newProbeError(ClassNetwork, "cannot resolve host for %s", redactedURL)
	}

	return newProbeError(ClassNetwork, "connection to %s failed", redactedURL)
}

// Redact strips the password from a url's userinfo so it can appear in
// errors and logs
func Redact(rawURL string) string {
	parsed, err := url.Parse(rawURL)

	if err != nil || parsed.User == nil {
		return rawURL
	}

	if _, hasPassword := parsed.User.Password(); hasPassword {
		parsed.User = url.UserPassword(parsed.User.Username(), "xxxxx")
	}

	return parsed.String()
}
