package rtsp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/camscan-io/camscan/internal/logger"
)

// Outcome is the stateless result of one connection test. LatencyMs is set
// only on success; fps, codec and resolution are reported when the stream
// advertises them and absent otherwise.
type Outcome struct {
	Success   bool        `json:"success"`
	LatencyMs *int64      `json:"latencyMs,omitempty"`
	Width     int         `json:"width,omitempty"`
	Height    int         `json:"height,omitempty"`
	FPS       int         `json:"fps,omitempty"`
	Codec     string      `json:"codec,omitempty"`
	Error     *ProbeError `json:"error,omitempty"`
}

// Prober validates rtsp urls by opening the stream and waiting for the
// first media packet. Reentrant: every call owns its own socket.
type Prober struct {
	timeout time.Duration
	log     logger.Logger
}

// NewProber returns a stream prober with the given per-test budget
func NewProber(timeout time.Duration) *Prober {
	return &Prober{
		timeout: timeout,
		log:     logger.New(),
	}
}

var errStreamClosed = errors.New("connection closed before first frame")

// TestConnection validates a single rtsp url. Malformed input fails before
// any network attempt; credentials are used for this attempt only and are
// redacted from every diagnostic.
func (p *Prober) TestConnection(ctx context.Context, rawURL string, creds *Credentials) Outcome {
	parsed, err := url.Parse(rawURL)

	if err != nil || parsed.Scheme != "rtsp" || parsed.Host == "" {
		return failure(newProbeError(ClassMalformed, "not an rtsp url: %s", Redact(rawURL)))
	}

	// credentials embedded in the url count as supplied credentials
	if parsed.User != nil {
		if creds == nil {
			password, _ := parsed.User.Password()
			creds = &Credentials{
				Username: parsed.User.Username(),
				Password: password,
			}
		}
		parsed.User = nil
	}

	redacted := Redact(rawURL)
	requestURL := parsed.String()

	start := time.Now()
	deadline := start.Add(p.timeout)

	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	dialer := net.Dialer{Deadline: deadline}

	conn, err := dialer.DialContext(ctx, "tcp", hostPort(parsed))

	if err != nil {
		return failure(classifyNetErr(err, redacted))
	}

	defer conn.Close()

	if err := conn.SetDeadline(deadline); err != nil {
		return failure(classifyNetErr(err, redacted))
	}

	sess := &session{
		conn:       conn,
		reader:     bufio.NewReader(conn),
		requestURL: requestURL,
		creds:      creds,
	}

	info, probeErr := p.handshake(sess, redacted)

	if probeErr != nil {
		return failure(probeErr)
	}

	if probeErr := p.waitFirstFrame(sess, redacted); probeErr != nil {
		return failure(probeErr)
	}

	latency := time.Since(start).Milliseconds()

	p.log.Debug().
		Str("url", redacted).
		Int64("latencyMs", latency).
		Str("codec", info.codec).
		Msg("stream test succeeded")

	return Outcome{
		Success:   true,
		LatencyMs: &latency,
		Width:     info.width,
		Height:    info.height,
		FPS:       info.fps,
		Codec:     info.codec,
	}
}

// handshake runs OPTIONS, DESCRIBE, SETUP and PLAY, returning the stream
// metadata from the sdp
func (p *Prober) handshake(sess *session, redacted string) (*sdpInfo, *ProbeError) {
	if _, err := p.request(sess, "OPTIONS", sess.requestURL, nil, redacted); err != nil {
		return nil, err
	}

	describe, err := p.request(
		sess,
		"DESCRIBE",
		sess.requestURL,
		map[string]string{"Accept": "application/sdp"},
		redacted,
	)

	if err != nil {
		return nil, err
	}

	if describe.body == "" {
		return nil, newProbeError(ClassProtocol, "no sdp in describe response from %s", redacted)
	}

	info := parseSDP(describe.body, sess.requestURL)

	setup, err := p.request(
		sess,
		"SETUP",
		resolveControl(info.control, sess.requestURL),
		map[string]string{"Transport": "RTP/AVP/TCP;unicast;interleaved=0-1"},
		redacted,
	)

	if err != nil {
		return nil, err
	}

	sess.id, _, _ = strings.Cut(setup.headers["session"], ";")

	headers := map[string]string{"Range": "npt=0.000-"}

	if sess.id != "" {
		headers["Session"] = sess.id
	}

	if _, err := p.request(sess, "PLAY", sess.requestURL, headers, redacted); err != nil {
		return nil, err
	}

	return &info, nil
}

// request performs one round trip, retrying once with credentials on a 401
// challenge, and classifies anything that is not a 2xx
func (p *Prober) request(
	sess *session,
	method string,
	target string,
	headers map[string]string,
	redacted string,
) (*response, *ProbeError) {
	resp, err := sess.do(method, target, headers)

	if err != nil {
		if errors.Is(err, errStreamClosed) {
			return nil, newProbeError(ClassProtocol, "%s during %s to %s", err, method, redacted)
		}

		return nil, classifyNetErr(err, redacted)
	}

	if resp.code == 401 && sess.creds != nil && sess.challenge == "" {
		sess.challenge = resp.headers["www-authenticate"]

		resp, err = sess.do(method, target, headers)

		if err != nil {
			return nil, classifyNetErr(err, redacted)
		}
	}

	if resp.code == 401 || resp.code == 403 {
		return nil, newProbeError(ClassAuth, "stream rejected credentials (%s %d)", method, resp.code)
	}

	if resp.code < 200 || resp.code >= 300 {
		return nil, newProbeError(ClassProtocol, "%s to %s answered %d", method, redacted, resp.code)
	}

	return resp, nil
}

// waitFirstFrame blocks until the first interleaved media packet on the
// video channel arrives
func (p *Prober) waitFirstFrame(sess *session, redacted string) *ProbeError {
	for {
		marker, err := sess.reader.ReadByte()

		if err != nil {
			return classifyFrameWait(err, redacted)
		}

		if marker != '$' {
			continue
		}

		header := make([]byte, 3)

		if _, err := io.ReadFull(sess.reader, header); err != nil {
			return classifyFrameWait(err, redacted)
		}

		channel := header[0]
		length := int(header[1])<<8 | int(header[2])

		payload := make([]byte, length)

		if _, err := io.ReadFull(sess.reader, payload); err != nil {
			return classifyFrameWait(err, redacted)
		}

		// channel 0 carries the video rtp packets per our SETUP; rtcp on
		// channel 1 does not count as a frame
		if channel == 0 && length > 0 {
			return nil
		}
	}
}

func classifyFrameWait(err error, redacted string) *ProbeError {
	var netErr net.Error

	if errors.As(err, &netErr) && netErr.Timeout() {
		return newProbeError(ClassNetwork, "no frame received from %s within timeout", redacted)
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return newProbeError(ClassProtocol, "stream from %s closed before first frame", redacted)
	}

	return classifyNetErr(err, redacted)
}

func failure(probeErr *ProbeError) Outcome {
	return Outcome{
		Success: false,
		Error:   probeErr,
	}
}

func hostPort(parsed *url.URL) string {
	if parsed.Port() != "" {
		return parsed.Host
	}

	return net.JoinHostPort(parsed.Hostname(), "554")
}

// session is the per-call connection state
type session struct {
	conn       net.Conn
	reader     *bufio.Reader
	requestURL string
	creds      *Credentials
	// challenge the WWW-Authenticate value from the first 401; digest
	// responses are method dependent so the header is rebuilt per request
	challenge string
	// nonceCount how many requests have answered the cached challenge
	nonceCount int
	id         string
	cseq       int
}

// response one parsed rtsp response; header names are lowercased
type response struct {
	code    int
	headers map[string]string
	body    string
}

// do writes one request and reads its response
func (s *session) do(method, target string, headers map[string]string) (*response, error) {
	s.cseq++

	var builder strings.Builder

	fmt.Fprintf(&builder, "%s %s RTSP/1.0\r\n", method, target)
	fmt.Fprintf(&builder, "CSeq: %d\r\n", s.cseq)
	fmt.Fprintf(&builder, "User-Agent: camscan\r\n")

	if s.challenge != "" && s.creds != nil {
		s.nonceCount++

		fmt.Fprintf(
			&builder,
			"Authorization: %s\r\n",
			authorizationHeader(s.challenge, method, target, s.creds, s.nonceCount),
		)
	}

	for name, value := range headers {
		fmt.Fprintf(&builder, "%s: %s\r\n", name, value)
	}

	builder.WriteString("\r\n")

	if _, err := s.conn.Write([]byte(builder.String())); err != nil {
		return nil, err
	}

	return s.readResponse()
}

func (s *session) readResponse() (*response, error) {
	statusLine, err := s.reader.ReadString('\n')

	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errStreamClosed
		}

		return nil, err
	}

	parts := strings.SplitN(strings.TrimSpace(statusLine), " ", 3)

	if len(parts) < 2 || !strings.HasPrefix(parts[0], "RTSP/") {
		return nil, errStreamClosed
	}

	code, err := strconv.Atoi(parts[1])

	if err != nil {
		return nil, errStreamClosed
	}

	resp := &response{
		code:    code,
		headers: map[string]string{},
	}

	for {
		line, err := s.reader.ReadString('\n')

		if err != nil {
			return nil, err
		}

		line = strings.TrimSpace(line)

		if line == "" {
			break
		}

		name, value, found := strings.Cut(line, ":")

		if !found {
			continue
		}

		resp.headers[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(value)
	}

	if lengthValue := resp.headers["content-length"]; lengthValue != "" {
		length, err := strconv.Atoi(lengthValue)

		if err != nil || length < 0 {
			return nil, errStreamClosed
		}

		body := make([]byte, length)

		if _, err := io.ReadFull(s.reader, body); err != nil {
			return nil, err
		}

		resp.body = string(body)
	}

	return resp, nil
}
