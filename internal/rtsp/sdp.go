package rtsp

import (
	"strconv"
	"strings"
)

// sdpInfo stream metadata pulled from a DESCRIBE answer. Any field may be
// zero; cameras are inconsistent about what they advertise.
type sdpInfo struct {
	codec   string
	fps     int
	width   int
	height  int
	control string
}

// parseSDP extracts the first video section's metadata. baseURL anchors a
// relative control attribute.
func parseSDP(body, baseURL string) sdpInfo {
	info := sdpInfo{}
	inVideo := false

	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimRight(line, "\r")

		switch {
		case strings.HasPrefix(line, "m="):
			if inVideo {
				// only the first video section matters
				return info
			}
			inVideo = strings.HasPrefix(line, "m=video")

		case !inVideo:
			continue

		case strings.HasPrefix(line, "a=rtpmap:"):
			if info.codec == "" {
				info.codec = rtpmapCodec(line)
			}

		case strings.HasPrefix(line, "a=framerate:"):
			value := strings.TrimPrefix(line, "a=framerate:")

			if fps, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
				info.fps = int(fps)
			}

		case strings.HasPrefix(line, "a=x-dimensions:"):
			value := strings.TrimPrefix(line, "a=x-dimensions:")
			info.setDimensions(parseDimensions(value))

		case strings.HasPrefix(line, "a=framesize:"):
			value := strings.TrimPrefix(line, "a=framesize:")
			info.setDimensions(parseFramesize(value))

		case strings.HasPrefix(line, "a=cliprect:"):
			value := strings.TrimPrefix(line, "a=cliprect:")
			info.setDimensions(parseCliprect(value))

		case strings.HasPrefix(line, "a=fmtp:"):
			info.setDimensions(parseFmtpDimensions(line))

		case strings.HasPrefix(line, "a=control:"):
			info.control = resolveControl(
				strings.TrimSpace(strings.TrimPrefix(line, "a=control:")),
				baseURL,
			)
		}
	}

	return info
}

// setDimensions keeps the first complete dimension pair the sdp advertises
func (i *sdpInfo) setDimensions(width, height int) {
	if i.width == 0 && width > 0 && height > 0 {
		i.width = width
		i.height = height
	}
}

// rtpmapCodec pulls the encoding name out of "a=rtpmap:96 H264/90000"
func rtpmapCodec(line string) string {
	_, spec, found := strings.Cut(line, " ")

	if !found {
		return ""
	}

	codec, _, _ := strings.Cut(strings.TrimSpace(spec), "/")

	return codec
}

// parseDimensions handles the "1920,1080" dimension attribute some vendors
// emit
func parseDimensions(value string) (int, int) {
	w, h, found := strings.Cut(strings.TrimSpace(value), ",")

	if !found {
		return 0, 0
	}

	width, err := strconv.Atoi(strings.TrimSpace(w))

	if err != nil {
		return 0, 0
	}

	height, err := strconv.Atoi(strings.TrimSpace(h))

	if err != nil {
		return 0, 0
	}

	return width, height
}

// parseFramesize handles the 3gpp "96 1280-720" form
func parseFramesize(value string) (int, int) {
	_, spec, found := strings.Cut(strings.TrimSpace(value), " ")

	if !found {
		return 0, 0
	}

	w, h, found := strings.Cut(strings.TrimSpace(spec), "-")

	if !found {
		return 0, 0
	}

	width, err := strconv.Atoi(strings.TrimSpace(w))

	if err != nil {
		return 0, 0
	}

	height, err := strconv.Atoi(strings.TrimSpace(h))

	if err != nil {
		return 0, 0
	}

	return width, height
}

// parseCliprect handles the quicktime "0,0,height,width" form
func parseCliprect(value string) (int, int) {
	parts := strings.Split(strings.TrimSpace(value), ",")

	if len(parts) != 4 {
		return 0, 0
	}

	height, err := strconv.Atoi(strings.TrimSpace(parts[2]))

	if err != nil {
		return 0, 0
	}

	width, err := strconv.Atoi(strings.TrimSpace(parts[3]))

	if err != nil {
		return 0, 0
	}

	return width, height
}

// parseFmtpDimensions finds an x-dimensions parameter buried in an fmtp
// attribute, as some vendors emit instead of a dedicated line
func parseFmtpDimensions(line string) (int, int) {
	_, params, found := strings.Cut(line, " ")

	if !found {
		return 0, 0
	}

	for _, param := range strings.Split(params, ";") {
		key, value, found := strings.Cut(strings.TrimSpace(param), "=")

		if found && strings.EqualFold(strings.TrimSpace(key), "x-dimensions") {
			return parseDimensions(value)
		}
	}

	return 0, 0
}

// resolveControl anchors a relative track control to the presentation url
func resolveControl(control, baseURL string) string {
	if control == "" || control == "*" {
		return baseURL
	}

	if strings.HasPrefix(control, "rtsp://") || strings.HasPrefix(control, "rtsps://") {
		return control
	}

	return strings.TrimSuffix(baseURL, "/") + "/" + control
}
