package rtsp

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// Credentials optional username/password for a connection test. Held only
// for the duration of the attempt and composed into headers, never into any
// url that outlives the request.
type Credentials struct {
	Username string
	Password string
}

// authorizationHeader answers a 401 challenge with either a Digest or Basic
// Authorization header, depending on what the server asked for. nonceCount
// must increase per request issued against the same digest challenge.
func authorizationHeader(challenge, method, uri string, creds *Credentials, nonceCount int) string {
	if creds == nil {
		return ""
	}

	if strings.HasPrefix(challenge, "Digest") {
		return digestAuthorization(challenge, method, uri, creds, nonceCount)
	}

	token := base64.StdEncoding.EncodeToString(
		[]byte(creds.Username + ":" + creds.Password),
	)

	return "Basic " + token
}

// digestAuthorization implements RFC 2617 digest with qop=auth when the
// server offers it, RFC 2069 otherwise. A server offering only auth-int
// gets the RFC 2069 form; message-integrity digest is not attempted.
func digestAuthorization(challenge, method, uri string, creds *Credentials, nonceCount int) string {
	realm := challengeParam(challenge, "realm")
	nonce := challengeParam(challenge, "nonce")

	if offersQopAuth(challengeParam(challenge, "qop")) {
		nc := fmt.Sprintf("%08x", nonceCount)
		cnonce := newCnonce()
		response := digestResponse(creds, method, uri, realm, nonce, "auth", nc, cnonce)

		return fmt.Sprintf(
			`Digest username="%s", realm="%s", nonce="%s", uri="%s", qop=auth, nc=%s, cnonce="%s", response="%s"`,
			creds.Username, realm, nonce, uri, nc, cnonce, response,
		)
	}

	response := digestResponse(creds, method, uri, realm, nonce, "", "", "")

	return fmt.Sprintf(
		`Digest username="%s", realm="%s", nonce="%s", uri="%s", response="%s"`,
		creds.Username, realm, nonce, uri, response,
	)
}

// digestResponse computes the response hash; empty qop selects the RFC 2069
// form
func digestResponse(creds *Credentials, method, uri, realm, nonce, qop, nc, cnonce string) string {
	ha1 := md5Hex(creds.Username + ":" + realm + ":" + creds.Password)
	ha2 := md5Hex(method + ":" + uri)

	if qop == "" {
		return md5Hex(ha1 + ":" + nonce + ":" + ha2)
	}

	return md5Hex(ha1 + ":" + nonce + ":" + nc + ":" + cnonce + ":" + qop + ":" + ha2)
}

// offersQopAuth reports whether the challenge qop list includes plain auth
func offersQopAuth(qop string) bool {
	for _, option := range strings.Split(qop, ",") {
		if strings.TrimSpace(option) == "auth" {
			return true
		}
	}

	return false
}

func newCnonce() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)

	return hex.EncodeToString(buf)
}

// challengeParam extracts one quoted parameter from a WWW-Authenticate value
func challengeParam(challenge, name string) string {
	for _, part := range strings.Split(challenge, ",") {
		part = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(part), "Digest"))

		key, value, found := strings.Cut(part, "=")

		if !found || !strings.EqualFold(strings.TrimSpace(key), name) {
			continue
		}

		return strings.Trim(strings.TrimSpace(value), `"`)
	}

	return ""
}

func md5Hex(input string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(input)))
}
