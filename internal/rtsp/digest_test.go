package rtsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigestResponse(t *testing.T) {
	creds := &Credentials{Username: "Mufasa", Password: "Circle Of Life"}

	t.Run("computes the rfc 2617 qop=auth vector", func(st *testing.T) {
		response := digestResponse(
			creds,
			"GET",
			"/dir/index.html",
			"testrealm@host.com",
			"dcd98b7102dd2f0e8b11d0f600bfb0c093",
			"auth",
			"00000001",
			"0a4f113b",
		)

		assert.Equal(st, "6629fae49393a05397450978507c4ef1", response)
	})

	t.Run("computes the rfc 2069 form without qop", func(st *testing.T) {
		response := digestResponse(
			creds,
			"GET",
			"/dir/index.html",
			"testrealm@host.com",
			"dcd98b7102dd2f0e8b11d0f600bfb0c093",
			"", "", "",
		)

		assert.Equal(st, "670fd8c2df070c60b045671b8b24ff02", response)
	})
}

func TestDigestAuthorization(t *testing.T) {
	creds := &Credentials{Username: "admin", Password: "pw"}

	t.Run("answers a qop=auth challenge with nc and cnonce", func(st *testing.T) {
		challenge := `Digest realm="cam", nonce="abc123", qop="auth"`

		header := digestAuthorization(challenge, "DESCRIBE", "rtsp://cam/stream", creds, 3)

		assert.Contains(st, header, `qop=auth`)
		assert.Contains(st, header, `nc=00000003`)
		assert.Contains(st, header, `cnonce="`)
		assert.Contains(st, header, `nonce="abc123"`)
	})

	t.Run("falls back to rfc 2069 when qop is absent", func(st *testing.T) {
		challenge := `Digest realm="cam", nonce="abc123"`

		header := digestAuthorization(challenge, "DESCRIBE", "rtsp://cam/stream", creds, 1)

		assert.NotContains(st, header, "qop")
		assert.NotContains(st, header, "cnonce")
		assert.Contains(st, header, `response="`)
	})

	t.Run("ignores an auth-int only challenge qop", func(st *testing.T) {
		challenge := `Digest realm="cam", nonce="abc123", qop="auth-int"`

		header := digestAuthorization(challenge, "DESCRIBE", "rtsp://cam/stream", creds, 1)

		assert.NotContains(st, header, "cnonce")
	})
}

func TestOffersQopAuth(t *testing.T) {
	assert.True(t, offersQopAuth("auth"))
	assert.True(t, offersQopAuth("auth,auth-int"))
	assert.False(t, offersQopAuth("auth-int"))
	assert.False(t, offersQopAuth(""))
}
