package wsdiscovery

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bindConn(t *testing.T) *net.UDPConn {
	t.Helper()

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: 0})

	require.NoError(t, err)

	t.Cleanup(func() { conn.Close() })

	return conn
}

func TestJoinGroup(t *testing.T) {
	group := net.ParseIP("239.255.255.250")

	t.Run("fails when no interface is eligible", func(st *testing.T) {
		p := NewProber("239.255.255.250:3702", time.Second, nil)

		conn := bindConn(st)

		err := p.joinGroup(conn, group, nil)

		assert.Error(st, err)
	})

	t.Run("fails when only ineligible interfaces exist", func(st *testing.T) {
		p := NewProber("239.255.255.250:3702", time.Second, nil)

		conn := bindConn(st)

		interfaces := []net.Interface{
			{Name: "lo", Flags: net.FlagUp | net.FlagMulticast | net.FlagLoopback},
			{Name: "down0", Flags: net.FlagMulticast},
		}

		err := p.joinGroup(conn, group, interfaces)

		assert.Error(st, err)
	})
}

func TestCollectStopsOnPersistentReadError(t *testing.T) {
	p := NewProber("239.255.255.250:3702", time.Second, nil)

	conn := bindConn(t)

	// a closed socket fails every read with a non-timeout error
	conn.Close()

	start := time.Now()

	endpoints := p.collect(context.Background(), conn, time.Now().Add(100*time.Millisecond))

	assert.Empty(t, endpoints)
	assert.Less(t, time.Since(start), time.Second)
}
