package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := Listen("127.0.0.1:0", log.New(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestFeedPublishReachesSubscriber(t *testing.T) {
	s := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Serve(ctx)

	conn, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	// Give Serve a moment to register the connection before publishing.
	time.Sleep(20 * time.Millisecond)

	env := Envelope{ChannelTag: "broadcast", CmdID: 0x0A06, Record: map[string]string{"key": "HI1234"}}
	require.NoError(t, s.Publish(env))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	line, err := bufio.NewReader(conn).ReadBytes('\n')
	require.NoError(t, err)

	var got Envelope
	require.NoError(t, json.Unmarshal(line, &got))
	assert.Equal(t, "broadcast", got.ChannelTag)
	assert.Equal(t, uint16(0x0A06), got.CmdID)
}

func TestFeedRejectsBeyondCapacity(t *testing.T) {
	s := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Serve(ctx)

	conns := make([]net.Conn, 0, MaxClients+1)
	defer func() {
		for _, c := range conns {
			c.Close()
		}
	}()

	for i := 0; i < MaxClients+1; i++ {
		c, err := net.Dial("tcp", s.Addr().String())
		require.NoError(t, err)
		conns = append(conns, c)
	}

	time.Sleep(50 * time.Millisecond)

	last := conns[len(conns)-1]
	last.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	buf := make([]byte, 1)
	_, err := last.Read(buf)
	assert.Error(t, err, "connection beyond capacity should be closed by the server")
}
