package transport

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnSendRecvRoundTrip(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	sc := New(server, time.Second)
	cc := New(client, time.Second)

	done := make(chan error, 1)
	go func() {
		done <- sc.Send([]byte("hello"))
	}()

	buf := make([]byte, 5)
	n, err := cc.Recv(buf)
	require.NoError(t, err)
	require.NoError(t, <-done)
	assert.Equal(t, "hello", string(buf[:n]))
}

func TestConnSendTimeout(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	sc := New(server, 10*time.Millisecond)
	// nobody reads from client, so the write should time out
	err := sc.Send([]byte("x"))
	assert.Error(t, err)
}

func TestChunkWriterFramesPayload(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	cw := NewChunkWriter(New(server, time.Second))

	go func() {
		cw.WriteChunk([]byte("abc"))
		cw.WriteChunk(nil)
	}()

	buf := make([]byte, 64)
	total := 0
	for total < len("3\r\nabc\r\n0\r\n\r\n") {
		n, err := client.Read(buf[total:])
		require.NoError(t, err)
		total += n
	}
	assert.Equal(t, "3\r\nabc\r\n0\r\n\r\n", string(buf[:total]))
}

func TestConnRecvClosedConnection(t *testing.T) {
	server, client := net.Pipe()
	require.NoError(t, client.Close())

	sc := New(server, time.Second)
	buf := make([]byte, 1)
	_, err := sc.Recv(buf)
	assert.True(t, err == io.EOF || err != nil)
}
