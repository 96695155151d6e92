package server

import (
	"bufio"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jow-/uhttpgo/pathresolve"
	"github.com/jow-/uhttpgo/realm"
)

func newTestServer(t *testing.T, cfg Config) (*Server, net.Conn) {
	t.Helper()
	s := New(cfg)
	serverConn, clientConn := net.Pipe()
	t.Cleanup(func() { clientConn.Close() })
	go s.handleConn(serverConn)
	return s, clientConn
}

func writeRequest(t *testing.T, conn net.Conn, raw string) {
	t.Helper()
	_, err := io.WriteString(conn, raw)
	require.NoError(t, err)
}

func readResponse(t *testing.T, conn net.Conn) *http.Response {
	t.Helper()
	resp, err := http.ReadResponse(bufio.NewReader(conn), nil)
	require.NoError(t, err)
	return resp
}

func TestServerServesIndexOnRoot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>hi</html>"), 0o644))

	cfg := Config{
		Path: pathresolve.Config{
			Root:       dir,
			Mode:       pathresolve.Lexical,
			IndexFiles: []string{"index.html"},
		},
		Timeout:      time.Second,
		AllowListing: true,
	}
	_, conn := newTestServer(t, cfg)

	writeRequest(t, conn, "GET / HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n")
	resp := readResponse(t, conn)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "<html>hi</html>", string(body))
}

func TestServerReturns404ForMissingPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0o755))

	cfg := Config{
		Path:    pathresolve.Config{Root: dir, Mode: pathresolve.Lexical},
		Timeout: time.Second,
	}
	_, conn := newTestServer(t, cfg)

	writeRequest(t, conn, "GET /nope HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n")
	resp := readResponse(t, conn)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestServerRedirectsDirectoryWithoutTrailingSlash(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "docs"), 0o755))

	cfg := Config{
		Path:    pathresolve.Config{Root: dir, Mode: pathresolve.Lexical},
		Timeout: time.Second,
	}
	_, conn := newTestServer(t, cfg)

	writeRequest(t, conn, "GET /docs HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n")
	resp := readResponse(t, conn)
	assert.Equal(t, 302, resp.StatusCode)
	assert.Equal(t, "/docs/", resp.Header.Get("Location"))
}

func TestServerChallengesProtectedPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secret.txt"), []byte("shh"), 0o644))

	realms := realm.NewRegistry([]realm.Realm{
		{PathPrefix: "/secret.txt", User: "alice", Credential: realm.PlaintextCredential{Stored: "hunter2"}},
	})
	cfg := Config{
		Path:    pathresolve.Config{Root: dir, Mode: pathresolve.Lexical},
		Realms:  realms,
		Timeout: time.Second,
	}
	_, conn := newTestServer(t, cfg)

	writeRequest(t, conn, "GET /secret.txt HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n")
	resp := readResponse(t, conn)
	assert.Equal(t, 401, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("WWW-Authenticate"), "Basic"))
}

func TestServerDoesNotServeASecondRequestOnTheSameConnection(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("hi"), 0o644))

	cfg := Config{
		Path: pathresolve.Config{
			Root:       dir,
			Mode:       pathresolve.Lexical,
			IndexFiles: []string{"index.html"},
		},
		Timeout:      time.Second,
		AllowListing: true,
	}
	_, conn := newTestServer(t, cfg)

	// No "Connection: close" on the request: a keep-alive-capable server
	// would normally read a second request off this same connection.
	writeRequest(t, conn, "GET / HTTP/1.1\r\nHost: x\r\n\r\n")
	resp := readResponse(t, conn)
	_, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, "close", resp.Header.Get("Connection"))

	// The server must have closed its side already; a byte written now
	// is never read because there is no second handleConn loop iteration
	// waiting for it, and the subsequent read observes the closed pipe.
	_, err = conn.Write([]byte("GET / HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n"))
	if err == nil {
		buf := make([]byte, 16)
		_, err = conn.Read(buf)
	}
	assert.Error(t, err, "server should not accept a second request on the same connection")
}

func TestServerRejectsUnsupportedMethod(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0o755))

	cfg := Config{
		Path:    pathresolve.Config{Root: dir, Mode: pathresolve.Lexical},
		Timeout: time.Second,
	}
	_, conn := newTestServer(t, cfg)

	writeRequest(t, conn, "POST / HTTP/1.1\r\nHost: x\r\nContent-Length: 0\r\nConnection: close\r\n\r\n")
	resp := readResponse(t, conn)
	assert.Equal(t, 501, resp.StatusCode)
}
