//go:build !unix

package response

import (
	"net"
	"os"
)

// trySendfile has no fast path outside unix: every platform falls back to
// the buffered copy in file.go.
func trySendfile(conn net.Conn, f *os.File, size int64) (handled bool, err error) {
	return false, nil
}
