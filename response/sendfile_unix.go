//go:build unix

package response

import (
	"io"
	"net"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// trySendfile pushes size bytes of f to conn via the sendfile(2) fast path,
// bypassing a userspace copy. It mirrors the original file server's
// sendfile/copyfile split: grab the raw file descriptor behind conn (only
// possible for a plain TCP connection, never for TLS), loop sendfile(2)
// calls capped at 1GiB each, and retry on EAGAIN exactly as a raw socket
// write loop would. handled is false whenever conn isn't a *net.TCPConn,
// signalling the caller to fall back to a buffered copy.
func trySendfile(conn net.Conn, f *os.File, size int64) (handled bool, err error) {
	tcp, ok := conn.(*net.TCPConn)
	if !ok {
		return false, nil
	}

	rawsock, err := tcp.SyscallConn()
	if err != nil {
		return false, nil
	}

	off := int64(0)
	remain := size
	var opErr error

	for remain > 0 {
		amt := remain
		if amt > (1 << 30) {
			amt = 1 << 30
		}

		var written int
		ctrlErr := rawsock.Write(func(fd uintptr) bool {
			var werr error
			written, werr = unix.Sendfile(int(fd), int(f.Fd()), &off, int(amt))
			switch werr {
			case nil:
				return true
			case syscall.EAGAIN:
				return false
			default:
				opErr = werr
				return true
			}
		})
		if ctrlErr != nil {
			return true, ctrlErr
		}
		if opErr != nil {
			return true, opErr
		}
		if written == 0 {
			return true, io.ErrClosedPipe
		}
		remain -= int64(written)
	}
	return true, nil
}
