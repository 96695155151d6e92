package response

import (
	"io"
	"os"
	"time"

	"github.com/jow-/uhttpgo/mimetype"
	"github.com/jow-/uhttpgo/pathresolve"
	"github.com/jow-/uhttpgo/precond"
	"github.com/jow-/uhttpgo/transport"
)

// bufSize is the read buffer used both for chunk framing and for the
// buffered fallback copy when the sendfile fast path is unavailable.
const bufSize = 32 * 1024

// ServeFile answers req with the contents of pi, running the full
// precondition chain first. An HTTP/1.1 GET gets its body chunked;
// HTTP/1.0 and HEAD requests always get identity framing (HEAD sends no
// body at all).
func (e *Emitter) ServeFile(req Request, pi *pathresolve.PathInfo) error {
	f, err := os.Open(pi.Phys)
	if err != nil {
		return e.WriteError(req, 403, "Forbidden")
	}
	defer f.Close()

	etag := precond.ETag(pi.Stat)
	mtime := pi.Stat.ModTime()

	switch precond.Evaluate(req.Header, req.Method, etag, mtime) {
	case precond.NotModified:
		return e.writeNotModified(req, etag, mtime)
	case precond.PreconditionFailed:
		return e.WritePreconditionFailed(req)
	}

	chunked := req.Version == HTTP11 && !req.IsHead()

	headers := commonHeaders(etag, mtime)
	headers = append(headers,
		headerLine("Content-Type", mimetype.Lookup(pi.Name)),
		headerLine("Content-Length", precond.ContentLength(pi.Stat.Size())),
	)
	if chunked {
		headers = append(headers, headerLine("Transfer-Encoding", "chunked"))
	}

	if err := e.conn.Send(buildHeaderBlock(req.Version.String(), 200, "OK", e.withExtra(headers))); err != nil {
		return err
	}

	if req.IsHead() {
		return nil
	}

	if chunked {
		return e.sendChunkedFile(f, pi.Stat.Size())
	}
	return e.sendIdentityFile(f, pi.Stat.Size())
}

func (e *Emitter) writeNotModified(req Request, etag string, mtime time.Time) error {
	headers := commonHeaders(etag, mtime)
	return e.conn.Send(buildHeaderBlock(req.Version.String(), 304, "Not Modified", e.withExtra(headers)))
}

// sendIdentityFile writes size bytes of f with no additional framing,
// preferring the sendfile(2) fast path and falling back to a buffered
// copy through the timeout-aware transport when that isn't available
// (TLS connections, non-unix platforms, or a non-TCP net.Conn).
func (e *Emitter) sendIdentityFile(f *os.File, size int64) error {
	if handled, err := trySendfile(e.conn.Raw(), f, size); handled {
		return err
	}

	buf := make([]byte, bufSize)
	for {
		n, rerr := f.Read(buf)
		if n > 0 {
			if err := e.conn.Send(buf[:n]); err != nil {
				return err
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return rerr
		}
	}
}

// sendChunkedFile writes size bytes of f framed as HTTP/1.1 chunked
// transfer encoding, ending with the terminating zero chunk.
func (e *Emitter) sendChunkedFile(f *os.File, size int64) error {
	cw := transport.NewChunkWriter(e.conn)
	buf := make([]byte, bufSize)
	for {
		n, rerr := f.Read(buf)
		if n > 0 {
			if err := cw.WriteChunk(buf[:n]); err != nil {
				return err
			}
		}
		if rerr == io.EOF {
			return cw.WriteChunk(nil)
		}
		if rerr != nil {
			return rerr
		}
	}
}
