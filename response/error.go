package response

import (
	"strconv"

	"github.com/jow-/uhttpgo/transport"
)

// WriteError emits a generic one-chunk plain-text error response: used for
// 403, 404, 501, and anything else this pipeline surfaces outside the
// dedicated 302, 304, 401 and 412 paths. The status line always reads "HTTP/1.1"
// literally, independent of the request's actual version, and the body is
// always chunked — matching the original's single shared error-response
// helper, which never consulted req->version either.
func (e *Emitter) WriteError(req Request, code int, message string) error {
	headers := []string{
		headerLine("Content-Type", "text/plain"),
		headerLine("Transfer-Encoding", "chunked"),
		headerLine("Connection", "close"),
	}
	if err := e.conn.Send(buildHeaderBlock("HTTP/1.1", code, reasonPhrase(code), e.withExtra(headers))); err != nil {
		return err
	}
	if req.IsHead() {
		return nil
	}

	cw := transport.NewChunkWriter(e.conn)
	if err := cw.WriteChunk([]byte(message + "\n")); err != nil {
		return err
	}
	return cw.WriteChunk(nil)
}

// WriteUnauthorized emits the 401 challenge for realmName. Unlike
// WriteError this uses the request's real version and a fixed, precomputed
// Content-Length instead of chunked framing — the original hand-rolls this
// exact response (body, length, and all) in one shot rather than routing
// it through the shared error-response helper.
func (e *Emitter) WriteUnauthorized(req Request, realmName string) error {
	const body = "Authorization Required\n"

	headers := []string{
		headerLine("WWW-Authenticate", `Basic realm="`+realmName+`"`),
		headerLine("Content-Type", "text/plain"),
		headerLine("Content-Length", strconv.Itoa(len(body))),
		headerLine("Connection", "close"),
	}
	if err := e.conn.Send(buildHeaderBlock(req.Version.String(), 401, reasonPhrase(401), e.withExtra(headers))); err != nil {
		return err
	}
	if req.IsHead() {
		return nil
	}
	return e.conn.Send([]byte(body))
}

// WriteRedirect emits the 302 issued when a directory was requested
// without its trailing slash. location is the Location header value
// (already including any preserved query string).
func (e *Emitter) WriteRedirect(req Request, location string) error {
	headers := []string{
		headerLine("Location", location),
		headerLine("Content-Length", "0"),
		headerLine("Connection", "close"),
	}
	return e.conn.Send(buildHeaderBlock(req.Version.String(), 302, reasonPhrase(302), e.withExtra(headers)))
}

// WritePreconditionFailed emits a bare 412: status line, Connection: close,
// and nothing else — no Content-Type, no Transfer-Encoding, no body. The
// precondition chain has nothing more to say once it fails a request, and
// the original implementation's 412 path writes exactly this and stops.
func (e *Emitter) WritePreconditionFailed(req Request) error {
	headers := []string{
		headerLine("Connection", "close"),
	}
	return e.conn.Send(buildHeaderBlock(req.Version.String(), 412, reasonPhrase(412), e.withExtra(headers)))
}
