package response

import (
	"fmt"
	"strings"
	"time"

	"github.com/jow-/uhttpgo/precond"
	"github.com/jow-/uhttpgo/transport"
)

// Emitter writes status lines, header blocks, and bodies for one
// connection's worth of responses. It owns no state across requests.
type Emitter struct {
	conn         *transport.Conn
	allowListing bool
	extra        []string
}

// New builds an Emitter writing through conn. allowListing controls
// whether ServeDirectory produces a listing or a 403. extra is a set of
// pre-rendered "Name: value" header lines appended to every response this
// Emitter writes, success or error alike — mirroring the teacher's
// addHeaders wrapper, which sets its configured extra headers before any
// other response processing happens.
func New(conn *transport.Conn, allowListing bool, extra []string) *Emitter {
	return &Emitter{conn: conn, allowListing: allowListing, extra: extra}
}

// withExtra appends the Emitter's configured extra headers to headers.
func (e *Emitter) withExtra(headers []string) []string {
	if len(e.extra) == 0 {
		return headers
	}
	return append(append([]string{}, headers...), e.extra...)
}

// reasonPhrase returns the standard reason phrase for the small set of
// status codes this pipeline ever emits.
func reasonPhrase(code int) string {
	switch code {
	case 200:
		return "OK"
	case 302:
		return "Found"
	case 304:
		return "Not Modified"
	case 401:
		return "Authorization Required"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 412:
		return "Precondition Failed"
	case 500:
		return "Internal Server Error"
	case 501:
		return "Not Implemented"
	default:
		return "Error"
	}
}

func headerLine(key, value string) string {
	return key + ": " + value
}

// buildHeaderBlock renders a full status line plus header block (including
// the terminating blank line) as wire bytes. statusVersion is the literal
// text placed before the status code; it is not always req.Version, since
// the generic error path emits "HTTP/1.1" unconditionally regardless of
// the request's actual version.
func buildHeaderBlock(statusVersion string, code int, reason string, headers []string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d %s\r\n", statusVersion, code, reason)
	for _, h := range headers {
		b.WriteString(h)
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
	return []byte(b.String())
}

// commonHeaders returns the ETag/Last-Modified/Date/Connection quadruple
// shared by every 200 and 304 response for a filesystem object. Connection
// is always "close": keep-alive is not supported, so every response says
// so explicitly rather than leaving it to the client to guess from the
// HTTP version.
func commonHeaders(etag string, mtime time.Time) []string {
	return []string{
		headerLine("ETag", etag),
		headerLine("Last-Modified", precond.FormatDate(mtime)),
		headerLine("Date", precond.FormatDate(time.Now())),
		headerLine("Connection", "close"),
	}
}
