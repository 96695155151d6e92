// Package precond evaluates HTTP/1.1 conditional request headers against
// an entity tag and modification time, in the fixed order the protocol
// pipeline requires: If-Modified-Since, If-Match, If-Range,
// If-Unmodified-Since, If-None-Match.
package precond

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// dateLayout is RFC 1123 in UTC, e.g. "Sun, 06 Nov 1994 08:49:37 GMT" —
// the only format this pipeline emits or accepts.
const dateLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

// FormatDate renders t in the wire date format, always in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// ParseDate parses the wire date format. An unparsable date yields the
// zero Unix time rather than an error: that is a benign value for the
// comparisons callers perform against it, and matches the original
// implementation's strptime-failure fallback.
func ParseDate(s string) time.Time {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Unix(0, 0).UTC()
	}
	return t.UTC()
}

// ETag derives the entity tag for fi as the quoted hex triple
// "ino-size-mtime". It is a pure function of those three values: equal
// triples produce equal tags, and any change to any one of them changes
// the tag.
func ETag(fi os.FileInfo) string {
	ino, _ := inode(fi)
	return fmt.Sprintf("%q", fmt.Sprintf("%x-%x-%x", ino, fi.Size(), fi.ModTime().Unix()))
}

// inode extracts the platform inode number from fi, when available.
func inode(fi os.FileInfo) (uint64, bool) {
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, false
	}
	return uint64(st.Ino), true
}

// Outcome is the result of evaluating the full precondition chain.
type Outcome int

const (
	// Continue means no precondition intervened; serve the resource.
	Continue Outcome = iota

	// NotModified means emit a bare 304 with ETag/Last-Modified/Date
	// and no body.
	NotModified

	// PreconditionFailed means emit a 412.
	PreconditionFailed
)

// Evaluate runs the five-step chain from spec against header values taken
// from header (case-insensitive lookup, as required by HTTP). method
// should be "GET", "HEAD", or any other verb; only GET/HEAD get a 304 from
// a matching If-None-Match, everything else gets a 412.
func Evaluate(header http.Header, method, etag string, mtime time.Time) Outcome {
	if v := header.Get("If-Modified-Since"); v != "" {
		if !ParseDate(v).Before(mtime.Truncate(time.Second)) {
			return NotModified
		}
	}

	if v := header.Get("If-Match"); v != "" {
		if !tokenMatches(v, etag) {
			return PreconditionFailed
		}
	}

	if header.Get("If-Range") != "" {
		// Range requests are not implemented; a client attempting
		// conditional range semantics gets a hard failure rather than
		// silent full-content fallback.
		return PreconditionFailed
	}

	if v := header.Get("If-Unmodified-Since"); v != "" {
		// Inclusive comparison: a header date equal to mtime is
		// treated as a failure. This is conservative, not strictly
		// RFC-aligned, and preserved deliberately (see design notes).
		if !ParseDate(v).After(mtime.Truncate(time.Second)) {
			return PreconditionFailed
		}
	}

	if v := header.Get("If-None-Match"); v != "" {
		if tokenMatches(v, etag) {
			if method == http.MethodGet || method == http.MethodHead {
				return NotModified
			}
			return PreconditionFailed
		}
	}

	return Continue
}

// tokenMatches reports whether value, a comma/whitespace separated list of
// ETag tokens (or "*"), contains tag.
func tokenMatches(value, tag string) bool {
	for _, tok := range splitTokens(value) {
		if tok == "*" || tok == tag {
			return true
		}
	}
	return false
}

func splitTokens(value string) []string {
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	return fields
}

// ContentLength renders size in the form used for the Content-Length
// header.
func ContentLength(size int64) string {
	return strconv.FormatInt(size, 10)
}
